// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Command fabricmaster is a minimal CLI around the master package: it
// wires a configured set of workers into a Dispatcher and runs a
// request tree read from a JSON file. The real transport is an
// external collaborator (SPEC_FULL.md §1), so the workers this binary
// talks to are backed by internal/fakeworker; swapping in a real
// WorkerClient implementation only requires changing how submit builds
// its worker list.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/bigslice/stats"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arborcompute/fabric"
	"github.com/arborcompute/fabric/internal/fakeworker"
	"github.com/arborcompute/fabric/master"
)

var cfgFile string

func main() {
	log.AddFlags()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fabricmaster",
		Short: "Request dispatcher and partition planner for a fabric cluster",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a fabricmaster config file (yaml/json/toml)")
	root.AddCommand(submitCmd())
	return root
}

// config is the shape of the configuration file loaded by viper: the
// set of worker names to stand up (each becomes an in-memory
// fakeworker.Worker) and the default partition count used when the
// top-level request read from the file leaves NumPartitions unset.
// Nested sub-requests are not given the default.
type config struct {
	Workers               []string `mapstructure:"workers"`
	DefaultNumPartitions int      `mapstructure:"default_num_partitions"`
}

func loadConfig() (config, error) {
	v := viper.New()
	v.SetDefault("workers", []string{"w0", "w1"})
	v.SetDefault("default_num_partitions", 0)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func submitCmd() *cobra.Command {
	var requestFile string
	var printStats bool
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Resolve a request tree read from a JSON file and print the resulting partitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(requestFile)
			if err != nil {
				return fmt.Errorf("reading request file: %w", err)
			}
			var req fabric.Request
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing request: %w", err)
			}
			if req.NumPartitions == 0 {
				req.NumPartitions = cfg.DefaultNumPartitions
			}

			workers := make([]fabric.WorkerClient, len(cfg.Workers))
			for i, name := range cfg.Workers {
				workers[i] = fakeworker.New(name)
			}

			mc := master.NewContext(master.NewDispatcher(), workers, fabric.NewMemCache())
			res, err := mc.ProcessRequest(context.Background(), &req)
			if err != nil {
				return fmt.Errorf("processing request: %w", err)
			}
			if res.IsValue {
				fmt.Printf("%v\n", res.Value)
			} else {
				for _, p := range res.Partitions {
					fmt.Println(p.String())
				}
			}
			if printStats {
				values := make(stats.Values)
				mc.Stats.AddAll(values)
				for name, v := range values {
					fmt.Fprintf(os.Stderr, "stat: %s=%d\n", name, v)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&requestFile, "request", "", "path to a JSON-encoded request tree")
	cmd.Flags().BoolVar(&printStats, "stats", false, "print per-kind request/partition counters to stderr after resolving")
	cmd.MarkFlagRequired("request")
	return cmd
}
