// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// handleCreate implements the createRDD handler (§4.4): it computes
// the §4.1 balanced per-worker share, ships each worker its slice of
// args in parallel, and concatenates the results in worker order.
//
// Guarantee: the returned partition list's ordering matches the
// original Args ordering.
func handleCreate(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	numPartitions := req.NumPartitions
	if numPartitions == 0 {
		numPartitions = len(mc.Workers)
	}
	if numPartitions != len(req.Args) {
		return Resolved{}, fmt.Errorf("master: createRDD: numPartitions=%d but len(args)=%d", numPartitions, len(req.Args))
	}

	shares := fabric.BalancedAssignment(mc.Workers, numPartitions)
	results := make([][]fabric.Partition, len(shares))

	g, gctx := errgroup.WithContext(ctx)
	for i, share := range shares {
		i, share := i, share
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			args := fabric.CreatePartitionArgs{
				Type:    req.Type,
				Creator: req.Creator,
				Count:   share.Count,
				Args:    req.Args[share.Offset : share.Offset+share.Count],
			}
			reply, err := callCreate(gctx, share.Worker, args)
			if err != nil {
				return err
			}
			partitions := make([]fabric.Partition, share.Count)
			for j, id := range reply.IDs {
				partitions[j] = fabric.Partition{Worker: share.Worker, ID: id}
			}
			results[i] = partitions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolved{}, err
	}

	out := make([]fabric.Partition, 0, numPartitions)
	for _, partitions := range results {
		out = append(out, partitions...)
	}
	return Resolved{Partitions: out}, nil
}
