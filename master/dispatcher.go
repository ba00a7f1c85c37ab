// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package master implements the request dispatcher and the
// create/map/reduce/repartition/coalesce handlers that turn a request
// tree into a flat set of worker-resident partitions (spec §4).
package master

import (
	"context"
	"fmt"

	"github.com/grailbio/base/limiter"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/status"
	"github.com/grailbio/bigslice/stats"

	"github.com/arborcompute/fabric"
	"github.com/arborcompute/fabric/internal/tracing"
)

// defaultMaxConcurrentRPCs bounds how many worker RPCs a Context
// created by NewContext (together with every child Context it spawns
// for sub-requests) has outstanding at once. It mirrors the teacher's commitLimiter
// (exec/bigmachine.go's worker.Init, bounded by GOMAXPROCS) in spirit:
// a fan-out's concurrency should be an operator-tunable knob, not
// implicitly equal to however many workers happen to be in the
// request's grouping.
const defaultMaxConcurrentRPCs = 64

// Resolved is what processing a Request yields: either a partition
// list (every kind but Reduce) or a single value (Reduce).
type Resolved struct {
	Partitions []fabric.Partition
	Value      any
	IsValue    bool
}

// Handler resolves one request kind, recursively resolving
// req.SubRequest through ctx.ProcessRequest as needed.
type Handler func(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error)

// Dispatcher is a registry mapping request kinds to handlers (§4.3).
// It does not cache resolutions: resolving the same request twice
// runs the pipeline twice.
type Dispatcher struct {
	handlers map[fabric.RequestKind]Handler
}

// NewDispatcher returns a Dispatcher wired with the standard
// createRDD/map/reduce/repartition/coalesce/loadCache handlers.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[fabric.RequestKind]Handler)}
	d.Register(fabric.KindCreateRDD, handleCreate)
	d.Register(fabric.KindMap, handleMap)
	d.Register(fabric.KindReduce, handleReduce)
	d.Register(fabric.KindRepartition, handleRepartition)
	d.Register(fabric.KindCoalesce, handleCoalesce)
	d.Register(fabric.KindLoadCache, handleLoadCache)
	return d
}

// Register installs (or replaces) the handler for kind.
func (d *Dispatcher) Register(kind fabric.RequestKind, h Handler) {
	d.handlers[kind] = h
}

// Context is the masterContext handed to handlers: it carries the
// cluster's worker list, the loadCache backing store, and the
// observability plumbing (status group, stats, per-request trace id)
// supplementing spec §5's bare description of concurrent handlers
// with the texture the teacher carries (exec/bigmachine.go's
// status.Group, BigmachineStatusGroup).
type Context struct {
	Workers    []fabric.WorkerClient
	Cache      fabric.Cache
	Dispatcher *Dispatcher
	Status     *status.Group // optional; may be nil

	// RPCLimiter bounds the number of worker RPCs outstanding at once
	// across every handler fan-out in this Context; child contexts
	// share it.
	RPCLimiter *limiter.Limiter

	// Stats accumulates per-kind request and partition counters,
	// mirroring the teacher's w.stats/b.stats bookkeeping
	// (exec/bigmachine.go). Never nil.
	Stats *stats.Map

	traceID tracing.ID
}

// NewContext returns a Context ready to process requests against
// workers, with a fresh request-scoped trace id, the default RPC
// concurrency limiter, and an empty stats map.
func NewContext(d *Dispatcher, workers []fabric.WorkerClient, cache fabric.Cache) *Context {
	l := limiter.New()
	l.Release(defaultMaxConcurrentRPCs)
	return &Context{
		Workers:    workers,
		Cache:      cache,
		Dispatcher: d,
		RPCLimiter: l,
		Stats:      stats.NewMap(),
		traceID:    tracing.New(),
	}
}

// withTrace returns a child Context sharing the same workers/cache/
// dispatcher/status but tagged with a fresh trace id, used when
// recursing into a sub-request so each level of the tree is
// individually traceable in logs.
func (c *Context) withTrace() *Context {
	child := *c
	child.traceID = tracing.New()
	return &child
}

// ProcessRequest looks up req.Kind's handler and invokes it. This is
// the masterContext.processRequest(request) entry point of §4.3/§6.
func (c *Context) ProcessRequest(ctx context.Context, req *fabric.Request) (Resolved, error) {
	if req == nil {
		return Resolved{}, fmt.Errorf("master: nil request")
	}
	h, ok := c.Dispatcher.handlers[req.Kind]
	if !ok {
		return Resolved{}, fmt.Errorf("master: no handler registered for kind %q", req.Kind)
	}
	child := c.withTrace()
	log.Printf("master[%s]: dispatching %s", child.traceID, req.Kind)
	c.Stats.Int(fmt.Sprintf("requests.%s", req.Kind)).Add(1)

	var task *status.Task
	if c.Status != nil {
		task = c.Status.Start()
		task.Printf("%s[%s]: running", req.Kind, child.traceID)
		defer task.Done()
	}

	res, err := h(ctx, child, req)
	if err != nil {
		log.Error.Printf("master[%s]: %s failed: %v", child.traceID, req.Kind, err)
		if task != nil {
			task.Printf("%s[%s]: failed: %v", req.Kind, child.traceID, err)
		}
		c.Stats.Int(fmt.Sprintf("failures.%s", req.Kind)).Add(1)
		return Resolved{}, err
	}
	log.Printf("master[%s]: %s done (%d partitions)", child.traceID, req.Kind, len(res.Partitions))
	if task != nil {
		task.Printf("%s[%s]: done (%d partitions)", req.Kind, child.traceID, len(res.Partitions))
	}
	c.Stats.Int(fmt.Sprintf("partitions.%s", req.Kind)).Add(int64(len(res.Partitions)))
	return res, nil
}

// acquireRPC reserves one slot of RPC concurrency for the duration of
// a single worker call, returning a func to release it. Callers that
// fan out RPCs across a TaskRecord list should acquire one slot per
// RPC, right before issuing it.
func (c *Context) acquireRPC(ctx context.Context) (func(), error) {
	if c.RPCLimiter == nil {
		return func() {}, nil
	}
	if err := c.RPCLimiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.RPCLimiter.Release(1) }, nil
}

// resolvePartitions resolves req and asserts it produced a partition
// list rather than a scalar value (every handler but Reduce requires
// this of its sub-request).
func resolvePartitions(ctx context.Context, mc *Context, req *fabric.Request) ([]fabric.Partition, error) {
	res, err := mc.ProcessRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.IsValue {
		return nil, fmt.Errorf("master: expected a partition list, got a value (kind %q)", req.Kind)
	}
	return res.Partitions, nil
}

// releaseIfOwned releases partitions produced by resolving subReq,
// unless subReq is a loadCache request (§3, §4: "for loadCache
// sub-requests, no release is issued; the cache owns the handles").
func releaseIfOwned(ctx context.Context, mc *Context, subReq *fabric.Request, partitions []fabric.Partition) error {
	if subReq.Kind == fabric.KindLoadCache {
		return nil
	}
	return releasePartitions(ctx, mc, partitions)
}
