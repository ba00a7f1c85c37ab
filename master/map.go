// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// handleMap implements the map handler (§4.5): resolve the
// sub-request, group by worker, issue one MAP RPC per worker in
// parallel, flatten back to original order (each mapped partition
// stays on the worker that held its input), then release the inputs
// unless they came from loadCache.
func handleMap(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	subPartitions, err := resolvePartitions(ctx, mc, req.SubRequest)
	if err != nil {
		return Resolved{}, err
	}

	tasks := fabric.GroupByWorker(subPartitions)
	newIDs := make([]string, len(subPartitions))

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			reply, err := callMap(gctx, task.Worker, fabric.MapArgs{Func: req.Func, IDs: task.IDs})
			if err != nil {
				return err
			}
			for j, idx := range task.Indices {
				newIDs[idx] = reply.IDs[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolved{}, err
	}

	out := make([]fabric.Partition, len(subPartitions))
	for i, sp := range subPartitions {
		out[i] = fabric.Partition{Worker: sp.Worker, ID: newIDs[i]}
	}

	if err := releaseIfOwned(ctx, mc, req.SubRequest, subPartitions); err != nil {
		return Resolved{}, err
	}
	return Resolved{Partitions: out}, nil
}

// handleLoadCache implements the loadCache handler: it returns the
// cache-owned partitions for req.CacheKey verbatim. There is no
// sub-request and no release, by definition (§3, §4).
func handleLoadCache(_ context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	partitions, err := mc.Cache.Load(req.CacheKey)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Partitions: partitions}, nil
}
