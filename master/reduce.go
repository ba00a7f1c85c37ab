// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// handleReduce implements the reduce handler (§4.6): steps mirror map
// through the per-worker fan-out, except each worker returns a value
// per partition rather than a new id. After releasing the inputs
// (same policy as map), the master applies ReduceFinalFunc locally to
// the reordered values and returns the scalar result.
func handleReduce(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	subPartitions, err := resolvePartitions(ctx, mc, req.SubRequest)
	if err != nil {
		return Resolved{}, err
	}

	tasks := fabric.GroupByWorker(subPartitions)
	values := make([]any, len(subPartitions))

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			reply, err := callReduce(gctx, task.Worker, fabric.ReduceArgs{Func: req.ReducePartitionFunc, IDs: task.IDs})
			if err != nil {
				return err
			}
			for j, idx := range task.Indices {
				values[idx] = reply.Values[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolved{}, err
	}

	if err := releaseIfOwned(ctx, mc, req.SubRequest, subPartitions); err != nil {
		return Resolved{}, err
	}

	return Resolved{Value: req.ReduceFinalFunc(values), IsValue: true}, nil
}
