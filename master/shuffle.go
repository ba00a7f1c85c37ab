// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// sliceFanout issues one REPARTITION_SLICE RPC per worker holding a
// subPartition, in parallel, and scatters the replies back into
// source-partition order (§4.7 Phase 1, §4.8 Phase 1). argsPerSource
// is nil for repartition (the worker derives routing purely from
// partitionFunc) or has one entry per subPartition for coalesce (the
// worker instead slices by the given contiguous ranges).
//
// The returned piece table is indexed [source][dest], source in the
// original subPartitions order, dest in [0, numPartitions).
func sliceFanout(
	ctx context.Context,
	mc *Context,
	subPartitions []fabric.Partition,
	numPartitions int,
	partitionFunc fabric.SerializedFunc,
	argsPerSource [][]fabric.CoalesceRange,
) ([][]fabric.Piece, error) {
	tasks := fabric.GroupByWorker(subPartitions)
	pieces := make([][]fabric.Piece, len(subPartitions))

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			var args [][]fabric.CoalesceRange
			if argsPerSource != nil {
				args = make([][]fabric.CoalesceRange, len(task.Indices))
				for j, idx := range task.Indices {
					args[j] = argsPerSource[idx]
				}
			}
			reply, err := callSlice(gctx, task.Worker, fabric.RepartitionSliceArgs{
				IDs:           task.IDs,
				NumPartitions: numPartitions,
				PartitionFunc: partitionFunc,
				Args:          args,
			})
			if err != nil {
				return err
			}
			for j, idx := range task.Indices {
				pieces[idx] = reply.Pieces[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pieces, nil
}

// transpose builds pieces'[d] for d in [0, numPartitions): the list
// obtained by collecting, for every source partition in order,
// pieces[s][d], filtered of absent entries (§3 Piece table). The
// master never inspects Piece.Opaque; only Piece.Present matters.
func transpose(pieces [][]fabric.Piece, numPartitions int) [][]any {
	out := make([][]any, numPartitions)
	for _, row := range pieces {
		for d, piece := range row {
			if !piece.Present {
				continue
			}
			out[d] = append(out[d], piece.Opaque)
		}
	}
	return out
}

// joinPhase allocates destination partitions to workers by §4.1,
// issues one REPARTITION_JOIN RPC per worker in parallel, and
// concatenates the results in worker-index order. Since
// fabric.BalancedAssignment lays shares out in increasing destination
// index order, the offsets of each share correspond exactly to a
// contiguous destination-id range, so the final concatenation is
// indexed by destination partition id [0, numPartitions) as required.
func joinPhase(ctx context.Context, mc *Context, piecesPrime [][]any) ([]fabric.Partition, error) {
	numPartitions := len(piecesPrime)
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
			reply, err := callJoin(gctx, share.Worker, fabric.RepartitionJoinArgs{
				Pieces: piecesPrime[share.Offset : share.Offset+share.Count],
			})
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
		return nil, err
	}

	out := make([]fabric.Partition, 0, numPartitions)
	for _, partitions := range results {
		out = append(out, partitions...)
	}
	return out, nil
}
