// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// handleCoalesce implements the coalesce handler (§4.8): a two-phase
// shuffle by contiguous slicing into req.NumPartitions, preserving
// order. A preflight REDUCE pass counts each input partition, a plan
// is constructed from those counts, and the plan drives the same
// slice/transpose/join machinery repartition uses.
//
// Guarantee: destination partition d's contents equal the slice
// [d*each + min(d,rest), (d+1)*each + min(d+1,rest)) of the
// concatenation of inputs in original order.
func handleCoalesce(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	subPartitions, err := resolvePartitions(ctx, mc, req.SubRequest)
	if err != nil {
		return Resolved{}, err
	}

	counts, err := countPartitions(ctx, mc, subPartitions)
	if err != nil {
		return Resolved{}, err
	}

	plan := coalescePlan(counts, req.NumPartitions)

	pieces, err := sliceFanout(ctx, mc, subPartitions, req.NumPartitions, coalesceRangeSlicer, plan)
	if err != nil {
		return Resolved{}, err
	}

	if err := releaseIfOwned(ctx, mc, req.SubRequest, subPartitions); err != nil {
		return Resolved{}, err
	}

	piecesPrime := transpose(pieces, req.NumPartitions)
	out, err := joinPhase(ctx, mc, piecesPrime)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Partitions: out}, nil
}

// coalesceRangeSlicer is the well-known slicer shipped with every
// coalesce REPARTITION_SLICE request: unlike repartition's
// user-supplied key function, the worker-side behavior here is fully
// determined by the per-source CoalesceRange plan in Args, so this is
// a fixed marker rather than a user-serialized closure (§4.8:
// "partitionFunc: serializer(data, arg -> length-P array ...)").
var coalesceRangeSlicer = fabric.SerializedFunc{Name: "coalesceRangeSlicer"}

// countPartitions issues a REDUCE RPC per worker whose reducer is the
// length of each input partition (§4.8 "preflight counting"),
// returning counts in original subPartitions order.
func countPartitions(ctx context.Context, mc *Context, subPartitions []fabric.Partition) ([]int, error) {
	tasks := fabric.GroupByWorker(subPartitions)
	counts := make([]int, len(subPartitions))
	lengthFunc := fabric.SerializedFunc{Name: "len"}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			reply, err := callReduce(gctx, task.Worker, fabric.ReduceArgs{Func: lengthFunc, IDs: task.IDs})
			if err != nil {
				return err
			}
			for j, idx := range task.Indices {
				n, err := asInt(reply.Values[j])
				if err != nil {
					return fabric.NewProtocolError("REDUCE(len): partition %d: %v", idx, err)
				}
				counts[idx] = n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, assertf(false, "expected an integer length, got %T", v)
	}
}

// coalescePlan walks input partitions in order and assigns
// contiguous ranges of each to destination partitions so that
// destination d ends up with each+(1 if d<rest else 0) elements,
// where rest = total mod numPartitions and each = (total-rest)/numPartitions
// (§4.8 "plan construction"). The result has one entry per input
// partition, in the same order as counts.
func coalescePlan(counts []int, numPartitions int) [][]fabric.CoalesceRange {
	plan := make([][]fabric.CoalesceRange, len(counts))
	if numPartitions == 0 {
		return plan
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	rest := total % numPartitions
	each := (total - rest) / numPartitions

	quota := func(dest int) int {
		n := each
		if dest < rest {
			n++
		}
		return n
	}

	nextDest := 0
	need := quota(0)
	for i, currentCount := range counts {
		currentIndex := 0
		for currentCount > 0 {
			m := need
			if currentCount < m {
				m = currentCount
			}
			plan[i] = append(plan[i], fabric.CoalesceRange{
				DestPartition: nextDest,
				Offset:        currentIndex,
				Length:        m,
			})
			need -= m
			currentCount -= m
			currentIndex += m
			if need == 0 && nextDest < numPartitions-1 {
				nextDest++
				need = quota(nextDest)
			}
		}
	}
	return plan
}
