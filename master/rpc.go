// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"
	"fmt"

	"github.com/arborcompute/fabric"
)

// submit issues one tagged RPC against w and returns its reply
// verbatim. Any failure, transport or otherwise, surfaces to the
// caller on the first attempt: §4.9 and §7 give this layer no local
// recovery policy ("any failure aborts the in-flight handler"). A
// WorkerClient implementation that wants retry semantics owns that
// policy itself, in its own dial/call path (SPEC_FULL.md §3); see
// internal/fakeworker for the retrying test double.
func submit(ctx context.Context, w fabric.WorkerClient, rpc fabric.RPC, payload any) (any, error) {
	return w.ProcessRequest(ctx, rpc, payload)
}

// callCreate issues a CREATE_PARTITION RPC and type-asserts the reply,
// turning a malformed reply into a protocol error (§7).
func callCreate(ctx context.Context, w fabric.WorkerClient, args fabric.CreatePartitionArgs) (fabric.CreatePartitionReply, error) {
	raw, err := submit(ctx, w, fabric.RPCCreatePartition, args)
	if err != nil {
		return fabric.CreatePartitionReply{}, err
	}
	reply, ok := raw.(fabric.CreatePartitionReply)
	if !ok {
		return fabric.CreatePartitionReply{}, fabric.NewProtocolError("CREATE_PARTITION: unexpected reply type %T", raw)
	}
	if len(reply.IDs) != args.Count {
		return fabric.CreatePartitionReply{}, fabric.NewProtocolError("CREATE_PARTITION: got %d ids, want %d", len(reply.IDs), args.Count)
	}
	return reply, nil
}

func callMap(ctx context.Context, w fabric.WorkerClient, args fabric.MapArgs) (fabric.MapReply, error) {
	raw, err := submit(ctx, w, fabric.RPCMap, args)
	if err != nil {
		return fabric.MapReply{}, err
	}
	reply, ok := raw.(fabric.MapReply)
	if !ok {
		return fabric.MapReply{}, fabric.NewProtocolError("MAP: unexpected reply type %T", raw)
	}
	if len(reply.IDs) != len(args.IDs) {
		return fabric.MapReply{}, fabric.NewProtocolError("MAP: got %d ids, want %d", len(reply.IDs), len(args.IDs))
	}
	return reply, nil
}

func callReduce(ctx context.Context, w fabric.WorkerClient, args fabric.ReduceArgs) (fabric.ReduceReply, error) {
	raw, err := submit(ctx, w, fabric.RPCReduce, args)
	if err != nil {
		return fabric.ReduceReply{}, err
	}
	reply, ok := raw.(fabric.ReduceReply)
	if !ok {
		return fabric.ReduceReply{}, fabric.NewProtocolError("REDUCE: unexpected reply type %T", raw)
	}
	if len(reply.Values) != len(args.IDs) {
		return fabric.ReduceReply{}, fabric.NewProtocolError("REDUCE: got %d values, want %d", len(reply.Values), len(args.IDs))
	}
	return reply, nil
}

func callSlice(ctx context.Context, w fabric.WorkerClient, args fabric.RepartitionSliceArgs) (fabric.RepartitionSliceReply, error) {
	raw, err := submit(ctx, w, fabric.RPCRepartitionSlice, args)
	if err != nil {
		return fabric.RepartitionSliceReply{}, err
	}
	reply, ok := raw.(fabric.RepartitionSliceReply)
	if !ok {
		return fabric.RepartitionSliceReply{}, fabric.NewProtocolError("REPARTITION_SLICE: unexpected reply type %T", raw)
	}
	if len(reply.Pieces) != len(args.IDs) {
		return fabric.RepartitionSliceReply{}, fabric.NewProtocolError("REPARTITION_SLICE: got %d piece rows, want %d", len(reply.Pieces), len(args.IDs))
	}
	for i, row := range reply.Pieces {
		if len(row) != args.NumPartitions {
			return fabric.RepartitionSliceReply{}, fabric.NewProtocolError("REPARTITION_SLICE: piece row %d has %d entries, want %d", i, len(row), args.NumPartitions)
		}
	}
	return reply, nil
}

func callJoin(ctx context.Context, w fabric.WorkerClient, args fabric.RepartitionJoinArgs) (fabric.RepartitionJoinReply, error) {
	raw, err := submit(ctx, w, fabric.RPCRepartitionJoin, args)
	if err != nil {
		return fabric.RepartitionJoinReply{}, err
	}
	reply, ok := raw.(fabric.RepartitionJoinReply)
	if !ok {
		return fabric.RepartitionJoinReply{}, fabric.NewProtocolError("REPARTITION_JOIN: unexpected reply type %T", raw)
	}
	if len(reply.IDs) != len(args.Pieces) {
		return fabric.RepartitionJoinReply{}, fabric.NewProtocolError("REPARTITION_JOIN: got %d ids, want %d", len(reply.IDs), len(args.Pieces))
	}
	return reply, nil
}

func callRelease(ctx context.Context, w fabric.WorkerClient, args fabric.ReleaseArgs) error {
	raw, err := submit(ctx, w, fabric.RPCRelease, args)
	if err != nil {
		return err
	}
	if _, ok := raw.(fabric.ReleaseReply); !ok {
		return fabric.NewProtocolError("RELEASE: unexpected reply type %T", raw)
	}
	return nil
}

// assertf returns an error built from format and args when cond is
// false, and nil otherwise.
func assertf(cond bool, format string, args ...any) error {
	if !cond {
		return fmt.Errorf(format, args...)
	}
	return nil
}
