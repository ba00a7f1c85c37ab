// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

import "context"

// RPC names the six tagged request types a WorkerClient understands,
// mirroring the teacher's "Worker.Run", "Worker.Compile" method-name
// dispatch (exec/bigmachine.go's m.RetryCall(ctx, "Worker.Run", req,
// &reply)) but fixed to the operations this spec's master issues.
type RPC string

const (
	RPCCreatePartition  RPC = "CREATE_PARTITION"
	RPCMap              RPC = "MAP"
	RPCReduce           RPC = "REDUCE"
	RPCRepartitionSlice RPC = "REPARTITION_SLICE"
	RPCRepartitionJoin  RPC = "REPARTITION_JOIN"
	RPCRelease          RPC = "RELEASE"
)

// WorkerClient is a typed request channel to one worker: it submits a
// single tagged request and awaits a reply. This is the only
// interface through which the master talks to a worker; transport
// (framing, dialing, retry policy) is entirely the implementation's
// concern (§1, §6).
//
// Implementations must be safe for concurrent use: the dispatcher may
// have many handlers in flight, each submitting requests to the same
// WorkerClient without coordination (§5).
type WorkerClient interface {
	// Addr identifies the worker for logs, traces, and grouping. It
	// need not be a network address; it only has to be stable and
	// unique among the workers in one cluster.
	Addr() string

	// ProcessRequest submits one tagged RPC and returns its reply.
	// The concrete type of the reply depends on rpc; see the
	// Create/Map/Reduce/Slice/Join/Release request and reply types
	// below.
	ProcessRequest(ctx context.Context, rpc RPC, payload any) (any, error)
}

// CreatePartitionArgs is the CREATE_PARTITION payload.
type CreatePartitionArgs struct {
	Type    string
	Creator SerializedFunc
	Count   int
	Args    []any
}

// CreatePartitionReply is the CREATE_PARTITION reply: Count new
// partition ids, in the same order as the corresponding Args slice.
type CreatePartitionReply struct {
	IDs []string
}

// MapArgs is the MAP payload.
type MapArgs struct {
	Func SerializedFunc
	IDs  []string
}

// MapReply is the MAP reply: one new id per input id, same order.
type MapReply struct {
	IDs []string
}

// ReduceArgs is the REDUCE payload.
type ReduceArgs struct {
	Func SerializedFunc
	IDs  []string
}

// ReduceReply is the REDUCE reply: one value per input id, same order.
type ReduceReply struct {
	Values []any
}

// Piece is a per-(source, destination) fragment produced by a
// shuffle's slice phase. Its transport form (a local file name, or a
// remote (rdd-id, host, port) triple) is entirely opaque to the
// master: only whether a Piece is present matters during transpose.
type Piece struct {
	Present bool
	Opaque  any
}

// RepartitionSliceArgs is the REPARTITION_SLICE payload. Args is
// empty for Repartition (the worker derives routing purely from
// PartitionFunc applied to each item) and parallel to IDs for
// Coalesce (one contiguous-range plan per input partition).
type RepartitionSliceArgs struct {
	IDs           []string
	NumPartitions int
	PartitionFunc SerializedFunc
	Args          [][]CoalesceRange
}

// CoalesceRange is one [destPartition, offset, length) assignment
// within a single input partition's contiguous data, as constructed
// by the coalesce handler's plan phase (§4.8).
type CoalesceRange struct {
	DestPartition int
	Offset        int
	Length        int
}

// RepartitionSliceReply is the REPARTITION_SLICE reply: for each
// input id, a length-NumPartitions array of pieces (Piece.Present
// false standing in for the source's "null" meaning empty slice).
type RepartitionSliceReply struct {
	Pieces [][]Piece
}

// RepartitionJoinArgs is the REPARTITION_JOIN payload: for each
// destination partition assigned to the receiving worker, the
// ordered list of pieces to join, already filtered of absent pieces.
type RepartitionJoinArgs struct {
	Pieces [][]any
}

// RepartitionJoinReply is the REPARTITION_JOIN reply: one new
// partition id per outer entry of the request's Pieces.
type RepartitionJoinReply struct {
	IDs []string
}

// ReleaseArgs is the RELEASE payload: the ids to release on one
// worker.
type ReleaseArgs struct {
	IDs []string
}

// ReleaseReply acknowledges a RELEASE.
type ReleaseReply struct{}
