// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package fakeworker is an in-memory WorkerClient, playing the role
// the teacher's github.com/grailbio/bigmachine/testsystem plays for
// exec/bigmachine_test.go: a self-contained stand-in for a real
// worker cluster so that master's handlers can be exercised without a
// transport. Unlike the teacher's fake, which drives real bigmachine
// RPC plumbing against an in-process fake machine pool, this package
// interprets the fabric package's six RPCs directly against an
// in-memory partition store, since this spec places the transport and
// worker executor out of scope (SPEC_FULL.md §4).
package fakeworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/retry"

	"github.com/arborcompute/fabric"
)

// dialRetryPolicy bounds how ProcessRequest retries a simulated
// transport failure before giving up: an exponential backoff up to 5
// attempts, mirroring the teacher's retry.Policy around b.RetryCall in
// exec/bigmachine.go. This lives here, in the WorkerClient
// implementation's own call path, rather than in the master: the
// master's RPC layer performs no retries of its own (§4.9, §7).
var dialRetryPolicy = retry.MaxRetries(retry.Backoff(100*time.Millisecond, 2*time.Second, 2), 5)

// Creator materializes the items for one partition from the single
// argument createRDD assigned it.
type Creator func(arg any) []any

// MapFunc transforms one item.
type MapFunc func(item any) any

// ReduceFunc folds one partition's items into a single value.
type ReduceFunc func(items []any) any

// PartitionFunc routes one item to a destination index in [0, P).
type PartitionFunc func(item any) int

// Worker is an in-memory fabric.WorkerClient. Functions referenced by
// name in SerializedFunc.Name must be registered before a request
// that uses them is processed.
type Worker struct {
	addr string

	mu         sync.Mutex
	partitions map[string][]any
	released   map[string]int

	// flaky, when > 0, is the number of calls still to fail with a
	// simulated transport error before ProcessRequest's internal retry
	// loop lets one through. Set by SetFlaky.
	flaky int

	creators  map[string]Creator
	mapFuncs  map[string]MapFunc
	reduceFns map[string]ReduceFunc
	partFns   map[string]PartitionFunc
}

// New returns an empty Worker identified by addr.
func New(addr string) *Worker {
	return &Worker{
		addr:       addr,
		partitions: make(map[string][]any),
		released:   make(map[string]int),
		creators:   make(map[string]Creator),
		mapFuncs:   make(map[string]MapFunc),
		reduceFns:  make(map[string]ReduceFunc),
		partFns:    make(map[string]PartitionFunc),
	}
}

func (w *Worker) Addr() string { return w.addr }

// RegisterCreator, RegisterMap, RegisterReduce, and RegisterPartition
// install the Go closure backing a named SerializedFunc. A test (or
// the session layer not covered by this spec) is responsible for
// shipping the same name to every worker that needs it.
func (w *Worker) RegisterCreator(name string, fn Creator)         { w.creators[name] = fn }
func (w *Worker) RegisterMap(name string, fn MapFunc)             { w.mapFuncs[name] = fn }
func (w *Worker) RegisterReduce(name string, fn ReduceFunc)       { w.reduceFns[name] = fn }
func (w *Worker) RegisterPartition(name string, fn PartitionFunc) { w.partFns[name] = fn }

// Items returns a copy of a live partition's items, for test
// assertions. It panics if id is not live (released or never
// created), since that is always a test bug, not a runtime condition.
func (w *Worker) Items(id string) []any {
	w.mu.Lock()
	defer w.mu.Unlock()
	items, ok := w.partitions[id]
	if !ok {
		panic(fmt.Sprintf("fakeworker: %s: no such live partition %s", w.addr, id))
	}
	out := make([]any, len(items))
	copy(out, items)
	return out
}

// ReleaseCount returns how many times RELEASE has been acknowledged
// for id, for the §8 "release exactness" property.
func (w *Worker) ReleaseCount(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.released[id]
}

// LiveCount returns the number of partitions currently held by w,
// for tests that check a handler released everything it was supposed
// to without tracking individual ids.
func (w *Worker) LiveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.partitions)
}

// SetFlaky arms w to fail its next n calls to ProcessRequest with a
// simulated transport error, exercised by dialRetryPolicy's internal
// retry loop before a call is let through. Tests use this to exercise
// a WorkerClient's own retry path without a real flaky connection.
func (w *Worker) SetFlaky(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flaky = n
}

func (w *Worker) newID() string {
	return w.addr + "/" + uuid.NewString()
}

// ProcessRequest implements fabric.WorkerClient. It owns its own
// transport-retry policy (dialRetryPolicy): a simulated transport
// failure (armed via SetFlaky) is retried internally with backoff, and
// only a retries-exhausted transport error or a non-transport error
// ever reaches the caller, matching the master's expectation that it
// performs no retries of its own (§4.9, §7).
func (w *Worker) ProcessRequest(ctx context.Context, rpc fabric.RPC, payload any) (any, error) {
	for retries := 0; ; retries++ {
		reply, err := w.dispatch(rpc, payload)
		if err == nil || !fabric.IsTransportError(err) {
			return reply, err
		}
		if werr := retry.Wait(ctx, dialRetryPolicy, retries); werr != nil {
			return reply, err
		}
	}
}

// dispatch is the post-retry call path: a simulated transport failure
// (if armed) or the actual RPC handling.
func (w *Worker) dispatch(rpc fabric.RPC, payload any) (any, error) {
	w.mu.Lock()
	if w.flaky > 0 {
		w.flaky--
		w.mu.Unlock()
		return nil, errors.E(errors.Net, fmt.Errorf("fakeworker: %s: simulated transport failure", w.addr))
	}
	w.mu.Unlock()

	switch rpc {
	case fabric.RPCCreatePartition:
		return w.createPartition(payload.(fabric.CreatePartitionArgs))
	case fabric.RPCMap:
		return w.runMap(payload.(fabric.MapArgs))
	case fabric.RPCReduce:
		return w.runReduce(payload.(fabric.ReduceArgs))
	case fabric.RPCRepartitionSlice:
		return w.runSlice(payload.(fabric.RepartitionSliceArgs))
	case fabric.RPCRepartitionJoin:
		return w.runJoin(payload.(fabric.RepartitionJoinArgs))
	case fabric.RPCRelease:
		return w.runRelease(payload.(fabric.ReleaseArgs))
	default:
		return nil, fmt.Errorf("fakeworker: unknown rpc %q", rpc)
	}
}

func (w *Worker) createPartition(args fabric.CreatePartitionArgs) (fabric.CreatePartitionReply, error) {
	creator, ok := w.creators[args.Creator.Name]
	if !ok {
		return fabric.CreatePartitionReply{}, fmt.Errorf("fakeworker: no creator registered for %q", args.Creator.Name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, args.Count)
	for i := 0; i < args.Count; i++ {
		id := w.newID()
		w.partitions[id] = creator(args.Args[i])
		ids[i] = id
	}
	return fabric.CreatePartitionReply{IDs: ids}, nil
}

func (w *Worker) runMap(args fabric.MapArgs) (fabric.MapReply, error) {
	fn, ok := w.mapFuncs[args.Func.Name]
	if !ok {
		return fabric.MapReply{}, fmt.Errorf("fakeworker: no map func registered for %q", args.Func.Name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, len(args.IDs))
	for i, id := range args.IDs {
		items, ok := w.partitions[id]
		if !ok {
			return fabric.MapReply{}, fmt.Errorf("fakeworker: %s: no such live partition %s", w.addr, id)
		}
		out := make([]any, len(items))
		for j, it := range items {
			out[j] = fn(it)
		}
		newID := w.newID()
		w.partitions[newID] = out
		ids[i] = newID
	}
	return fabric.MapReply{IDs: ids}, nil
}

func (w *Worker) runReduce(args fabric.ReduceArgs) (fabric.ReduceReply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	values := make([]any, len(args.IDs))
	for i, id := range args.IDs {
		items, ok := w.partitions[id]
		if !ok {
			return fabric.ReduceReply{}, fmt.Errorf("fakeworker: %s: no such live partition %s", w.addr, id)
		}
		if args.Func.Name == "len" {
			values[i] = len(items)
			continue
		}
		fn, ok := w.reduceFns[args.Func.Name]
		if !ok {
			return fabric.ReduceReply{}, fmt.Errorf("fakeworker: no reduce func registered for %q", args.Func.Name)
		}
		values[i] = fn(items)
	}
	return fabric.ReduceReply{Values: values}, nil
}

func (w *Worker) runSlice(args fabric.RepartitionSliceArgs) (fabric.RepartitionSliceReply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	byRange := args.PartitionFunc.Name == "coalesceRangeSlicer"
	var partFn PartitionFunc
	if !byRange {
		fn, ok := w.partFns[args.PartitionFunc.Name]
		if !ok {
			return fabric.RepartitionSliceReply{}, fmt.Errorf("fakeworker: no partition func registered for %q", args.PartitionFunc.Name)
		}
		partFn = fn
	}

	pieces := make([][]fabric.Piece, len(args.IDs))
	for i, id := range args.IDs {
		items, ok := w.partitions[id]
		if !ok {
			return fabric.RepartitionSliceReply{}, fmt.Errorf("fakeworker: %s: no such live partition %s", w.addr, id)
		}
		row := make([]fabric.Piece, args.NumPartitions)
		if byRange {
			for _, r := range args.Args[i] {
				end := r.Offset + r.Length
				if r.Length == 0 {
					continue
				}
				row[r.DestPartition] = fabric.Piece{Present: true, Opaque: append([]any{}, items[r.Offset:end]...)}
			}
		} else {
			buckets := make([][]any, args.NumPartitions)
			for _, it := range items {
				d := partFn(it)
				buckets[d] = append(buckets[d], it)
			}
			for d, b := range buckets {
				if len(b) > 0 {
					row[d] = fabric.Piece{Present: true, Opaque: b}
				}
			}
		}
		pieces[i] = row
	}
	return fabric.RepartitionSliceReply{Pieces: pieces}, nil
}

func (w *Worker) runJoin(args fabric.RepartitionJoinArgs) (fabric.RepartitionJoinReply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, len(args.Pieces))
	for i, pieceList := range args.Pieces {
		var items []any
		for _, opaque := range pieceList {
			items = append(items, opaque.([]any)...)
		}
		id := w.newID()
		w.partitions[id] = items
		ids[i] = id
	}
	return fabric.RepartitionJoinReply{IDs: ids}, nil
}

func (w *Worker) runRelease(args fabric.ReleaseArgs) (fabric.ReleaseReply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range args.IDs {
		if _, ok := w.partitions[id]; !ok {
			return fabric.ReleaseReply{}, fmt.Errorf("fakeworker: %s: release of unknown or already-released partition %s", w.addr, id)
		}
		delete(w.partitions, id)
		w.released[id]++
	}
	return fabric.ReleaseReply{}, nil
}
