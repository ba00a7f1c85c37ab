// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

// RequestKind tags a Request with the handler it should be dispatched
// to. Requests are a sum type over these six kinds; see
// master.Dispatcher for the kind-to-handler registry.
type RequestKind string

// The six request kinds named in the spec. Non-leaf kinds carry
// SubRequest; leaf kinds (CreateRDD, LoadCache) carry only parameters.
const (
	KindCreateRDD   RequestKind = "createRDD"
	KindMap         RequestKind = "map"
	KindReduce      RequestKind = "reduce"
	KindRepartition RequestKind = "repartition"
	KindCoalesce    RequestKind = "coalesce"
	KindLoadCache   RequestKind = "loadCache"
)

// A Request is a recursively nested, tagged description of a lineage
// of partitioned datasets and transformations. Requests are values,
// not live objects: resolving the same Request twice produces two
// independent sets of fresh partitions, except for KindLoadCache,
// whose resolution always returns the same cache-owned partitions and
// must never be released by the caller.
//
// Only the fields relevant to Kind are meaningful; this mirrors the
// teacher's treatment of bigslice.Invocation as a flat bag of
// optional, kind-dependent arguments rather than a handler-specific
// struct hierarchy, since the dispatcher looks requests up by a single
// tag (§9, "request tree as tagged variant").
type Request struct {
	Kind RequestKind

	// SubRequest is the input to every non-leaf kind.
	SubRequest *Request

	// NumPartitions is used by CreateRDD, Repartition, and Coalesce.
	// When zero for CreateRDD it defaults to the worker count (§4.1).
	NumPartitions int

	// Type, Creator, and Args are used by CreateRDD: Type tags the
	// kind of partition data being created, Creator is shipped to
	// workers to materialize each partition, and Args supplies one
	// argument per partition, in final ordering.
	Type    string
	Creator SerializedFunc
	Args    []any

	// Func is the per-partition transform shipped to workers by Map.
	Func SerializedFunc

	// PartitionFunc is used by Repartition: it maps an item to a
	// destination index in [0, NumPartitions), evaluated on the
	// worker during the slice phase. The master never evaluates it
	// itself; items stay opaque to the master throughout (§3).
	PartitionFunc SerializedFunc

	// ReducePartitionFunc and ReduceFinalFunc are used by Reduce: the
	// former is shipped to workers and reduces one partition to a
	// single value; the latter is a plain Go closure run locally on the
	// master, folding the per-partition values into one result.
	ReducePartitionFunc SerializedFunc
	ReduceFinalFunc     func(values []any) any

	// CacheKey identifies the cache-owned partition set returned by
	// LoadCache (§3, §4: the cache owns these handles; they must not
	// be released by any consumer).
	CacheKey string
}
