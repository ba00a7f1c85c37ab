// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

// A TaskRecord groups a contiguous-by-worker subset of a partition
// list so that the master can issue one batched RPC per worker and
// later scatter replies back to their original positions.
//
// Invariants (§3): IDs and Indices have equal length; Indices are
// pairwise distinct across all task records produced by one call to
// GroupByWorker; the concatenation of every record's Indices, across
// the returned slice, is a permutation of [0, len(partitions)).
type TaskRecord struct {
	Worker WorkerClient
	// IDs are the partition ids on Worker, in input order.
	IDs []string
	// Indices are the original indices, in the input partition list,
	// of the corresponding entries of IDs.
	Indices []int
}

// GroupByWorker reorders partitions by worker affinity, preserving a
// mapping back to original indices (§4.2). One TaskRecord is produced
// per distinct worker, in first-appearance order; within a record,
// IDs and Indices preserve the input order for that worker.
func GroupByWorker(partitions []Partition) []TaskRecord {
	order := make([]WorkerClient, 0)
	byWorker := make(map[WorkerClient]*TaskRecord)
	for i, p := range partitions {
		rec, ok := byWorker[p.Worker]
		if !ok {
			rec = &TaskRecord{Worker: p.Worker}
			byWorker[p.Worker] = rec
			order = append(order, p.Worker)
		}
		rec.IDs = append(rec.IDs, p.ID)
		rec.Indices = append(rec.Indices, i)
	}
	tasks := make([]TaskRecord, len(order))
	for i, w := range order {
		tasks[i] = *byWorker[w]
	}
	return tasks
}
