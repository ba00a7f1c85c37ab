// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

// Share is one worker's balanced allocation of a fixed count (of
// partitions to create, or of destination partitions to join) under
// the §4.1 policy.
type Share struct {
	Worker WorkerClient
	// Count is the number of items assigned to Worker.
	Count int
	// Offset is the starting index, within the original ordered
	// count, of this worker's items. Offset+Count-1 is the last index
	// this worker owns.
	Offset int
}

// BalancedAssignment computes the §4.1 balanced round-robin
// assignment of count items across workers. Workers with a zero
// share are omitted from the result. When count is zero the result is
// empty and no worker is assigned anything (§9 open question:
// numPartitions == 0 is treated as valid input, not an error).
//
// Given rest = count mod len(workers) and each = (count - rest) /
// len(workers), worker i is assigned each+1 items if i < rest, else
// each; items are laid out in worker-index order, worker 0's share
// first.
func BalancedAssignment(workers []WorkerClient, count int) []Share {
	if len(workers) == 0 || count == 0 {
		return nil
	}
	rest := count % len(workers)
	each := (count - rest) / len(workers)

	shares := make([]Share, 0, len(workers))
	offset := 0
	for i, w := range workers {
		n := each
		if i < rest {
			n++
		}
		if n == 0 {
			continue
		}
		shares = append(shares, Share{Worker: w, Count: n, Offset: offset})
		offset += n
	}
	return shares
}
