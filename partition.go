// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

import "fmt"

// A Partition is an opaque handle to a remote, worker-resident
// partition. It carries no data itself; the master composes handles
// but never inspects what they point to.
//
// A Partition is live from the moment it is returned by a worker
// until a RELEASE has been acknowledged for it. At any time, exactly
// one partition list is responsible for releasing a given live
// Partition.
type Partition struct {
	// Worker is the client for the worker that owns this partition.
	Worker WorkerClient
	// ID is the worker-assigned identifier for this partition. It is
	// unique within Worker but carries no meaning across workers.
	ID string
}

// String returns a debug representation of the partition. It does not
// dereference or describe the partition's contents.
func (p Partition) String() string {
	addr := "<nil>"
	if p.Worker != nil {
		addr = p.Worker.Addr()
	}
	return fmt.Sprintf("partition(%s@%s)", p.ID, addr)
}

// IDs returns the worker-assigned ids of partitions, in order.
func IDs(partitions []Partition) []string {
	ids := make([]string, len(partitions))
	for i, p := range partitions {
		ids[i] = p.ID
	}
	return ids
}
