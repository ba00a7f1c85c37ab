// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package fabric implements the master-side orchestration core of a
// distributed, in-memory parallel compute fabric: it resolves a
// declarative request tree into a flat set of worker-resident
// partitions, assigns work to workers with a balanced fan-out policy,
// and implements the repartition/coalesce shuffle primitives as a
// two-phase slice/join protocol.
//
// The package defines the data model (Partition, Request, TaskRecord)
// and the narrow external interfaces (WorkerClient, SerializedFunc,
// Cache) that the dispatcher in package master is built against.
// Transport, worker-side execution, and function serialization are
// intentionally left to the types that implement these interfaces;
// this package never inspects a partition's payload.
package fabric
