// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"github.com/arborcompute/fabric"
)

// handleRepartition implements the repartition handler (§4.7): a
// two-phase shuffle by key function into req.NumPartitions. Phase 1
// ships the (still-serialized) partitionFunc to every worker holding
// an input partition so it can slice items by destination; Phase 2
// allocates destination partitions across workers by §4.1 and joins
// the transposed pieces.
//
// Guarantee: the returned list is indexed by destination partition id
// [0, req.NumPartitions).
func handleRepartition(ctx context.Context, mc *Context, req *fabric.Request) (Resolved, error) {
	subPartitions, err := resolvePartitions(ctx, mc, req.SubRequest)
	if err != nil {
		return Resolved{}, err
	}

	pieces, err := sliceFanout(ctx, mc, subPartitions, req.NumPartitions, req.PartitionFunc, nil)
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
