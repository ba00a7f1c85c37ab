// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborcompute/fabric"
)

// workerStub is the minimal fabric.WorkerClient used by tests that only
// care about assignment and grouping, never actual RPCs.
type workerStub rune

func (w workerStub) Addr() string { return string(rune(w)) }
func (w workerStub) ProcessRequest(_ context.Context, _ fabric.RPC, _ any) (any, error) {
	panic("workerStub does not process requests")
}

func workers(n int) []fabric.WorkerClient {
	out := make([]fabric.WorkerClient, n)
	for i := range out {
		out[i] = workerStub(rune('a' + i))
	}
	return out
}

func TestBalancedAssignmentEvenSplit(t *testing.T) {
	ws := workers(4)
	shares := fabric.BalancedAssignment(ws, 8)
	require.Len(t, shares, 4)
	total := 0
	for i, s := range shares {
		assert.Equal(t, 2, s.Count)
		assert.Equal(t, ws[i], s.Worker)
		total += s.Count
	}
	assert.Equal(t, 8, total)
}

func TestBalancedAssignmentRemainder(t *testing.T) {
	ws := workers(3)
	shares := fabric.BalancedAssignment(ws, 7)
	require.Len(t, shares, 3)
	// rest = 7 % 3 = 1, each = 2: worker 0 gets 3, workers 1 and 2 get 2.
	assert.Equal(t, 3, shares[0].Count)
	assert.Equal(t, 2, shares[1].Count)
	assert.Equal(t, 2, shares[2].Count)

	offset := 0
	for _, s := range shares {
		assert.Equal(t, offset, s.Offset)
		offset += s.Count
	}
	assert.Equal(t, 7, offset)
}

func TestBalancedAssignmentSkipsZeroShares(t *testing.T) {
	ws := workers(5)
	shares := fabric.BalancedAssignment(ws, 2)
	require.Len(t, shares, 2)
	assert.Equal(t, ws[0], shares[0].Worker)
	assert.Equal(t, ws[1], shares[1].Worker)
}

func TestBalancedAssignmentZeroCount(t *testing.T) {
	shares := fabric.BalancedAssignment(workers(3), 0)
	assert.Nil(t, shares)
}

func TestBalancedAssignmentNoWorkers(t *testing.T) {
	shares := fabric.BalancedAssignment(nil, 5)
	assert.Nil(t, shares)
}
