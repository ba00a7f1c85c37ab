// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fakeworker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborcompute/fabric"
	"github.com/arborcompute/fabric/internal/fakeworker"
)

func TestProcessRequestRetriesSimulatedTransportFailures(t *testing.T) {
	w := fakeworker.New("w0")
	w.RegisterCreator("one", func(arg any) []any { return []any{arg} })
	w.SetFlaky(2)

	reply, err := w.ProcessRequest(context.Background(), fabric.RPCCreatePartition, fabric.CreatePartitionArgs{
		Creator: fabric.SerializedFunc{Name: "one"},
		Count:   1,
		Args:    []any{"x"},
	})
	require.NoError(t, err)
	assert.Len(t, reply.(fabric.CreatePartitionReply).IDs, 1)
}

func TestProcessRequestGivesUpAfterRetriesExhausted(t *testing.T) {
	w := fakeworker.New("w0")
	w.RegisterCreator("one", func(arg any) []any { return []any{arg} })
	w.SetFlaky(100)

	_, err := w.ProcessRequest(context.Background(), fabric.RPCCreatePartition, fabric.CreatePartitionArgs{
		Creator: fabric.SerializedFunc{Name: "one"},
		Count:   1,
		Args:    []any{"x"},
	})
	require.Error(t, err)
	assert.True(t, fabric.IsTransportError(err))
}
