// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborcompute/fabric"
	"github.com/arborcompute/fabric/master"
)

func TestHandleReduceSumsPartitionsThenFinal(t *testing.T) {
	clients, raw := newWorkers("w0", "w1")
	for _, w := range raw {
		w.RegisterCreator("fromSlice", func(arg any) []any {
			vs := arg.([]int)
			out := make([]any, len(vs))
			for i, v := range vs {
				out[i] = v
			}
			return out
		})
		w.RegisterReduce("sum", func(items []any) any {
			total := 0
			for _, it := range items {
				total += it.(int)
			}
			return total
		})
	}

	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	create := createRequest(nil, [][]int{{1, 2, 3}, {4, 5}})

	reduceReq := &fabric.Request{
		Kind:                fabric.KindReduce,
		SubRequest:          create,
		ReducePartitionFunc: fabric.SerializedFunc{Name: "sum"},
		ReduceFinalFunc: func(values []any) any {
			total := 0
			for _, v := range values {
				total += v.(int)
			}
			return total
		},
	}

	res, err := mc.ProcessRequest(context.Background(), reduceReq)
	require.NoError(t, err)
	assert.True(t, res.IsValue)
	assert.Equal(t, 15, res.Value)
}

func TestHandleReduceReleasesInputs(t *testing.T) {
	clients, raw := newWorkers("w0")
	raw[0].RegisterCreator("fromSlice", func(arg any) []any {
		vs := arg.([]int)
		out := make([]any, len(vs))
		for i, v := range vs {
			out[i] = v
		}
		return out
	})
	raw[0].RegisterReduce("len", func(items []any) any { return len(items) })

	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	create := createRequest(nil, [][]int{{1, 2}})

	reduceReq := &fabric.Request{
		Kind:                fabric.KindReduce,
		SubRequest:          create,
		ReducePartitionFunc: fabric.SerializedFunc{Name: "len"},
		ReduceFinalFunc:     func(values []any) any { return values },
	}
	_, err := mc.ProcessRequest(context.Background(), reduceReq)
	require.NoError(t, err)

	assert.Equal(t, 0, raw[0].LiveCount(), "reduce must release every partition it resolved")
}
