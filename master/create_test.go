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
	"github.com/arborcompute/fabric/internal/fakeworker"
	"github.com/arborcompute/fabric/master"
)

func newWorkers(addrs ...string) ([]fabric.WorkerClient, []*fakeworker.Worker) {
	clients := make([]fabric.WorkerClient, len(addrs))
	raw := make([]*fakeworker.Worker, len(addrs))
	for i, a := range addrs {
		w := fakeworker.New(a)
		clients[i] = w
		raw[i] = w
	}
	return clients, raw
}

func TestHandleCreateBalancedAndOrdered(t *testing.T) {
	clients, raw := newWorkers("w0", "w1", "w2")
	for _, w := range raw {
		w.RegisterCreator("double", func(arg any) []any { return []any{arg.(int) * 2} })
	}

	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	req := &fabric.Request{
		Kind:          fabric.KindCreateRDD,
		NumPartitions: 7,
		Type:          "ints",
		Creator:       fabric.SerializedFunc{Name: "double"},
		Args:          []any{0, 1, 2, 3, 4, 5, 6},
	}

	res, err := mc.ProcessRequest(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Partitions, 7)

	for i, p := range res.Partitions {
		items := p.Worker.(*fakeworker.Worker).Items(p.ID)
		require.Len(t, items, 1)
		assert.Equal(t, i*2, items[0])
	}
}

func TestHandleCreateDefaultsNumPartitionsToWorkerCount(t *testing.T) {
	clients, raw := newWorkers("w0", "w1")
	for _, w := range raw {
		w.RegisterCreator("id", func(arg any) []any { return []any{arg} })
	}
	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	req := &fabric.Request{
		Kind:    fabric.KindCreateRDD,
		Type:    "x",
		Creator: fabric.SerializedFunc{Name: "id"},
		Args:    []any{10, 20},
	}
	res, err := mc.ProcessRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Partitions, 2)
}

func TestHandleCreateMismatchedArgsIsAnError(t *testing.T) {
	clients, _ := newWorkers("w0")
	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	req := &fabric.Request{
		Kind:          fabric.KindCreateRDD,
		NumPartitions: 3,
		Args:          []any{1, 2},
	}
	_, err := mc.ProcessRequest(context.Background(), req)
	assert.Error(t, err)
}
