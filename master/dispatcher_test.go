// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master_test

import (
	"context"
	"testing"

	"github.com/grailbio/bigslice/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborcompute/fabric"
	"github.com/arborcompute/fabric/master"
)

func TestProcessRequestNilRequest(t *testing.T) {
	mc := master.NewContext(master.NewDispatcher(), nil, fabric.NewMemCache())
	_, err := mc.ProcessRequest(context.Background(), nil)
	assert.Error(t, err)
}

func TestProcessRequestUnknownKind(t *testing.T) {
	mc := master.NewContext(master.NewDispatcher(), nil, fabric.NewMemCache())
	_, err := mc.ProcessRequest(context.Background(), &fabric.Request{Kind: "bogus"})
	assert.Error(t, err)
}

func TestProcessRequestLoadCacheReturnsCachedPartitions(t *testing.T) {
	clients, _ := newWorkers("w0")
	cache := fabric.NewMemCache()
	mc := master.NewContext(master.NewDispatcher(), clients, cache)

	want := []fabric.Partition{{Worker: clients[0], ID: "cached-0"}}
	cache.Store("k", want)

	res, err := mc.ProcessRequest(context.Background(), &fabric.Request{Kind: fabric.KindLoadCache, CacheKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, want, res.Partitions)
}

func TestProcessRequestLoadCacheUnknownKey(t *testing.T) {
	clients, _ := newWorkers("w0")
	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())
	_, err := mc.ProcessRequest(context.Background(), &fabric.Request{Kind: fabric.KindLoadCache, CacheKey: "missing"})
	assert.Error(t, err)
}

func TestProcessRequestRecordsStats(t *testing.T) {
	clients, workers := newWorkers("w0")
	workers[0].RegisterCreator("one", func(arg any) []any { return []any{arg} })
	mc := master.NewContext(master.NewDispatcher(), clients, fabric.NewMemCache())

	_, err := mc.ProcessRequest(context.Background(), &fabric.Request{
		Kind:          fabric.KindCreateRDD,
		NumPartitions: 1,
		Creator:       fabric.SerializedFunc{Name: "one"},
		Args:          []any{"x"},
	})
	require.NoError(t, err)

	values := make(stats.Values)
	mc.Stats.AddAll(values)
	assert.EqualValues(t, 1, values["requests.createRDD"])
	assert.EqualValues(t, 1, values["partitions.createRDD"])
}

func TestDispatcherRegisterOverridesHandler(t *testing.T) {
	d := master.NewDispatcher()
	called := false
	d.Register(fabric.KindCreateRDD, func(_ context.Context, _ *master.Context, _ *fabric.Request) (master.Resolved, error) {
		called = true
		return master.Resolved{}, nil
	})
	mc := master.NewContext(d, nil, fabric.NewMemCache())
	_, err := mc.ProcessRequest(context.Background(), &fabric.Request{Kind: fabric.KindCreateRDD})
	require.NoError(t, err)
	assert.True(t, called)
}
