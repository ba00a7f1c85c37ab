// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborcompute/fabric"
)

func TestMemCacheStoreLoad(t *testing.T) {
	c := fabric.NewMemCache()
	ws := workers(1)
	want := []fabric.Partition{{Worker: ws[0], ID: "p0"}, {Worker: ws[0], ID: "p1"}}

	c.Store("k", want)
	got, err := c.Load("k")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemCacheLoadUnknownKey(t *testing.T) {
	c := fabric.NewMemCache()
	_, err := c.Load("missing")
	assert.Error(t, err)
}

func TestMemCacheLoadReturnsACopy(t *testing.T) {
	c := fabric.NewMemCache()
	ws := workers(1)
	original := []fabric.Partition{{Worker: ws[0], ID: "p0"}}
	c.Store("k", original)

	got, err := c.Load("k")
	require.NoError(t, err)
	got[0].ID = "mutated"

	again, err := c.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "p0", again[0].ID)
}
