// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arborcompute/fabric"
)

func TestSerializedFuncIsZero(t *testing.T) {
	assert.True(t, fabric.SerializedFunc{}.IsZero())
	assert.False(t, fabric.SerializedFunc{Name: "f"}.IsZero())
	assert.False(t, fabric.SerializedFunc{Blob: []byte{1}}.IsZero())
}

func TestPartitionString(t *testing.T) {
	ws := workers(1)
	p := fabric.Partition{Worker: ws[0], ID: "p0"}
	assert.Contains(t, p.String(), "p0")
	assert.Contains(t, p.String(), ws[0].Addr())

	var zero fabric.Partition
	assert.Contains(t, zero.String(), "<nil>")
}

func TestPartitionIDs(t *testing.T) {
	ws := workers(1)
	partitions := []fabric.Partition{
		{Worker: ws[0], ID: "a"},
		{Worker: ws[0], ID: "b"},
	}
	assert.Equal(t, []string{"a", "b"}, fabric.IDs(partitions))
}
