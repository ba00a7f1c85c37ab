// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package master

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/arborcompute/fabric"
)

// releasePartitions issues one RELEASE RPC per worker owning
// partitions, in parallel, and waits for all of them (§4.5 step 5,
// §5: "the handler only returns after the release barrier resolves").
// A failure aborts the whole release the same way a Phase 1/Phase 2
// failure aborts a shuffle: already-acknowledged releases are not
// undone (there is nothing to undo), but unacknowledged ones are
// simply left in flight when the errgroup context is canceled.
func releasePartitions(ctx context.Context, mc *Context, partitions []fabric.Partition) error {
	if len(partitions) == 0 {
		return nil
	}
	tasks := fabric.GroupByWorker(partitions)
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			release, err := mc.acquireRPC(gctx)
			if err != nil {
				return err
			}
			defer release()
			if err := callRelease(gctx, task.Worker, fabric.ReleaseArgs{IDs: task.IDs}); err != nil {
				return fabric.ErrRelease(task.Worker.Addr(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
