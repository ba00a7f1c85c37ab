// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// fatalKind matches protocol errors: malformed replies, or a length
// mismatch between a request's ids and a reply's results. These are
// never locally recovered; they abort the in-flight handler
// (exec/bigmachine.go's fatalErr = errors.E(errors.Fatal) idiom).
var fatalKind = errors.E(errors.Fatal)

// IsProtocolError reports whether err was raised for a malformed
// reply or a length mismatch (§7).
func IsProtocolError(err error) bool {
	return errors.Match(fatalKind, err)
}

// IsTransportError reports whether err originated in a WorkerClient's
// transport rather than in the master's planning logic (§7). A
// WorkerClient implementation is expected to wrap its own connection
// failures with errors.E(errors.Net, ...) or errors.E(errors.Unavailable, ...)
// so that callers here can tell a flaky worker apart from a protocol
// violation.
func IsTransportError(err error) bool {
	return errors.Is(errors.Net, err) || errors.Is(errors.Unavailable, err)
}

// NewProtocolError constructs an error from format/args as a fatal
// protocol error, matching IsProtocolError.
func NewProtocolError(format string, args ...any) error {
	return errors.E(errors.Fatal, fmt.Errorf(format, args...))
}

// ErrRelease wraps an error encountered while releasing partitions
// (the §9 open question: release failures are not otherwise
// distinguished from pipeline failures, but this lets callers and
// logs identify them after the fact without changing the control
// flow that still aborts the handler either way).
func ErrRelease(worker string, err error) error {
	return errors.E(errors.Fatal, fmt.Errorf("release on %s: %w", worker, err))
}
