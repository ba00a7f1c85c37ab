// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package tracing provides request-scoped correlation ids so that
// concurrently in-flight handlers (spec §5) are distinguishable in
// logs and status lines, supplementing the bare functional
// description in spec.md with the observability texture the teacher
// carries via status groups and per-task status lines.
package tracing

import "github.com/google/uuid"

// ID is a request-scoped correlation id.
type ID uuid.UUID

// New returns a fresh ID.
func New() ID {
	return ID(uuid.New())
}

// String returns a short, log-friendly form: the first 8 hex
// characters are enough to disambiguate concurrently printed lines
// without cluttering them.
func (id ID) String() string {
	s := uuid.UUID(id).String()
	return s[:8]
}
