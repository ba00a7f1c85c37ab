// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package fabric

// SerializedFunc is an opaque, shippable closure. The master treats
// it as a boxed blob: it is carried in Request and RPC payload fields
// and handed to workers unevaluated, except where a handler must
// apply it locally (Reduce's ReduceFinalFunc, which is a plain Go
// closure rather than a SerializedFunc for exactly this reason).
//
// An implementation must provide a serializer that captures a
// closure's free variables on the submitting side and a deserializer
// that is the inverse of it on the worker. Both live outside this
// module's scope (§1: "the function-serialization mechanism that
// ships user code to workers"); SerializedFunc only fixes the shape
// the master passes around.
type SerializedFunc struct {
	// Name is a human-readable label for logs and traces; it carries
	// no semantic weight.
	Name string
	// Blob is the serialized closure body, opaque to the master.
	Blob []byte
}

// IsZero reports whether f carries no function at all (the field was
// left unset on a Request that doesn't need it for its kind).
func (f SerializedFunc) IsZero() bool {
	return f.Name == "" && f.Blob == nil
}
