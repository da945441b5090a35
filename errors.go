/* Copyright 2026 The Bazel Authors. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

   http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pathmap

import (
	"errors"
	"fmt"
)

// errMetadataMissing is returned through MetadataError when a direct
// evaluation needs metadata the candidate does not carry.
var errMetadataMissing = errors.New("metadata not provided")

// SpecError reports an invalid rule or rule-set configuration. It is
// returned at construction time, never during a walk.
type SpecError struct {
	Msg string
	Err error
}

func (e *SpecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pathmap: %s: %v", e.Msg, e.Err)
	}
	return "pathmap: " + e.Msg
}

func (e *SpecError) Unwrap() error { return e.Err }

func specErrorf(format string, args ...interface{}) *SpecError {
	return &SpecError{Msg: fmt.Sprintf(format, args...)}
}

// RootNotFoundError reports a root path that could not be used to start
// a walk. The remaining roots are still walked.
type RootNotFoundError struct {
	Path string
	Err  error
}

func (e *RootNotFoundError) Error() string {
	return fmt.Sprintf("root path %s: %v", e.Path, e.Err)
}

func (e *RootNotFoundError) Unwrap() error { return e.Err }

// ListingError reports a directory that could not be listed. The
// subtree is skipped; the walk continues.
type ListingError struct {
	Path string
	Err  error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %s: %v", e.Path, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// MetadataError reports a failed metadata fetch for a single entry,
// including entries that vanished between listing and stat. The entry
// is skipped; the walk continues.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("stat %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }
