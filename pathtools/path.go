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

// Package pathtools provides operations on slash-separated relative
// paths that respect path component boundaries.
package pathtools

import "strings"

// HasPrefix returns whether the slash-separated path p starts with
// prefix, considering path boundaries. The empty string is a prefix of
// everything.
func HasPrefix(p, prefix string) bool {
	return prefix == "" || p == prefix || strings.HasPrefix(p, prefix+"/")
}

// TrimPrefix returns p without the leading prefix, considering path
// boundaries. If p does not start with prefix, p is returned
// unchanged.
func TrimPrefix(p, prefix string) string {
	if prefix == "" {
		return p
	}
	if p == prefix {
		return ""
	}
	return strings.TrimPrefix(p, prefix+"/")
}

// Depth returns the number of components in the slash-separated
// relative path p. The empty path has depth 0.
func Depth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}
