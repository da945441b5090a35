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

// MatchResult describes one path that satisfied the rule set. Results
// are immutable once emitted; two results refer to the same entry when
// their Paths are equal.
type MatchResult struct {
	// Path is the OS path of the entry, joined from the root as it was
	// given to Walk.
	Path string

	// Rel is the slash-separated path relative to the root, "" when the
	// root itself matched.
	Rel string

	// Type is the entry's type as it was known when the match was
	// decided.
	Type EntryType

	// Depth is the traversal depth of the entry; the root is 0.
	Depth int

	// Meta is the entry's metadata, non-nil only if some rule forced
	// the fetch. A consumer that only needs paths pays no stat cost for
	// sets that never require metadata.
	Meta *Metadata

	// Rules are the leaf rules that affirmatively matched the entry.
	Rules []*Rule
}
