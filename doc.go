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

// Package pathmap walks directory trees and yields paths that satisfy a
// set of rules.
//
// Rules are predicates over path attributes: base-name globs, relative
// path globs, entry types, traversal depth, size, and modification
// time. Rules compose into boolean sets with And, Or, and Not. Sets may
// also be built from a declarative Spec, which can be loaded from YAML
// or TOML files.
//
// The walker prunes subtrees that provably cannot contain a match, and
// it never stats an entry unless a rule actually needs metadata to
// decide. Directory listings supply a cheap type hint for each entry;
// only size, time, and metadata-declaring custom rules force a stat,
// and at most one stat is issued per entry.
//
// Results are produced lazily through a pull iterator:
//
//	name, err := pathmap.NameGlob("*.txt")
//	if err != nil { ... }
//	depth, err := pathmap.Depth(0, 2)
//	if err != nil { ... }
//	set := pathmap.And(pathmap.NewSet(name), pathmap.NewSet(depth))
//	w, err := pathmap.Walk(set, []string{root}, nil)
//	if err != nil { ... }
//	for m, ok := w.Next(); ok; m, ok = w.Next() {
//		fmt.Println(m.Path)
//	}
//
// Recoverable failures (unreadable directories, entries that vanish
// between listing and stat) skip the affected subtree or entry and
// never abort the walk. Missing roots are reported by Walk before any
// traversal begins.
package pathmap
