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
	"log"
	"path"
	"path/filepath"
	"sort"
)

// Options configure a walk. The zero value is usable.
type Options struct {
	// FS overrides the listing and metadata source. Defaults to OSFS.
	FS FileSystem

	// FollowSymlinks descends into directories reached through
	// symlinks. Cycles are avoided by tracking resolved directory paths
	// per root; matches reached through distinct symlinked paths are
	// not deduplicated.
	FollowSymlinks bool

	// Sort visits each directory's entries in name order. By default
	// entries are visited in the order the FileSystem supplies them,
	// which is implementation-defined.
	Sort bool

	// MatchRoots evaluates each root itself (at depth 0) against the
	// rule set. By default roots are only starting points and never
	// matched, so "type == dir" on root /r yields /r/sub but not /r.
	MatchRoots bool

	// OnError receives recoverable, skipped failures: ListingErrors for
	// unreadable subtrees and MetadataErrors for entries that could not
	// be statted. Defaults to log.Print.
	OnError func(error)
}

type walkRoot struct {
	path string
	meta *Metadata
}

// frame is the iteration state of one open directory. The walker keeps
// an explicit stack of frames instead of relying on recursion, so it
// can suspend after every match.
type frame struct {
	dir     string // OS path of the directory
	rel     string // slash path relative to the root, "" for the root
	depth   int    // depth of the directory itself
	entries []Entry
	idx     int
	listed  bool
}

// Walker produces match results lazily. It is single-threaded: one
// goroutine pulls with Next until it returns false or the consumer
// stops early. The rule set is read-only for the walker's lifetime.
type Walker struct {
	set     *Set
	fsys    FileSystem
	opts    Options
	roots   []walkRoot
	rootIdx int
	stack   []*frame
	visited map[string]struct{} // resolved dirs, per root, when following symlinks
	pending *MatchResult
}

// Walk starts a traversal of roots with the given rule set. Roots that
// do not exist are reported in the returned error as RootNotFoundErrors
// (joined when several are missing); the walker still covers the
// remaining roots, so callers may both inspect the error and drain the
// walker.
func Walk(set *Set, roots []string, opts *Options) (*Walker, error) {
	if set == nil {
		return nil, specErrorf("walk requires a rule set")
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.FS == nil {
		o.FS = OSFS
	}
	if o.OnError == nil {
		o.OnError = func(err error) { log.Print(err) }
	}

	w := &Walker{set: set, fsys: o.FS, opts: o}
	var errs []error
	for _, r := range roots {
		clean := filepath.Clean(r)
		meta, err := o.FS.Stat(clean)
		if err != nil {
			errs = append(errs, &RootNotFoundError{Path: clean, Err: err})
			continue
		}
		w.roots = append(w.roots, walkRoot{path: clean, meta: meta})
	}
	return w, errors.Join(errs...)
}

// Next returns the next match, or false when the walk is exhausted.
// Between calls the walker holds no open directory handles; each
// directory is listed exactly once, when its frame first becomes
// active.
func (w *Walker) Next() (*MatchResult, bool) {
	for {
		if w.pending != nil {
			m := w.pending
			w.pending = nil
			return m, true
		}
		if len(w.stack) == 0 {
			if !w.advanceRoot() {
				return nil, false
			}
			continue
		}
		f := w.stack[len(w.stack)-1]
		if !f.listed {
			f.listed = true
			entries, err := w.fsys.List(f.dir)
			if err != nil {
				w.opts.OnError(&ListingError{Path: f.dir, Err: err})
				w.pop()
				continue
			}
			if w.opts.Sort {
				sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
			}
			f.entries = entries
		}
		if f.idx >= len(f.entries) {
			w.pop()
			continue
		}
		e := &f.entries[f.idx]
		f.idx++
		if m := w.visit(f, e); m != nil {
			return m, true
		}
	}
}

// Collect drains the walker and returns all remaining matches.
func (w *Walker) Collect() []*MatchResult {
	var out []*MatchResult
	for {
		m, ok := w.Next()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func (w *Walker) pop() {
	w.stack[len(w.stack)-1] = nil
	w.stack = w.stack[:len(w.stack)-1]
}

// advanceRoot sets up traversal state for the next root. It returns
// false when no roots remain.
func (w *Walker) advanceRoot() bool {
	for w.rootIdx < len(w.roots) {
		rt := w.roots[w.rootIdx]
		w.rootIdx++
		if w.opts.FollowSymlinks {
			w.visited = make(map[string]struct{})
		}

		switch rt.meta.Type {
		case TypeDir:
			if !w.set.pruneBelow(1) {
				w.push(rt.path, "", 0, "", false)
			}
		case TypeSymlink:
			if w.opts.FollowSymlinks && !w.set.pruneBelow(1) {
				resolved, meta, err := w.fsys.Resolve(rt.path)
				if err != nil {
					w.opts.OnError(&MetadataError{Path: rt.path, Err: err})
				} else if meta.Type == TypeDir {
					w.push(rt.path, "", 0, resolved, true)
				}
			}
		}

		if w.opts.MatchRoots {
			c := &Candidate{
				Path:  rt.path,
				Rel:   "",
				Base:  filepath.Base(rt.path),
				Depth: 0,
				Type:  rt.meta.Type,
				Meta:  rt.meta,
			}
			if w.set.eval(c) == vYes {
				w.pending = &MatchResult{
					Path:  rt.path,
					Rel:   "",
					Type:  rt.meta.Type,
					Depth: 0,
					Meta:  rt.meta,
					Rules: w.set.matchedRules(c),
				}
			}
		}

		if w.pending != nil || len(w.stack) > 0 {
			return true
		}
	}
	return false
}

// visit evaluates one listed entry: descend decision first, then the
// cheap rule pass, then at most one metadata fetch if the cheap pass
// was inconclusive.
func (w *Walker) visit(f *frame, e *Entry) *MatchResult {
	depth := f.depth + 1
	rel := path.Join(f.rel, e.Name)
	full := filepath.Join(f.dir, e.Name)
	c := &Candidate{Path: full, Rel: rel, Base: e.Name, Depth: depth, Type: e.Type, Meta: e.Meta}

	descended := w.maybeDescend(c)

	v := w.set.eval(c)
	if v == vMaybe || !descended {
		// Either some rule needs metadata, or the listing gave no type
		// hint and we cannot know whether to descend. One stat covers
		// both.
		meta, err := w.fsys.Stat(full)
		if err != nil {
			w.opts.OnError(&MetadataError{Path: full, Err: err})
			return nil
		}
		c.Meta = meta
		if c.Type == TypeUnknown {
			c.Type = meta.Type
		}
		if !descended {
			w.maybeDescend(c)
		}
		v = w.set.eval(c)
	}
	if v != vYes {
		return nil
	}
	return &MatchResult{
		Path:  full,
		Rel:   c.Rel,
		Type:  c.entryType(),
		Depth: depth,
		Meta:  c.Meta,
		Rules: w.set.matchedRules(c),
	}
}

// maybeDescend decides whether to queue c as a directory frame. It
// reports whether the decision was final; with an unknown type hint the
// caller retries once metadata has resolved the type. The prune check
// runs before anything else, so a pruned subtree is never listed.
func (w *Walker) maybeDescend(c *Candidate) bool {
	switch c.entryType() {
	case TypeDir:
		if !w.set.pruneBelow(c.Depth + 1) {
			w.push(c.Path, c.Rel, c.Depth, "", false)
		}
		return true
	case TypeSymlink:
		if !w.opts.FollowSymlinks || w.set.pruneBelow(c.Depth+1) {
			return true
		}
		resolved, meta, err := w.fsys.Resolve(c.Path)
		if err != nil {
			w.opts.OnError(&MetadataError{Path: c.Path, Err: err})
			return true
		}
		if meta.Type == TypeDir {
			w.push(c.Path, c.Rel, c.Depth, resolved, true)
		}
		return true
	case TypeUnknown:
		return false
	}
	return true
}

// push queues a directory frame. When following symlinks, the resolved
// real path of every queued directory is recorded per root, and a
// symlink whose target was already recorded is dropped. That breaks
// cycles without hiding a real directory that happens to share its
// target with an earlier link. resolved may be "" if it has not been
// computed yet.
func (w *Walker) push(dir, rel string, depth int, resolved string, viaLink bool) {
	if w.opts.FollowSymlinks {
		if resolved == "" {
			r, _, err := w.fsys.Resolve(dir)
			if err != nil {
				w.opts.OnError(&ListingError{Path: dir, Err: err})
				return
			}
			resolved = r
		}
		if viaLink {
			if _, ok := w.visited[resolved]; ok {
				return
			}
		}
		w.visited[resolved] = struct{}{}
	}
	w.stack = append(w.stack, &frame{dir: dir, rel: rel, depth: depth})
}
