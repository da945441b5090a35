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
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/bazelbuild/pathmap/pathtools"
)

// Watcher emits a MatchResult for every path created or modified under
// the roots that satisfies the rule set. It watches only directories a
// walk would visit: subtrees the set prunes get no watch, and created
// directories are registered as they appear.
type Watcher struct {
	set       *Set
	fsys      FileSystem
	opts      Options
	fw        *fsnotify.Watcher
	roots     []string
	matches   chan *MatchResult
	done      chan struct{}
	group     errgroup.Group
	closeOnce sync.Once
	closeErr  error
}

// Watch registers watches for roots and starts delivering matches on
// Matches. Missing roots are reported like in Walk; the watcher still
// covers the remaining roots. Call Close to stop it.
func Watch(set *Set, roots []string, opts *Options) (*Watcher, error) {
	if set == nil {
		return nil, specErrorf("watch requires a rule set")
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

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		set:     set,
		fsys:    o.FS,
		opts:    o,
		fw:      fw,
		matches: make(chan *MatchResult),
		done:    make(chan struct{}),
	}

	var rootErrs []error
	var reg errgroup.Group
	for _, r := range roots {
		clean := filepath.Clean(r)
		meta, err := o.FS.Stat(clean)
		if err != nil {
			rootErrs = append(rootErrs, &RootNotFoundError{Path: clean, Err: err})
			continue
		}
		if meta.Type != TypeDir {
			continue
		}
		w.roots = append(w.roots, clean)
		reg.Go(func() error { return w.watchTree(clean, 0) })
	}
	if err := reg.Wait(); err != nil {
		fw.Close()
		return nil, err
	}

	w.group.Go(w.loop)
	return w, errors.Join(rootErrs...)
}

// Matches is the stream of results. It is closed when the watcher
// stops.
func (w *Watcher) Matches() <-chan *MatchResult { return w.matches }

// Close stops watching and waits for the event loop to drain.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		err := w.fw.Close()
		if werr := w.group.Wait(); err == nil {
			err = werr
		}
		w.closeErr = err
	})
	return w.closeErr
}

// watchTree registers dir and every subdirectory a walk would descend
// into. depth is the depth of dir itself relative to its root. Listing
// failures skip the subtree, like in a walk; a failure to register a
// watch is a setup error and aborts.
func (w *Watcher) watchTree(dir string, depth int) error {
	if w.set.pruneBelow(depth + 1) {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	entries, err := w.fsys.List(dir)
	if err != nil {
		w.opts.OnError(&ListingError{Path: dir, Err: err})
		return nil
	}
	for _, e := range entries {
		if e.Type != TypeDir {
			continue
		}
		if err := w.watchTree(filepath.Join(dir, e.Name), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) loop() error {
	defer close(w.matches)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.opts.OnError(err)
			}
		case <-w.done:
			return nil
		}
	}
}

// handle evaluates one filesystem event. Created directories extend the
// watch; created or written paths that satisfy the set become matches.
func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	root, rel, ok := w.relToRoot(ev.Name)
	if !ok {
		return
	}
	meta, err := w.fsys.Stat(ev.Name)
	if err != nil {
		// The path may already be gone again; that is not a match.
		w.opts.OnError(&MetadataError{Path: ev.Name, Err: err})
		return
	}
	depth := pathtools.Depth(rel)

	if meta.Type == TypeDir && ev.Op&fsnotify.Create != 0 {
		if err := w.watchTree(ev.Name, depth); err != nil {
			w.opts.OnError(err)
		}
	}

	c := &Candidate{
		Path:  ev.Name,
		Rel:   rel,
		Base:  path.Base(rel),
		Depth: depth,
		Type:  meta.Type,
		Meta:  meta,
	}
	if w.set.eval(c) != vYes {
		return
	}
	m := &MatchResult{
		Path:  filepath.Join(root, filepath.FromSlash(rel)),
		Rel:   rel,
		Type:  meta.Type,
		Depth: depth,
		Meta:  meta,
		Rules: w.set.matchedRules(c),
	}
	select {
	case w.matches <- m:
	case <-w.done:
	}
}

// relToRoot finds the watched root containing p and returns the
// slash-separated path of p relative to it.
func (w *Watcher) relToRoot(p string) (root, rel string, ok bool) {
	sp := filepath.ToSlash(filepath.Clean(p))
	for _, r := range w.roots {
		sr := filepath.ToSlash(r)
		if pathtools.HasPrefix(sp, sr) {
			return r, pathtools.TrimPrefix(sp, sr), true
		}
	}
	return "", "", false
}
