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
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bazelbuild/pathmap/testtools"
)

// countingFS wraps another FileSystem, counts calls, and injects
// failures keyed by base name.
type countingFS struct {
	base     FileSystem
	lists    int
	stats    int
	failList map[string]bool
	failStat map[string]bool
}

func (f *countingFS) List(dir string) ([]Entry, error) {
	f.lists++
	if f.failList[filepath.Base(dir)] {
		return nil, errors.New("permission denied")
	}
	return f.base.List(dir)
}

func (f *countingFS) Stat(path string) (*Metadata, error) {
	f.stats++
	if f.failStat[filepath.Base(path)] {
		return nil, errors.New("no such file or directory")
	}
	return f.base.Stat(path)
}

func (f *countingFS) Resolve(path string) (string, *Metadata, error) {
	return f.base.Resolve(path)
}

// hintlessFS strips type hints and cached metadata from listings, like
// an entry source that can only supply names.
type hintlessFS struct {
	FileSystem
}

func (f hintlessFS) List(dir string) ([]Entry, error) {
	entries, err := f.FileSystem.List(dir)
	for i := range entries {
		entries[i].Type = TypeUnknown
		entries[i].Meta = nil
	}
	return entries, err
}

// reversingFS lists entries in reverse order, to make order-dependent
// behavior observable.
type reversingFS struct {
	FileSystem
}

func (f reversingFS) List(dir string) ([]Entry, error) {
	entries, err := f.FileSystem.List(dir)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, err
}

func rels(ms []*MatchResult) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Rel
	}
	return out
}

func sortedRels(ms []*MatchResult) []string {
	out := rels(ms)
	sort.Strings(out)
	return out
}

func mustWalk(t *testing.T, set *Set, roots []string, opts *Options) []*MatchResult {
	t.Helper()
	w, err := Walk(set, roots, opts)
	if err != nil {
		t.Fatal(err)
	}
	return w.Collect()
}

var scenarioTree = []testtools.FileSpec{
	{Path: "a.txt", Content: "alpha"},
	{Path: "b.log", Content: "beta"},
	{Path: "sub/c.txt", Content: "gamma"},
}

func TestWalkNameGlobWithDepthBound(t *testing.T) {
	dir := testtools.CreateFiles(t, scenarioTree)
	set := And(nameSet(t, "*.txt"), depthSet(t, 0, 1))

	fsys := &countingFS{base: OSFS}
	ms := mustWalk(t, set, []string{dir}, &Options{FS: fsys})

	if diff := cmp.Diff([]string{"a.txt"}, rels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	// sub's children are at depth 2, beyond the bound, so sub is never
	// listed at all.
	if fsys.lists != 1 {
		t.Errorf("got %d listing calls ; want 1", fsys.lists)
	}
	// Only the root validation stat; the rules are all cheap.
	if fsys.stats != 1 {
		t.Errorf("got %d stat calls ; want 1", fsys.stats)
	}
}

func TestWalkTypeFilter(t *testing.T) {
	dir := testtools.CreateFiles(t, scenarioTree)
	set := NewSet(Type(TypeDir))

	ms := mustWalk(t, set, []string{dir}, nil)
	if diff := cmp.Diff([]string{"sub"}, rels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}

	// The root itself is depth 0 and only matched when asked for.
	ms = mustWalk(t, set, []string{dir}, &Options{MatchRoots: true})
	if diff := cmp.Diff([]string{"", "sub"}, rels(ms)); diff != "" {
		t.Errorf("matches with MatchRoots (-want +got):\n%s", diff)
	}
}

// levels mirrors a small pyramid of files and directories, one slice of
// root-relative paths per depth.
var pyramidTree = []testtools.FileSpec{
	{Path: "file1", Content: "1"},
	{Path: "file2", Content: "2"},
	{Path: "dir1/file3", Content: "3"},
	{Path: "dir1/dir3/file4", Content: "4"},
	{Path: "dir2/"},
}

var pyramidLevels = [][]string{
	{""},
	{"dir1", "dir2", "file1", "file2"},
	{"dir1/dir3", "dir1/file3"},
	{"dir1/dir3/file4"},
}

func TestWalkMinDepth(t *testing.T) {
	dir := testtools.CreateFiles(t, pyramidTree)
	for min := 0; min < len(pyramidLevels); min++ {
		set := depthSet(t, min, -1)
		ms := mustWalk(t, set, []string{dir}, &Options{MatchRoots: true})

		var want []string
		for _, level := range pyramidLevels[min:] {
			want = append(want, level...)
		}
		sort.Strings(want)
		if diff := cmp.Diff(want, sortedRels(ms)); diff != "" {
			t.Errorf("min depth %d (-want +got):\n%s", min, diff)
		}
	}
}

func TestWalkMaxDepth(t *testing.T) {
	dir := testtools.CreateFiles(t, pyramidTree)
	for max := 0; max < len(pyramidLevels); max++ {
		set := depthSet(t, 0, max)
		fsys := &countingFS{base: OSFS}
		ms := mustWalk(t, set, []string{dir}, &Options{MatchRoots: true, FS: fsys})

		var want []string
		for _, level := range pyramidLevels[:max+1] {
			want = append(want, level...)
		}
		sort.Strings(want)
		if diff := cmp.Diff(want, sortedRels(ms)); diff != "" {
			t.Errorf("max depth %d (-want +got):\n%s", max, diff)
		}

		// Directories whose children all violate the bound are pruned
		// without a listing: with max 0, not even the root is listed.
		switch max {
		case 0:
			if fsys.lists != 0 {
				t.Errorf("max 0: got %d listings ; want 0", fsys.lists)
			}
		case 1:
			if fsys.lists != 1 {
				t.Errorf("max 1: got %d listings ; want 1", fsys.lists)
			}
		}
	}
}

func TestWalkMetadataMinimality(t *testing.T) {
	dir := testtools.CreateFiles(t, pyramidTree)
	set := nameSet(t, "*")
	if set.NeedsMetadata() {
		t.Fatal("glob set should not need metadata")
	}

	fsys := &countingFS{base: OSFS}
	mustWalk(t, set, []string{dir}, &Options{FS: fsys})
	// One stat to validate the root; no per-entry stat at all.
	if fsys.stats != 1 {
		t.Errorf("got %d stat calls ; want 1", fsys.stats)
	}
}

func TestWalkMetadataFetchedOncePerEntry(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "a.log", Content: "aa"},
		{Path: "b.txt", Content: "b"},
		{Path: "c.txt"},
	})
	// Cheap-first ordering lets *.log match without metadata; only the
	// two .txt files reach the size branch.
	set := Or(nameSet(t, "*.log"), sizeSet(t, OpGT, 0))

	fsys := &countingFS{base: OSFS}
	ms := mustWalk(t, set, []string{dir}, &Options{FS: fsys})

	if diff := cmp.Diff([]string{"a.log", "b.txt"}, sortedRels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	if want := 1 + 2; fsys.stats != want {
		t.Errorf("got %d stat calls ; want %d (root + b.txt + c.txt)", fsys.stats, want)
	}
}

func TestWalkListingErrorSkipsSubtree(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "a.txt"},
		{Path: "bad/hidden.txt"},
		{Path: "sub/c.txt"},
	})
	set := nameSet(t, "*.txt")
	fsys := &countingFS{base: OSFS, failList: map[string]bool{"bad": true}}

	var skipped []error
	ms := mustWalk(t, set, []string{dir}, &Options{
		FS:      fsys,
		OnError: func(err error) { skipped = append(skipped, err) },
	})

	if diff := cmp.Diff([]string{"a.txt", "sub/c.txt"}, sortedRels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	if len(skipped) != 1 {
		t.Fatalf("got %d skip errors ; want 1", len(skipped))
	}
	var listErr *ListingError
	if !errors.As(skipped[0], &listErr) {
		t.Fatalf("got %T ; want *ListingError", skipped[0])
	}
	if filepath.Base(listErr.Path) != "bad" {
		t.Errorf("got path %s ; want .../bad", listErr.Path)
	}
}

func TestWalkMetadataErrorSkipsEntry(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "a.txt", Content: "x"},
		{Path: "b.txt", Content: "x"},
	})
	set := sizeSet(t, OpGT, 0)
	fsys := &countingFS{base: OSFS, failStat: map[string]bool{"b.txt": true}}

	var skipped []error
	ms := mustWalk(t, set, []string{dir}, &Options{
		FS:      fsys,
		OnError: func(err error) { skipped = append(skipped, err) },
	})

	if diff := cmp.Diff([]string{"a.txt"}, rels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	var metaErr *MetadataError
	if len(skipped) != 1 || !errors.As(skipped[0], &metaErr) {
		t.Fatalf("got %v ; want one *MetadataError", skipped)
	}
}

func TestWalkRootNotFound(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{{Path: "a.txt"}})
	missing := filepath.Join(dir, "no-such-root")

	w, err := Walk(nameSet(t, "*.txt"), []string{missing, dir}, nil)
	var rootErr *RootNotFoundError
	if !errors.As(err, &rootErr) {
		t.Fatalf("got %v ; want *RootNotFoundError", err)
	}
	if rootErr.Path != missing {
		t.Errorf("got path %s ; want %s", rootErr.Path, missing)
	}
	// The existing root is still walked.
	if diff := cmp.Diff([]string{"a.txt"}, rels(w.Collect())); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
}

func TestWalkSymlinks(t *testing.T) {
	tree := []testtools.FileSpec{
		{Path: "target/t.txt"},
		{Path: "link", Symlink: "target"},
	}

	t.Run("not followed by default", func(t *testing.T) {
		dir := testtools.CreateFiles(t, tree)
		ms := mustWalk(t, nameSet(t, "*.txt"), []string{dir}, nil)
		if diff := cmp.Diff([]string{"target/t.txt"}, sortedRels(ms)); diff != "" {
			t.Errorf("matches (-want +got):\n%s", diff)
		}
	})

	t.Run("followed on request", func(t *testing.T) {
		dir := testtools.CreateFiles(t, tree)
		ms := mustWalk(t, nameSet(t, "*.txt"), []string{dir}, &Options{FollowSymlinks: true})
		if diff := cmp.Diff([]string{"link/t.txt", "target/t.txt"}, sortedRels(ms)); diff != "" {
			t.Errorf("matches (-want +got):\n%s", diff)
		}
	})

	t.Run("symlink entries keep their own type", func(t *testing.T) {
		dir := testtools.CreateFiles(t, tree)
		ms := mustWalk(t, NewSet(Type(TypeSymlink)), []string{dir}, nil)
		if diff := cmp.Diff([]string{"link"}, rels(ms)); diff != "" {
			t.Errorf("matches (-want +got):\n%s", diff)
		}
	})
}

func TestWalkSymlinkCycle(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "a/f.txt"},
		{Path: "a/loop", Symlink: ".."},
	})
	set := depthSet(t, 0, -1)
	ms := mustWalk(t, set, []string{dir}, &Options{FollowSymlinks: true})

	// The cycle is cut when a/loop resolves to the already-visited
	// root; everything is still reported exactly once.
	if diff := cmp.Diff([]string{"a", "a/f.txt", "a/loop"}, sortedRels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
}

func TestWalkSortOption(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "c.txt"},
		{Path: "a.txt"},
		{Path: "b.txt"},
	})
	set := nameSet(t, "*.txt")
	fsys := reversingFS{OSFS}

	ms := mustWalk(t, set, []string{dir}, &Options{FS: fsys})
	if diff := cmp.Diff([]string{"c.txt", "b.txt", "a.txt"}, rels(ms)); diff != "" {
		t.Errorf("source order (-want +got):\n%s", diff)
	}

	ms = mustWalk(t, set, []string{dir}, &Options{FS: fsys, Sort: true})
	if diff := cmp.Diff([]string{"a.txt", "b.txt", "c.txt"}, rels(ms)); diff != "" {
		t.Errorf("sorted order (-want +got):\n%s", diff)
	}
}

func TestWalkIdempotent(t *testing.T) {
	dir := testtools.CreateFiles(t, pyramidTree)
	set := And(nameSet(t, "*"), depthSet(t, 0, 2))

	first := sortedRels(mustWalk(t, set, []string{dir}, nil))
	second := sortedRels(mustWalk(t, set, []string{dir}, nil))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second walk differs (-first +second):\n%s", diff)
	}
}

func TestWalkHintlessSource(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{
		{Path: "a.txt"},
		{Path: "sub/x.txt"},
	})
	set := nameSet(t, "*.txt")
	fsys := &countingFS{base: hintlessFS{OSFS}}

	ms := mustWalk(t, set, []string{dir}, &Options{FS: fsys})
	// Without type hints the walker stats each entry once to decide
	// descent, and still finds everything.
	if diff := cmp.Diff([]string{"a.txt", "sub/x.txt"}, sortedRels(ms)); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	if want := 1 + 3; fsys.stats != want {
		t.Errorf("got %d stat calls ; want %d", fsys.stats, want)
	}
}

func TestWalkMultipleRoots(t *testing.T) {
	dir1 := testtools.CreateFiles(t, []testtools.FileSpec{{Path: "a.txt"}})
	dir2 := testtools.CreateFiles(t, []testtools.FileSpec{{Path: "b.txt"}})

	ms := mustWalk(t, nameSet(t, "*.txt"), []string{dir1, dir2}, nil)
	want := []string{filepath.Join(dir1, "a.txt"), filepath.Join(dir2, "b.txt")}
	var got []string
	for _, m := range ms {
		got = append(got, m.Path)
	}
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
}

func TestWalkMatchResultFields(t *testing.T) {
	dir := testtools.CreateFiles(t, []testtools.FileSpec{{Path: "sub/c.txt", Content: "gamma"}})
	name, err := NameGlob("*.txt", WithLabel("txt"))
	if err != nil {
		t.Fatal(err)
	}
	big, err := Size(OpGT, 1, WithLabel("nonempty"))
	if err != nil {
		t.Fatal(err)
	}
	set := And(NewSet(name), NewSet(big))

	ms := mustWalk(t, set, []string{dir}, nil)
	if len(ms) != 1 {
		t.Fatalf("got %d matches ; want 1", len(ms))
	}
	m := ms[0]
	if m.Path != filepath.Join(dir, "sub", "c.txt") {
		t.Errorf("Path got %s", m.Path)
	}
	if m.Rel != "sub/c.txt" || m.Depth != 2 || m.Type != TypeFile {
		t.Errorf("got rel %q depth %d type %v", m.Rel, m.Depth, m.Type)
	}
	if m.Meta == nil || m.Meta.Size != 5 {
		t.Errorf("metadata should carry the fetched size, got %+v", m.Meta)
	}
	var labels []string
	for _, r := range m.Rules {
		labels = append(labels, r.Label())
	}
	sort.Strings(labels)
	if diff := cmp.Diff([]string{"nonempty", "txt"}, labels); diff != "" {
		t.Errorf("rule labels (-want +got):\n%s", diff)
	}
}

func TestWalkLazyPull(t *testing.T) {
	dir := testtools.CreateFiles(t, scenarioTree)
	w, err := Walk(nameSet(t, "*.txt"), []string{dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := w.Next()
	if !ok || m.Rel != "a.txt" {
		t.Fatalf("first pull got %v %v", m, ok)
	}
	// Abandoning the walker here must be safe: no handles are held
	// between pulls.
}
