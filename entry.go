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
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// EntryType classifies a directory entry. Listing a directory yields a
// type for each entry without a stat call; TypeUnknown marks entries
// from sources that cannot supply a cheap hint, and is resolved from
// metadata only when a rule needs it.
type EntryType int8

const (
	TypeUnknown EntryType = iota
	TypeFile
	TypeDir
	TypeSymlink
	TypeOther
)

func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDir:
		return "dir"
	case TypeSymlink:
		return "symlink"
	case TypeOther:
		return "other"
	default:
		return "unknown"
	}
}

// TypeSet is a set of entry types, used to declare which types a rule
// is meaningful for.
type TypeSet uint8

// Types builds a TypeSet from the given entry types.
func Types(ts ...EntryType) TypeSet {
	var s TypeSet
	for _, t := range ts {
		s |= 1 << uint(t)
	}
	return s
}

// AllTypes contains every concrete entry type.
var AllTypes = Types(TypeFile, TypeDir, TypeSymlink, TypeOther)

// Contains reports whether t is a member of s.
func (s TypeSet) Contains(t EntryType) bool {
	return s&(1<<uint(t)) != 0
}

// Metadata holds the filesystem attributes of an entry that are only
// obtainable through a stat-equivalent call.
type Metadata struct {
	Size    int64
	ModTime time.Time
	Type    EntryType
}

// Entry is a single name produced by listing a directory, with a cheap
// type hint. Meta is non-nil only if the listing source had metadata on
// hand; the walker never forces it.
type Entry struct {
	Name string
	Type EntryType
	Meta *Metadata
}

// FileSystem is the listing and metadata capability consumed by the
// walker. Implementations must not follow symlinks in Stat; Resolve is
// the explicit following form and is only called when symlink following
// is enabled.
//
// The default implementation is backed by the os package. Tests may
// substitute wrappers to count or fail calls.
type FileSystem interface {
	// List returns the entries of dir in implementation-defined order.
	List(dir string) ([]Entry, error)

	// Stat returns metadata for the entry at path without following
	// symlinks.
	Stat(path string) (*Metadata, error)

	// Resolve evaluates symlinks in path and returns the resolved path
	// together with the target's metadata.
	Resolve(path string) (string, *Metadata, error)
}

// OSFS is the FileSystem backed by the local filesystem.
var OSFS FileSystem = osFileSystem{}

type osFileSystem struct{}

func (osFileSystem) List(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(des))
	for i, de := range des {
		entries[i] = Entry{Name: de.Name(), Type: typeFromMode(de.Type())}
	}
	return entries, nil
}

func (osFileSystem) Stat(path string) (*Metadata, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return metadataFromInfo(fi), nil
}

func (osFileSystem) Resolve(path string) (string, *Metadata, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", nil, err
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, metadataFromInfo(fi), nil
}

func typeFromMode(m fs.FileMode) EntryType {
	switch {
	case m.IsRegular():
		return TypeFile
	case m.IsDir():
		return TypeDir
	case m&fs.ModeSymlink != 0:
		return TypeSymlink
	default:
		return TypeOther
	}
}

func metadataFromInfo(fi fs.FileInfo) *Metadata {
	return &Metadata{
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Type:    typeFromMode(fi.Mode()),
	}
}
