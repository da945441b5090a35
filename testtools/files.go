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

// Package testtools builds temporary directory trees for walker tests.
package testtools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FileSpec specifies one entry of a test directory tree.
type FileSpec struct {
	// Path is a slash-separated path relative to the test directory. If
	// Path ends with a slash, a directory is created instead of a file.
	Path string

	// Symlink is a slash-separated target path, relative to the link's
	// directory. If set, a symbolic link is created instead of a file.
	Symlink string

	// Content is the content of the test file.
	Content string
}

// CreateFiles creates a directory of test files. This is a more compact
// alternative to testdata directories. CreateFiles returns a canonical
// path to the directory; cleanup is registered with t.
func CreateFiles(t *testing.T, files []FileSpec) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if strings.HasSuffix(f.Path, "/") {
			if err := os.MkdirAll(path, 0o700); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			t.Fatal(err)
		}
		if f.Symlink != "" {
			if err := os.Symlink(filepath.FromSlash(f.Symlink), path); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}
