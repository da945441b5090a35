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

import "time"

// Spec is the declarative form of a rule set, suitable for YAML or TOML
// configuration. All constraints on one node must hold together; the
// All, Any, and Not fields nest further nodes for explicit boolean
// composition.
//
// Compile validates everything up front: conflicting depth bounds,
// unknown types or operators, bad glob patterns, and empty nodes are
// SpecErrors at construction time, never mid-walk.
type Spec struct {
	// Label names the rules this node produces, for match reporting.
	Label string `yaml:"label,omitempty" toml:"label,omitempty"`

	// Name is a shell-glob pattern for the entry's base name.
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`

	// Path is a doublestar glob for the entry's root-relative path.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`

	// Type is one of "file", "dir", "symlink", "other", or "any".
	// "any" and "" impose no type constraint.
	Type string `yaml:"type,omitempty" toml:"type,omitempty"`

	// MinDepth and MaxDepth bound the traversal depth. MaxDepth nil
	// means unbounded; the root is depth 0.
	MinDepth int  `yaml:"min_depth,omitempty" toml:"min_depth,omitempty"`
	MaxDepth *int `yaml:"max_depth,omitempty" toml:"max_depth,omitempty"`

	// Size compares the entry's size in bytes.
	Size *SizeSpec `yaml:"size,omitempty" toml:"size,omitempty"`

	// Modified compares the entry's modification time.
	Modified *TimeSpec `yaml:"modified,omitempty" toml:"modified,omitempty"`

	// CaseSensitive controls glob matching on this node. Defaults to
	// true.
	CaseSensitive *bool `yaml:"case_sensitive,omitempty" toml:"case_sensitive,omitempty"`

	// All, Any, and Not compose nested nodes with AND, OR, and NOT.
	All []Spec `yaml:"all,omitempty" toml:"all,omitempty"`
	Any []Spec `yaml:"any,omitempty" toml:"any,omitempty"`
	Not *Spec  `yaml:"not,omitempty" toml:"not,omitempty"`
}

// SizeSpec is a size constraint: Op is one of <, <=, ==, >=, >.
type SizeSpec struct {
	Op    string `yaml:"op" toml:"op"`
	Bytes int64  `yaml:"bytes" toml:"bytes"`
}

// TimeSpec is a modification-time constraint.
type TimeSpec struct {
	Op   string    `yaml:"op" toml:"op"`
	Time time.Time `yaml:"time" toml:"time"`
}

// Compile builds the immutable rule set described by the spec.
func (sp *Spec) Compile() (*Set, error) {
	var sets []*Set

	var opts []RuleOption
	if sp.Label != "" {
		opts = append(opts, WithLabel(sp.Label))
	}
	if sp.CaseSensitive != nil && !*sp.CaseSensitive {
		opts = append(opts, FoldCase())
	}

	if sp.Name != "" {
		r, err := NameGlob(sp.Name, opts...)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(r))
	}
	if sp.Path != "" {
		r, err := PathGlob(sp.Path, opts...)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(r))
	}
	if sp.Type != "" && sp.Type != "any" {
		t, err := parseEntryType(sp.Type)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(Type(t, opts...)))
	}
	if sp.MinDepth != 0 || sp.MaxDepth != nil {
		max := -1
		if sp.MaxDepth != nil {
			max = *sp.MaxDepth
		}
		r, err := Depth(sp.MinDepth, max)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(r))
	}
	if sp.Size != nil {
		op, err := ParseOp(sp.Size.Op)
		if err != nil {
			return nil, err
		}
		r, err := Size(op, sp.Size.Bytes, opts...)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(r))
	}
	if sp.Modified != nil {
		op, err := ParseOp(sp.Modified.Op)
		if err != nil {
			return nil, err
		}
		r, err := Modified(op, sp.Modified.Time, opts...)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NewSet(r))
	}

	if len(sp.All) > 0 {
		children, err := compileAll(sp.All)
		if err != nil {
			return nil, err
		}
		sets = append(sets, And(children...))
	}
	if len(sp.Any) > 0 {
		children, err := compileAll(sp.Any)
		if err != nil {
			return nil, err
		}
		sets = append(sets, Or(children...))
	}
	if sp.Not != nil {
		child, err := sp.Not.Compile()
		if err != nil {
			return nil, err
		}
		sets = append(sets, Not(child))
	}

	if len(sets) == 0 {
		return nil, specErrorf("spec node constrains nothing")
	}
	if len(sets) == 1 {
		return sets[0], nil
	}
	return And(sets...), nil
}

func compileAll(specs []Spec) ([]*Set, error) {
	sets := make([]*Set, len(specs))
	for i := range specs {
		s, err := specs[i].Compile()
		if err != nil {
			return nil, err
		}
		sets[i] = s
	}
	return sets, nil
}

func parseEntryType(s string) (EntryType, error) {
	switch s {
	case "file":
		return TypeFile, nil
	case "dir":
		return TypeDir, nil
	case "symlink":
		return TypeSymlink, nil
	case "other":
		return TypeOther, nil
	}
	return TypeUnknown, specErrorf("unknown entry type %q", s)
}
