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
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Op is a comparison operator for size and modification-time rules.
type Op int8

const (
	OpLT Op = iota + 1
	OpLE
	OpEQ
	OpGE
	OpGT
)

// ParseOp parses one of "<", "<=", "==", ">=", ">".
func ParseOp(s string) (Op, error) {
	switch s {
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case "==":
		return OpEQ, nil
	case ">=":
		return OpGE, nil
	case ">":
		return OpGT, nil
	}
	return 0, specErrorf("unknown comparison operator %q", s)
}

func (op Op) String() string {
	switch op {
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpEQ:
		return "=="
	case OpGE:
		return ">="
	case OpGT:
		return ">"
	}
	return "?"
}

func (op Op) valid() bool { return op >= OpLT && op <= OpGT }

func (op Op) holdsInt(a, b int64) bool {
	switch op {
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpEQ:
		return a == b
	case OpGE:
		return a >= b
	case OpGT:
		return a > b
	}
	return false
}

func (op Op) holdsTime(a, b time.Time) bool {
	switch op {
	case OpLT:
		return a.Before(b)
	case OpLE:
		return !a.After(b)
	case OpEQ:
		return a.Equal(b)
	case OpGE:
		return !a.Before(b)
	case OpGT:
		return a.After(b)
	}
	return false
}

// Candidate is the entry under evaluation, as seen by rules. Meta is
// nil until the walker has fetched metadata; rules that need it report
// an indeterminate result instead of forcing the fetch themselves.
type Candidate struct {
	// Path is the OS path of the entry, joined from the walked root.
	Path string
	// Rel is the slash-separated path relative to the root, "" for the
	// root itself.
	Rel string
	// Base is the entry's base name.
	Base string
	// Depth is the traversal depth; the root is 0, its entries are 1.
	Depth int
	// Type is the cheap type hint from the listing, TypeUnknown if the
	// source had none.
	Type EntryType
	// Meta is the entry's metadata if it has been fetched.
	Meta *Metadata
}

// entryType returns the best known type of the candidate.
func (c *Candidate) entryType() EntryType {
	if c.Type == TypeUnknown && c.Meta != nil {
		return c.Meta.Type
	}
	return c.Type
}

type ruleKind int8

const (
	kindNameGlob ruleKind = iota
	kindPathGlob
	kindType
	kindDepth
	kindSize
	kindModified
	kindCustom
)

// Rule is a single matching predicate over a candidate entry. Rules are
// immutable after construction: whether a rule needs metadata and which
// depths and types it can match are static facts, consulted for pruning
// before any traversal work happens.
type Rule struct {
	kind      ruleKind
	label     string
	pattern   string
	foldCase  bool
	typ       EntryType
	minDepth  int
	maxDepth  int // < 0 means unbounded
	op        Op
	bytes     int64
	when      time.Time
	fn        func(*Candidate) bool
	needsMeta bool
	appliesTo TypeSet
}

// RuleOption adjusts a rule at construction time.
type RuleOption func(*Rule)

// WithLabel attaches a label to a rule, reported on match results.
func WithLabel(label string) RuleOption {
	return func(r *Rule) { r.label = label }
}

// FoldCase makes glob rules match case-insensitively. Matching is
// case-sensitive by default.
func FoldCase() RuleOption {
	return func(r *Rule) { r.foldCase = true }
}

// AppliesTo restricts a rule to the given entry types. An entry of any
// other type is vacuously non-matching, which lets heterogeneous rule
// sets target mixed walks without spurious errors.
func AppliesTo(ts TypeSet) RuleOption {
	return func(r *Rule) { r.appliesTo = ts }
}

// NameGlob returns a rule matching the entry's base name against a
// shell-glob pattern (*, ?, character classes). The pattern is
// validated here; a bad pattern never surfaces mid-walk.
func NameGlob(pattern string, opts ...RuleOption) (*Rule, error) {
	r := &Rule{kind: kindNameGlob, pattern: pattern, appliesTo: AllTypes}
	return finishGlobRule(r, opts)
}

// PathGlob returns a rule matching the entry's slash-separated path
// relative to the walked root. Patterns may span directories with **,
// like the exclude patterns of build tooling.
func PathGlob(pattern string, opts ...RuleOption) (*Rule, error) {
	r := &Rule{kind: kindPathGlob, pattern: pattern, appliesTo: AllTypes}
	return finishGlobRule(r, opts)
}

func finishGlobRule(r *Rule, opts []RuleOption) (*Rule, error) {
	if !doublestar.ValidatePattern(r.pattern) {
		return nil, &SpecError{Msg: "invalid glob pattern " + r.pattern, Err: doublestar.ErrBadPattern}
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.foldCase {
		r.pattern = strings.ToLower(r.pattern)
	}
	return r, nil
}

// Type returns a rule matching entries of the given type. The type is
// resolved from the listing's cheap hint where available; metadata is
// fetched only if the listing source could not supply one.
func Type(t EntryType, opts ...RuleOption) *Rule {
	r := &Rule{kind: kindType, typ: t, appliesTo: AllTypes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Depth returns a rule matching entries whose traversal depth is within
// [min, max]. The root is depth 0. A negative max means unbounded.
// Depth rules drive subtree pruning: no subtree strictly below max is
// ever listed on their account.
func Depth(min, max int) (*Rule, error) {
	if min < 0 {
		return nil, specErrorf("minimum depth must not be negative, got %d", min)
	}
	if max >= 0 && max < min {
		return nil, specErrorf("maximum depth %d is below minimum depth %d", max, min)
	}
	return &Rule{kind: kindDepth, minDepth: min, maxDepth: max, appliesTo: AllTypes}, nil
}

// Size returns a rule comparing the entry's size in bytes. Size rules
// always require metadata and apply to regular files unless AppliesTo
// widens them.
func Size(op Op, bytes int64, opts ...RuleOption) (*Rule, error) {
	if !op.valid() {
		return nil, specErrorf("invalid size operator %d", op)
	}
	r := &Rule{kind: kindSize, op: op, bytes: bytes, needsMeta: true, appliesTo: Types(TypeFile)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Modified returns a rule comparing the entry's modification time.
// Modified rules always require metadata.
func Modified(op Op, when time.Time, opts ...RuleOption) (*Rule, error) {
	if !op.valid() {
		return nil, specErrorf("invalid time operator %d", op)
	}
	r := &Rule{kind: kindModified, op: op, when: when, needsMeta: true, appliesTo: AllTypes}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Custom wraps an arbitrary predicate. needsMetadata is the caller's
// declaration of whether fn reads Candidate.Meta; it cannot be proven,
// so it is trusted as given. Custom rules never contribute to pruning.
func Custom(fn func(*Candidate) bool, needsMetadata bool, opts ...RuleOption) *Rule {
	r := &Rule{kind: kindCustom, fn: fn, needsMeta: needsMetadata, appliesTo: AllTypes}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Label returns the rule's label, "" if none was set.
func (r *Rule) Label() string { return r.label }

// NeedsMetadata reports whether evaluating the rule requires a
// stat-equivalent call. This is static for the life of the rule.
func (r *Rule) NeedsMetadata() bool { return r.needsMeta }

// AppliesTo returns the entry types the rule is meaningful for.
func (r *Rule) AppliesTo() TypeSet { return r.appliesTo }

// eval evaluates the rule against c. It returns vMaybe when the answer
// depends on metadata that has not been fetched yet.
func (r *Rule) eval(c *Candidate) verdict {
	typ := c.entryType()
	if r.appliesTo != AllTypes {
		if typ == TypeUnknown {
			return vMaybe
		}
		if !r.appliesTo.Contains(typ) {
			return vNo
		}
	}
	switch r.kind {
	case kindNameGlob:
		return boolVerdict(r.globMatch(c.Base))
	case kindPathGlob:
		return boolVerdict(r.globMatch(c.Rel))
	case kindType:
		if typ == TypeUnknown {
			return vMaybe
		}
		return boolVerdict(typ == r.typ)
	case kindDepth:
		return boolVerdict(c.Depth >= r.minDepth && (r.maxDepth < 0 || c.Depth <= r.maxDepth))
	case kindSize:
		if c.Meta == nil {
			return vMaybe
		}
		return boolVerdict(r.op.holdsInt(c.Meta.Size, r.bytes))
	case kindModified:
		if c.Meta == nil {
			return vMaybe
		}
		return boolVerdict(r.op.holdsTime(c.Meta.ModTime, r.when))
	case kindCustom:
		if r.needsMeta && c.Meta == nil {
			return vMaybe
		}
		return boolVerdict(r.fn(c))
	}
	return vNo
}

func (r *Rule) globMatch(name string) bool {
	if r.foldCase {
		name = strings.ToLower(name)
	}
	// The pattern was validated at construction; Match cannot fail.
	ok, _ := doublestar.Match(r.pattern, name)
	return ok
}

// canMatchAtOrBelow reports whether the rule could match any entry of
// type t at depth or deeper. t may be TypeUnknown to ask about all
// types at once. False positives are allowed (they only cost I/O);
// false negatives would make pruning unsound and are not.
func (r *Rule) canMatchAtOrBelow(depth int, t EntryType) bool {
	if t != TypeUnknown && !r.appliesTo.Contains(t) {
		return false
	}
	switch r.kind {
	case kindType:
		return t == TypeUnknown || t == r.typ
	case kindDepth:
		// Deeper entries only grow the depth, so only the upper bound
		// can rule a subtree out.
		return r.maxDepth < 0 || depth <= r.maxDepth
	}
	return true
}
