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

import "sort"

// verdict is the three-valued result of evaluating a rule or set
// against a candidate whose metadata may not have been fetched yet.
type verdict int8

const (
	vNo verdict = iota
	vYes
	vMaybe
)

func boolVerdict(b bool) verdict {
	if b {
		return vYes
	}
	return vNo
}

type setOp int8

const (
	opLeaf setOp = iota
	opAnd
	opOr
	opNot
)

// Set is a boolean composition of rules. Sets are immutable once built
// and may be reused across walks, but must not be rebuilt while a walk
// is running. Evaluation short-circuits, and children that need
// metadata are ordered last so a decisive cheap child settles the
// result before any stat is attempted.
type Set struct {
	op       setOp
	rule     *Rule
	children []*Set

	// needsMeta is an upper bound: true if any reachable rule requires
	// metadata. Short-circuiting may still avoid the fetch per entry.
	needsMeta bool
}

// NewSet wraps a single rule in a set.
func NewSet(r *Rule) *Set {
	if r == nil {
		panic("pathmap: NewSet called with nil rule")
	}
	return &Set{op: opLeaf, rule: r, needsMeta: r.needsMeta}
}

// And returns a set matching entries that match all children.
func And(sets ...*Set) *Set {
	return newNode(opAnd, sets)
}

// Or returns a set matching entries that match any child.
func Or(sets ...*Set) *Set {
	return newNode(opOr, sets)
}

// Not returns a set matching entries the child does not match.
func Not(s *Set) *Set {
	if s == nil {
		panic("pathmap: Not called with nil set")
	}
	return &Set{op: opNot, children: []*Set{s}, needsMeta: s.needsMeta}
}

func newNode(op setOp, sets []*Set) *Set {
	if len(sets) == 0 {
		panic("pathmap: And/Or require at least one set")
	}
	children := make([]*Set, len(sets))
	needsMeta := false
	for i, s := range sets {
		if s == nil {
			panic("pathmap: And/Or called with nil set")
		}
		children[i] = s
		needsMeta = needsMeta || s.needsMeta
	}
	// Cheap children first, so a decisive cheap result short-circuits
	// before any metadata-requiring branch is reached. The order does
	// not change the outcome, only the cost.
	sort.SliceStable(children, func(i, j int) bool {
		return !children[i].needsMeta && children[j].needsMeta
	})
	return &Set{op: op, children: children, needsMeta: needsMeta}
}

// NeedsMetadata reports whether any rule in the set requires metadata.
// When false, a whole walk with this set performs zero per-entry stat
// calls.
func (s *Set) NeedsMetadata() bool { return s.needsMeta }

// Matches evaluates c directly, outside a walk. It returns an error
// when the result hinges on metadata that c does not carry; callers
// with a live filesystem should use Walk instead, which fetches
// metadata on demand.
func (s *Set) Matches(c *Candidate) (bool, error) {
	switch s.eval(c) {
	case vYes:
		return true, nil
	case vNo:
		return false, nil
	}
	return false, &MetadataError{Path: c.Path, Err: errMetadataMissing}
}

// eval evaluates the set against c with short-circuiting. vMaybe means
// the result hinges on metadata not yet present on c.
func (s *Set) eval(c *Candidate) verdict {
	switch s.op {
	case opLeaf:
		return s.rule.eval(c)
	case opAnd:
		out := vYes
		for _, child := range s.children {
			switch child.eval(c) {
			case vNo:
				return vNo
			case vMaybe:
				out = vMaybe
			}
		}
		return out
	case opOr:
		out := vNo
		for _, child := range s.children {
			switch child.eval(c) {
			case vYes:
				return vYes
			case vMaybe:
				out = vMaybe
			}
		}
		return out
	case opNot:
		switch s.children[0].eval(c) {
		case vYes:
			return vNo
		case vNo:
			return vYes
		}
		return vMaybe
	}
	return vNo
}

// matchedRules collects the leaf rules that affirmatively matched c,
// skipping rules under an odd number of negations. Called only after
// eval returned vYes, so metadata needed by any decisive rule is
// already present.
func (s *Set) matchedRules(c *Candidate) []*Rule {
	var out []*Rule
	s.collectMatched(c, false, &out)
	return out
}

func (s *Set) collectMatched(c *Candidate, negated bool, out *[]*Rule) {
	switch s.op {
	case opLeaf:
		if !negated && s.rule.eval(c) == vYes {
			*out = append(*out, s.rule)
		}
	case opNot:
		s.children[0].collectMatched(c, !negated, out)
	default:
		for _, child := range s.children {
			child.collectMatched(c, negated, out)
		}
	}
}

// CanPrune reports whether the set provably cannot match any entry of
// type t at depth or deeper. t may be TypeUnknown to ask about every
// type. The walker skips a subtree, without listing it, when this holds
// for all entry types at the subtree's depth.
func (s *Set) CanPrune(depth int, t EntryType) bool {
	return !s.canMatchAtOrBelow(depth, t)
}

func (s *Set) canMatchAtOrBelow(depth int, t EntryType) bool {
	switch s.op {
	case opLeaf:
		return s.rule.canMatchAtOrBelow(depth, t)
	case opAnd:
		for _, child := range s.children {
			if !child.canMatchAtOrBelow(depth, t) {
				return false
			}
		}
		return true
	case opOr:
		for _, child := range s.children {
			if child.canMatchAtOrBelow(depth, t) {
				return true
			}
		}
		return false
	}
	// Negation could match almost anywhere; no proof is attempted.
	return true
}

// pruneBelow reports whether no entry of any type at depth or deeper
// can match.
func (s *Set) pruneBelow(depth int) bool {
	for _, t := range []EntryType{TypeFile, TypeDir, TypeSymlink, TypeOther} {
		if s.canMatchAtOrBelow(depth, t) {
			return false
		}
	}
	return true
}
