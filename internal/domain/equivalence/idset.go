// Package equivalence provides the core value types of the OntoLink engine:
// identifiers, equivalence classes of identifiers, synonym terms, curations
// and mappings.  All set types are immutable after construction and compare
// structurally via canonical keys, so they can be used as map keys and
// deduplicated safely across the ingestion, curation and linking layers.
package equivalence

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/turtacn/ontolink/pkg/errors"
)

// Key separators.  Unit separator between id and source, record separator
// between pairs, group separator between equivalent id sets.  These never
// appear in ontology identifiers.
const (
	unitSep   = "\x1f"
	recordSep = "\x1e"
	groupSep  = "\x1d"
)

// IDAndSource names a concept within one ontology source.  The identifier is
// opaque (an IRI or code); it is always paired with the source it came from.
type IDAndSource struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// EquivalentIDSet is an immutable set of (id, source) pairs believed to
// denote the same real-world concept.  It is never empty.  Two sets are equal
// iff their pair sets are equal; Key() yields a canonical string usable as a
// map key.
type EquivalentIDSet struct {
	pairs []IDAndSource
	key   string
}

// NewEquivalentIDSet constructs an EquivalentIDSet from one or more pairs.
// Duplicates are removed; pairs are stored in a canonical sorted order.
// Returns an error if the resulting set would be empty.
func NewEquivalentIDSet(pairs ...IDAndSource) (EquivalentIDSet, error) {
	seen := make(map[IDAndSource]struct{}, len(pairs))
	uniq := make([]IDAndSource, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
	}
	if len(uniq) == 0 {
		return EquivalentIDSet{}, errors.New(errors.CodeEmptyIDSet, "equivalent id set must contain at least one id")
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].ID != uniq[j].ID {
			return uniq[i].ID < uniq[j].ID
		}
		return uniq[i].Source < uniq[j].Source
	})
	parts := make([]string, len(uniq))
	for i, p := range uniq {
		parts[i] = p.ID + unitSep + p.Source
	}
	return EquivalentIDSet{pairs: uniq, key: strings.Join(parts, recordSep)}, nil
}

// MustNewEquivalentIDSet is a test/fixture convenience that panics on error.
func MustNewEquivalentIDSet(pairs ...IDAndSource) EquivalentIDSet {
	s, err := NewEquivalentIDSet(pairs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Key returns the canonical identity of this set.  Equal sets have equal keys.
func (s EquivalentIDSet) Key() string { return s.key }

// IsZero reports whether the set is the uninitialised zero value.
func (s EquivalentIDSet) IsZero() bool { return len(s.pairs) == 0 }

// Size returns the number of (id, source) pairs.
func (s EquivalentIDSet) Size() int { return len(s.pairs) }

// Pairs returns a copy of the member pairs in canonical order.
func (s EquivalentIDSet) Pairs() []IDAndSource {
	out := make([]IDAndSource, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// IDs returns the member ids in canonical order.
func (s EquivalentIDSet) IDs() []string {
	out := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = p.ID
	}
	return out
}

// Contains reports whether the set includes the given id (any source).
func (s EquivalentIDSet) Contains(id string) bool {
	for _, p := range s.pairs {
		if p.ID == id {
			return true
		}
	}
	return false
}

// SourceOf returns the source paired with id, if present.
func (s EquivalentIDSet) SourceOf(id string) (string, bool) {
	for _, p := range s.pairs {
		if p.ID == id {
			return p.Source, true
		}
	}
	return "", false
}

// Equal reports structural equality with other.
func (s EquivalentIDSet) Equal(other EquivalentIDSet) bool { return s.key == other.key }

// Without returns a copy of the set with every pair carrying id removed.
// The second return value is false when the removal empties the set, in
// which case the zero value is returned.
func (s EquivalentIDSet) Without(id string) (EquivalentIDSet, bool) {
	remaining := make([]IDAndSource, 0, len(s.pairs))
	for _, p := range s.pairs {
		if p.ID != id {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		return EquivalentIDSet{}, false
	}
	if len(remaining) == len(s.pairs) {
		return s, true
	}
	out, _ := NewEquivalentIDSet(remaining...)
	return out, true
}

// MarshalJSON encodes the set as a JSON array of {"id","source"} objects.
func (s EquivalentIDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.pairs)
}

// UnmarshalJSON decodes a JSON array of {"id","source"} objects.
func (s *EquivalentIDSet) UnmarshalJSON(data []byte) error {
	var pairs []IDAndSource
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	decoded, err := NewEquivalentIDSet(pairs...)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// AssociatedIDSets is an immutable set of EquivalentIDSets: all the distinct
// concepts a single surface-form synonym could plausibly denote.  Members
// are expected to be pairwise disjoint; that invariant is validated by the
// ingestion producer via CheckDisjoint, not by the constructor, to allow
// flexible construction during curation edits.
type AssociatedIDSets struct {
	sets []EquivalentIDSet
	key  string
}

// NewAssociatedIDSets constructs an AssociatedIDSets from zero or more
// EquivalentIDSets.  Duplicates (by key) are removed; members are stored in
// canonical key order.  An empty value is legal and reported by IsEmpty;
// callers drop terms whose sets have been emptied by curation.
func NewAssociatedIDSets(sets ...EquivalentIDSet) AssociatedIDSets {
	seen := make(map[string]struct{}, len(sets))
	uniq := make([]EquivalentIDSet, 0, len(sets))
	for _, s := range sets {
		if s.IsZero() {
			continue
		}
		if _, ok := seen[s.key]; ok {
			continue
		}
		seen[s.key] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].key < uniq[j].key })
	keys := make([]string, len(uniq))
	for i, s := range uniq {
		keys[i] = s.key
	}
	return AssociatedIDSets{sets: uniq, key: strings.Join(keys, groupSep)}
}

// Key returns the canonical identity of this collection.
func (a AssociatedIDSets) Key() string { return a.key }

// Size returns the number of member EquivalentIDSets.
func (a AssociatedIDSets) Size() int { return len(a.sets) }

// IsEmpty reports whether no EquivalentIDSets remain.
func (a AssociatedIDSets) IsEmpty() bool { return len(a.sets) == 0 }

// Sets returns a copy of the member EquivalentIDSets in canonical order.
func (a AssociatedIDSets) Sets() []EquivalentIDSet {
	out := make([]EquivalentIDSet, len(a.sets))
	copy(out, a.sets)
	return out
}

// Contains reports whether the given EquivalentIDSet is a member.
func (a AssociatedIDSets) Contains(set EquivalentIDSet) bool {
	for _, s := range a.sets {
		if s.key == set.key {
			return true
		}
	}
	return false
}

// SubsetOf reports whether every member of a is also a member of other.
func (a AssociatedIDSets) SubsetOf(other AssociatedIDSets) bool {
	for _, s := range a.sets {
		if !other.Contains(s) {
			return false
		}
	}
	return true
}

// Equal reports structural equality with other.
func (a AssociatedIDSets) Equal(other AssociatedIDSets) bool { return a.key == other.key }

// AllIDs returns the union of member ids across all EquivalentIDSets, in
// canonical order.
func (a AssociatedIDSets) AllIDs() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range a.sets {
		for _, id := range s.IDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ContainsAllIDs reports whether every id in ids appears somewhere in the
// collection.
func (a AssociatedIDSets) ContainsAllIDs(ids []string) bool {
	members := make(map[string]struct{})
	for _, s := range a.sets {
		for _, id := range s.IDs() {
			members[id] = struct{}{}
		}
	}
	for _, id := range ids {
		if _, ok := members[id]; !ok {
			return false
		}
	}
	return true
}

// WithoutID returns a copy of the collection with id removed from every
// member set; member sets emptied by the removal are dropped.
func (a AssociatedIDSets) WithoutID(id string) AssociatedIDSets {
	remaining := make([]EquivalentIDSet, 0, len(a.sets))
	for _, s := range a.sets {
		if updated, ok := s.Without(id); ok {
			remaining = append(remaining, updated)
		}
	}
	return NewAssociatedIDSets(remaining...)
}

// Without returns a copy of the collection with the given member removed.
func (a AssociatedIDSets) Without(set EquivalentIDSet) AssociatedIDSets {
	remaining := make([]EquivalentIDSet, 0, len(a.sets))
	for _, s := range a.sets {
		if s.key != set.key {
			remaining = append(remaining, s)
		}
	}
	return NewAssociatedIDSets(remaining...)
}

// MarshalJSON encodes the collection as a JSON array of EquivalentIDSet
// arrays.
func (a AssociatedIDSets) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.sets)
}

// UnmarshalJSON decodes a JSON array of EquivalentIDSet arrays.
func (a *AssociatedIDSets) UnmarshalJSON(data []byte) error {
	var sets []EquivalentIDSet
	if err := json.Unmarshal(data, &sets); err != nil {
		return err
	}
	*a = NewAssociatedIDSets(sets...)
	return nil
}

// CheckDisjoint validates that the member EquivalentIDSets are pairwise
// disjoint.  A violation indicates the upstream ontology data (or a curation
// edit) is self-contradictory and must abort the affected parser's ingestion.
func CheckDisjoint(a AssociatedIDSets) error {
	seen := make(map[string]struct{})
	for _, s := range a.sets {
		for _, id := range s.IDs() {
			if _, ok := seen[id]; ok {
				return errors.New(errors.CodeDisjointnessViolation,
					"identifier appears in two equivalent id sets").
					WithDetail("id=" + id)
			}
			seen[id] = struct{}{}
		}
	}
	return nil
}
