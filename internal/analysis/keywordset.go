package analysis

import (
	"encoding/json"
	"slices"
)

// KeywordSet is an unordered set of keyword strings.
// The zero value is an empty set ready to use.
type KeywordSet struct {
	items map[string]struct{}
}

// NewKeywordSet returns a set holding the given keywords.
func NewKeywordSet(keywords ...string) KeywordSet {
	s := KeywordSet{items: make(map[string]struct{}, len(keywords))}
	for _, k := range keywords {
		s.items[k] = struct{}{}
	}
	return s
}

// Add inserts k.
func (s *KeywordSet) Add(k string) {
	if s.items == nil {
		s.items = make(map[string]struct{})
	}
	s.items[k] = struct{}{}
}

// Contains reports whether k is in the set.
func (s KeywordSet) Contains(k string) bool {
	_, ok := s.items[k]
	return ok
}

// Len returns the number of keywords.
func (s KeywordSet) Len() int {
	return len(s.items)
}

// Sorted returns the keywords in lexical order. Never nil.
func (s KeywordSet) Sorted() []string {
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Union returns a new set with the keywords of both sets.
func (s KeywordSet) Union(other KeywordSet) KeywordSet {
	out := NewKeywordSet()
	for k := range s.items {
		out.items[k] = struct{}{}
	}
	for k := range other.items {
		out.items[k] = struct{}{}
	}
	return out
}

// Intersect returns the keywords present in both sets.
func (s KeywordSet) Intersect(other KeywordSet) KeywordSet {
	out := NewKeywordSet()
	for k := range s.items {
		if other.Contains(k) {
			out.items[k] = struct{}{}
		}
	}
	return out
}

// Difference returns the keywords of s that are not in other.
func (s KeywordSet) Difference(other KeywordSet) KeywordSet {
	out := NewKeywordSet()
	for k := range s.items {
		if !other.Contains(k) {
			out.items[k] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold the same keywords.
func (s KeywordSet) Equal(other KeywordSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for k := range s.items {
		if !other.Contains(k) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array; an empty set is [].
func (s KeywordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON accepts an array of strings or null.
func (s *KeywordSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewKeywordSet(items...)
	return nil
}
