package annotations

import (
	"sort"

	"github.com/google/uuid"
)

// Store is an ordered collection of annotations with a single selection.
// It is not safe for concurrent use.
type Store struct {
	items    []Annotation
	selected string
	newID    func() string
}

// NewStore returns an empty store that assigns random UUIDs.
func NewStore() *Store {
	return &Store{newID: func() string { return uuid.NewString() }}
}

// Add appends a copy of a with a fresh id, selects it and returns it.
func (s *Store) Add(a Annotation) Annotation {
	a.ID = s.newID()
	s.items = append(s.items, a)
	s.selected = a.ID
	return a
}

// Update merges p into the annotation with the given id. It reports false and
// changes nothing when the id is unknown.
func (s *Store) Update(id string, p Patch) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	p.apply(&s.items[i])
	return true
}

// Remove deletes the annotation. Removing the selected annotation clears the
// selection.
func (s *Store) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	return true
}

// Get returns the annotation with the given id.
func (s *Store) Get(id string) (Annotation, bool) {
	i := s.index(id)
	if i < 0 {
		return Annotation{}, false
	}
	return s.items[i], true
}

// ListForPage returns the annotations on page n in insertion order.
func (s *Store) ListForPage(n int) []Annotation {
	var out []Annotation
	for _, a := range s.items {
		if a.Page == n {
			out = append(out, a)
		}
	}
	return out
}

// GroupByPage returns the annotations keyed by page, each list in insertion order.
func (s *Store) GroupByPage() map[int][]Annotation {
	return GroupByPage(s.items)
}

// All returns a copy of every annotation in insertion order.
func (s *Store) All() []Annotation {
	out := make([]Annotation, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of annotations.
func (s *Store) Len() int { return len(s.items) }

// Select marks the annotation as selected. Unknown ids are ignored.
func (s *Store) Select(id string) bool {
	if s.index(id) < 0 {
		return false
	}
	s.selected = id
	return true
}

// Deselect clears the selection.
func (s *Store) Deselect() { s.selected = "" }

// Selected returns the selected annotation, if any.
func (s *Store) Selected() (Annotation, bool) {
	if s.selected == "" {
		return Annotation{}, false
	}
	return s.Get(s.selected)
}

// Reset discards every annotation and the selection. Ids handed out before the
// reset are never reused.
func (s *Store) Reset() {
	s.items = nil
	s.selected = ""
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// GroupByPage groups annotations by page, keeping their relative order.
func GroupByPage(items []Annotation) map[int][]Annotation {
	out := make(map[int][]Annotation)
	for _, a := range items {
		out[a.Page] = append(out[a.Page], a)
	}
	return out
}

// Pages returns the keys of a grouping in ascending order.
func Pages(groups map[int][]Annotation) []int {
	pages := make([]int, 0, len(groups))
	for p := range groups {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}
