package session

import (
	"fmt"

	"github.com/digitorus/pdfmark"
	"github.com/digitorus/pdfmark/annotations"
	"github.com/digitorus/pdfmark/drag"
	"github.com/digitorus/pdfmark/images"
)

// AddText adds a text annotation with the session defaults on the displayed page
// and selects it.
func (s *Session) AddText() (annotations.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return annotations.Annotation{}, ErrNoDocument
	}

	d := s.opts.Text
	return s.store.Add(annotations.Annotation{
		Kind:       annotations.Text,
		Page:       s.page,
		Text:       d.Text,
		FontFamily: d.FontFamily,
		FontSize:   d.FontSize,
		Color:      d.Color,
		X:          d.X,
		Y:          d.Y,
	}), nil
}

// AddImage places img on the displayed page at (x, y) with the given size and
// selects it.
func (s *Session) AddImage(img *images.Image, x, y, width, height float64) (annotations.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return annotations.Annotation{}, ErrNoDocument
	}

	a := annotations.Annotation{
		Kind:   annotations.Image,
		Page:   s.page,
		Image:  img,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
	if err := a.Validate(); err != nil {
		return annotations.Annotation{}, fmt.Errorf("%w: %v", pdfmark.ErrInvalidInput, err)
	}
	return s.store.Add(a), nil
}

// Add stores a fully specified annotation, for example one read from a file.
func (s *Session) Add(a annotations.Annotation) annotations.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Add(a)
}

// Update applies p to the annotation. Unknown ids are ignored.
func (s *Session) Update(id string, p annotations.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Update(id, p)
}

// Remove deletes the annotation, clearing the selection if it was selected.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag.Active() == id {
		s.drag.Cancel()
	}
	return s.store.Remove(id)
}

// Select selects the annotation.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Select(id)
}

// Selected returns the selected annotation.
func (s *Session) Selected() (annotations.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Selected()
}

// Get returns the annotation with the given id.
func (s *Session) Get(id string) (annotations.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Annotations returns the annotations of page n in insertion order.
func (s *Session) Annotations(n int) []annotations.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListForPage(n)
}

// All returns every annotation in insertion order.
func (s *Session) All() []annotations.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.All()
}

// PointerDown grabs the annotation under the display point and returns its id,
// or clears the selection when the background was hit.
func (s *Session) PointerDown(px, py float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.PointerDown(px, py)
}

// PointerMove drags the held annotation.
func (s *Session) PointerMove(px, py float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.PointerMove(px, py)
}

// PointerUp releases the held annotation.
func (s *Session) PointerUp(px, py float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.PointerUp(px, py)
}

// PointerLeave releases the held annotation like PointerUp.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.PointerLeave()
}

// BackgroundClick clears the selection.
func (s *Session) BackgroundClick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.Background()
}

// DragState returns the drag controller state.
func (s *Session) DragState() drag.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.State()
}

// SetGrid changes the snapping grid. Zero disables snapping.
func (s *Session) SetGrid(grid float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag.SetGrid(grid)
}
