package main

import (
	"context"
	"errors"
	"fmt"
)

var errNoDraft = errors.New("nothing is being edited")

type mode int

const (
	modeIdle mode = iota
	modeEditing
	modeComposing
)

type (
	editDraft struct {
		ID    int
		Title string
		Body  string
	}

	newDraft struct {
		Title string
		Body  string
	}
)

// session holds at most one draft at a time. Field input is routed to
// whichever slot the current mode selects.
type session struct {
	store   *store
	mode    mode
	edit    editDraft
	compose newDraft
}

func newSession(s *store) *session {
	return &session{store: s}
}

func (s *session) beginEdit(id int) bool {
	e, ok := s.store.get(id)
	if !ok {
		return false
	}

	s.discard()
	s.mode = modeEditing
	s.edit = editDraft{ID: e.ID, Title: e.Title, Body: e.Body}

	return true
}

func (s *session) beginNew() {
	s.discard()
	s.mode = modeComposing
}

func (s *session) setField(field, value string) error {
	var title, body *string

	switch s.mode {
	case modeEditing:
		title, body = &s.edit.Title, &s.edit.Body
	case modeComposing:
		title, body = &s.compose.Title, &s.compose.Body
	default:
		return errNoDraft
	}

	switch field {
	case "title":
		*title = value
	case "body":
		*body = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	return nil
}

// commit writes the active draft through the store. The draft is kept
// when the store rejects it so the user can correct the input.
func (s *session) commit(ctx context.Context) (entry, bool, error) {
	switch s.mode {
	case modeEditing:
		draft := s.edit
		ok, err := s.store.update(ctx, draft.ID, draft.Title, draft.Body)
		if err != nil {
			return entry{}, false, err
		}

		s.discard()
		if !ok {
			return entry{}, false, nil
		}

		return entry{ID: draft.ID, Title: draft.Title, Body: draft.Body}, true, nil

	case modeComposing:
		created, err := s.store.add(ctx, s.compose.Title, s.compose.Body)
		if err != nil {
			return entry{}, false, err
		}

		s.discard()
		return created, true, nil
	}

	return entry{}, false, errNoDraft
}

func (s *session) discard() {
	s.mode = modeIdle
	s.edit = editDraft{}
	s.compose = newDraft{}
}
