package main

import (
	"context"
	"encoding/json"
	"fmt"
)

// store owns the in-memory collection. Each mutation rewrites the whole
// snapshot in the cache before it returns; a failed write rolls the
// collection back.
type store struct {
	entries []entry
	cache   cache
}

func newStore(c cache) *store {
	return &store{
		entries: make([]entry, 0),
		cache:   c,
	}
}

// apply adopts a loaded snapshot wholesale. Remote snapshots are persisted,
// cached ones are already in the slot.
func (s *store) apply(ctx context.Context, snap snapshot) error {
	entries := append(make([]entry, 0, len(snap.Entries)), snap.Entries...)

	if snap.Origin == originRemote {
		if err := s.persist(ctx, entries); err != nil {
			return err
		}
	}

	s.entries = entries
	return nil
}

func (s *store) add(ctx context.Context, title, body string) (entry, error) {
	if err := validate(title, body); err != nil {
		return entry{}, err
	}

	id, err := nextID(s.entries)
	if err != nil {
		return entry{}, err
	}

	created := entry{ID: id, Title: title, Body: body}

	next := make([]entry, len(s.entries), len(s.entries)+1)
	copy(next, s.entries)
	next = append(next, created)

	if err := s.persist(ctx, next); err != nil {
		return entry{}, err
	}

	s.entries = next
	return created, nil
}

// update reports false without touching the cache when id is absent.
func (s *store) update(ctx context.Context, id int, title, body string) (bool, error) {
	if err := validate(title, body); err != nil {
		return false, err
	}

	index := s.indexOf(id)
	if index < 0 {
		return false, nil
	}

	next := s.snapshot()
	next[index].Title = title
	next[index].Body = body

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}

	s.entries = next
	return true, nil
}

func (s *store) remove(ctx context.Context, id int) (bool, error) {
	index := s.indexOf(id)
	if index < 0 {
		return false, nil
	}

	next := make([]entry, 0, len(s.entries)-1)
	next = append(next, s.entries[:index]...)
	next = append(next, s.entries[index+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return false, err
	}

	s.entries = next
	return true, nil
}

// reset empties both the collection and the slot so the next load goes
// back to the remote source.
func (s *store) reset(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	s.entries = make([]entry, 0)
	return nil
}

func (s *store) get(id int) (entry, bool) {
	index := s.indexOf(id)
	if index < 0 {
		return entry{}, false
	}

	return s.entries[index], true
}

func (s *store) list() []entry {
	return s.snapshot()
}

func (s *store) len() int {
	return len(s.entries)
}

func (s *store) indexOf(id int) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}

	return -1
}

func (s *store) snapshot() []entry {
	return append(make([]entry, 0, len(s.entries)), s.entries...)
}

func (s *store) persist(ctx context.Context, entries []entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}

	if err := s.cache.Write(ctx, data); err != nil {
		return fmt.Errorf("persist posts: %w", err)
	}

	return nil
}
