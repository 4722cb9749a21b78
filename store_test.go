package main

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct {
	*memoryCache
	err error
}

func (b *brokenCache) Write(ctx context.Context, data []byte) error {
	return b.err
}

func seeded(t *testing.T, entries ...entry) (*store, *memoryCache) {
	t.Helper()

	c := newMemoryCache("posts")
	s := newStore(c)
	require.NoError(t, s.apply(context.Background(), snapshot{Entries: entries, Origin: originRemote}))

	return s, c
}

func cached(t *testing.T, c cache) []entry {
	t.Helper()

	data, ok, err := c.Read(context.Background())
	require.NoError(t, err)
	require.True(t, ok, "expected a snapshot in the cache")

	var entries []entry
	require.NoError(t, json.Unmarshal(data, &entries))

	return entries
}

func TestAddAssignsNextID(t *testing.T) {
	s, c := seeded(t, entry{ID: 1, Title: "A", Body: "B"})

	created, err := s.add(context.Background(), "C", "D")

	require.NoError(t, err)
	assert.Equal(t, entry{ID: 2, Title: "C", Body: "D"}, created)
	assert.Equal(t, 2, s.len())
	assert.Equal(t, s.list(), cached(t, c))
}

func TestAddToEmptyCollectionStartsAtOne(t *testing.T) {
	s := newStore(newMemoryCache("posts"))

	created, err := s.add(context.Background(), "first", "post")

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
}

func TestAddUsesMaxIDNotLength(t *testing.T) {
	s, _ := seeded(t, entry{ID: 7, Title: "a", Body: "b"}, entry{ID: 3, Title: "c", Body: "d"})

	created, err := s.add(context.Background(), "e", "f")

	require.NoError(t, err)
	assert.Equal(t, 8, created.ID)
}

func TestAddRejectsBlankFields(t *testing.T) {
	s, c := seeded(t, entry{ID: 1, Title: "A", Body: "B"})

	for _, tc := range []struct{ title, body string }{
		{"", "body"},
		{"title", ""},
		{"   ", "body"},
		{"title", "\n\t"},
	} {
		_, err := s.add(context.Background(), tc.title, tc.body)
		assert.ErrorIs(t, err, ErrInvalidEntry)
	}

	assert.Equal(t, 1, s.len())
	assert.Len(t, cached(t, c), 1)
}

func TestUpdateReplacesOnlyMatchingEntry(t *testing.T) {
	s, c := seeded(t,
		entry{ID: 1, Title: "A", Body: "B"},
		entry{ID: 2, Title: "C", Body: "D"},
	)

	ok, err := s.update(context.Background(), 2, "changed", "text")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []entry{
		{ID: 1, Title: "A", Body: "B"},
		{ID: 2, Title: "changed", Body: "text"},
	}, s.list())
	assert.Equal(t, s.list(), cached(t, c))
}

func TestUpdateAbsentIDIsNoop(t *testing.T) {
	s, c := seeded(t, entry{ID: 1, Title: "A", Body: "B"})
	before := s.list()

	ok, err := s.update(context.Background(), 42, "x", "y")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, s.list())
	assert.Equal(t, before, cached(t, c))
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, c := seeded(t, entry{ID: 5, Title: "A", Body: "B"})

	removed, err := s.remove(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.remove(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, 0, s.len())
	assert.Empty(t, cached(t, c))

	data, _, _ := c.Read(context.Background())
	assert.JSONEq(t, `[]`, string(data))
}

func TestSnapshotMatchesMemoryAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	s, c := seeded(t, entry{ID: 1, Title: "one", Body: "1"})

	steps := []func() error{
		func() error { _, err := s.add(ctx, "two", "2"); return err },
		func() error { _, err := s.update(ctx, 1, "uno", "1"); return err },
		func() error { _, err := s.remove(ctx, 2); return err },
		func() error { _, err := s.add(ctx, "three", "3"); return err },
		func() error { _, err := s.remove(ctx, 99); return err },
		func() error { _, err := s.update(ctx, 99, "x", "y"); return err },
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assert.Equal(t, s.list(), cached(t, c), "step %d", i)
	}
}

func TestFailedWriteRollsBack(t *testing.T) {
	ctx := context.Background()
	c := &brokenCache{memoryCache: newMemoryCache("posts"), err: errors.New("disk full")}
	s := newStore(c)
	s.entries = []entry{{ID: 1, Title: "A", Body: "B"}}

	_, err := s.add(ctx, "C", "D")
	assert.ErrorIs(t, err, c.err)

	_, err = s.update(ctx, 1, "X", "Y")
	assert.ErrorIs(t, err, c.err)

	_, err = s.remove(ctx, 1)
	assert.ErrorIs(t, err, c.err)

	assert.Equal(t, []entry{{ID: 1, Title: "A", Body: "B"}}, s.list())
}

func TestApplyFromCacheDoesNotRewriteSlot(t *testing.T) {
	c := &brokenCache{memoryCache: newMemoryCache("posts"), err: errors.New("read only")}
	s := newStore(c)

	err := s.apply(context.Background(), snapshot{
		Entries: []entry{{ID: 1, Title: "A", Body: "B"}},
		Origin:  originCache,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, s.len())
}

func TestListReturnsCopy(t *testing.T) {
	s, _ := seeded(t, entry{ID: 1, Title: "A", Body: "B"})

	entries := s.list()
	entries[0].Title = "mutated"

	e, ok := s.get(1)
	require.True(t, ok)
	assert.Equal(t, "A", e.Title)
}

func TestReset(t *testing.T) {
	s, c := seeded(t, entry{ID: 1, Title: "A", Body: "B"})

	require.NoError(t, s.reset(context.Background()))

	assert.Equal(t, 0, s.len())
	_, ok, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddFailsWhenIDSpaceIsExhausted(t *testing.T) {
	s, c := seeded(t, entry{ID: math.MaxInt, Title: "A", Body: "B"})

	_, err := s.add(context.Background(), "C", "D")
	assert.ErrorContains(t, err, "no id left")

	_, err = s.add(context.Background(), "E", "F")
	assert.Error(t, err)

	assert.Equal(t, []entry{{ID: math.MaxInt, Title: "A", Body: "B"}}, s.list())
	assert.Equal(t, s.list(), cached(t, c))
}

func TestCheckUnique(t *testing.T) {
	assert.NoError(t, checkUnique(nil))
	assert.NoError(t, checkUnique([]entry{{ID: 1}, {ID: 2}}))

	err := checkUnique([]entry{{ID: 1}, {ID: 2}, {ID: 1}})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorContains(t, err, ": 1")
}
