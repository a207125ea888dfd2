package base

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type record struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCollection(t *testing.T) (*Collection[record], *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return NewCollection[record](NewRepository(store, zap.NewNop()), "records"), store
}

func byID(id string) func(record) bool {
	return func(r record) bool { return r.ID == id }
}

func TestSaveAllLoadAllPreservesOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	want := []record{{ID: "c", Name: "third"}, {ID: "a", Name: "first"}, {ID: "b", Name: "second", Count: 2}}
	require.NoError(t, c.SaveAll(ctx, want))

	got, err := c.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadAllMissingKeyIsEmpty(t *testing.T) {
	c, _ := newTestCollection(t)

	got, err := c.LoadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadAllCorruptValueIsEmpty(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCollection(t)

	for _, raw := range []string{"{not json", `{"id":"x"}`, "null"} {
		require.NoError(t, store.Set(ctx, "records", raw))
		got, err := c.LoadAll(ctx)
		require.NoError(t, err, raw)
		assert.Empty(t, got, raw)
	}

	// запись поверх битого значения восстанавливает коллекцию
	require.NoError(t, c.Insert(ctx, record{ID: "a"}))
	got, err := c.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestUpdateWhere(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)
	require.NoError(t, c.Insert(ctx, record{ID: "a", Name: "old"}))
	require.NoError(t, c.Insert(ctx, record{ID: "b", Name: "other"}))

	updated, err := c.UpdateWhere(ctx, byID("a"), func(r *record) error {
		r.Name = "new"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)

	stored, ok, err := c.FindFirst(ctx, byID("a"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", stored.Name)

	_, err = c.UpdateWhere(ctx, byID("missing"), func(r *record) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateWherePatchErrorDiscardsChange(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)
	require.NoError(t, c.Insert(ctx, record{ID: "a", Name: "old"}))

	boom := errors.New("boom")
	_, err := c.UpdateWhere(ctx, byID("a"), func(r *record) error {
		r.Name = "changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, _, _ := c.FindFirst(ctx, byID("a"))
	assert.Equal(t, "old", stored.Name)
}

func TestDeleteWhereIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)
	require.NoError(t, c.SaveAll(ctx, []record{{ID: "a"}, {ID: "b"}, {ID: "a"}}))

	removed, err := c.DeleteWhere(ctx, byID("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = c.DeleteWhere(ctx, byID("a"))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	got, _ := c.LoadAll(ctx)
	assert.Equal(t, []record{{ID: "b"}}, got)
}

func TestUpdateAllCountsMatches(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)
	require.NoError(t, c.SaveAll(ctx, []record{{ID: "a", Name: "x"}, {ID: "b", Name: "y"}, {ID: "c", Name: "x"}}))

	n, err := c.UpdateAll(ctx, func(r record) bool { return r.Name == "x" }, func(r *record) { r.Count++ })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	filtered, err := c.Filter(ctx, func(r record) bool { return r.Count == 1 })
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestSeedIfAbsentOnlyOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	seeded, err := c.SeedIfAbsent(ctx, []record{{ID: "seed"}})
	require.NoError(t, err)
	assert.True(t, seeded)

	_, err = c.DeleteWhere(ctx, byID("seed"))
	require.NoError(t, err)

	seeded, err = c.SeedIfAbsent(ctx, []record{{ID: "seed"}})
	require.NoError(t, err)
	assert.False(t, seeded)

	got, _ := c.LoadAll(ctx)
	assert.Empty(t, got)
}

func TestConcurrentInsertsAreNotLost(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCollection(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Insert(ctx, record{ID: "x"}))
		}()
	}
	wg.Wait()

	got, err := c.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestWithKeysAllowsNestedCollectionCalls(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(kvstore.NewMemoryStore(), nil)
	first := NewCollection[record](repo, "first")
	second := NewCollection[record](repo, "second")

	err := repo.Locks().WithKeys(ctx, func(ctx context.Context) error {
		if err := first.Insert(ctx, record{ID: "a"}); err != nil {
			return err
		}
		return repo.Locks().WithKeys(ctx, func(ctx context.Context) error {
			return second.Insert(ctx, record{ID: "b"})
		}, "second", "first")
	}, "second", "first")
	require.NoError(t, err)

	got, _ := second.LoadAll(ctx)
	assert.Len(t, got, 1)
}

func TestNewIDFormat(t *testing.T) {
	repo := NewRepository(kvstore.NewMemoryStore(), nil)
	id := NewID("apt", repo.Now())
	assert.Regexp(t, `^apt_\d+_[0-9a-f]{9}$`, id)
	assert.NotEqual(t, id, NewID("apt", repo.Now()))
}
