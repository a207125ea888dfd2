package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/edubook/internal/kvstore"
	"go.uber.org/zap"
)

// stepClock каждое обращение сдвигает время на step
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func newTestRepositories(t *testing.T) (*Repositories, *kvstore.MemoryStore, *stepClock) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	repos := New(store, zap.NewNop())
	clock := &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
	repos.DB.SetClock(clock.Now)
	return repos, store, clock
}

func ptr[T any](v T) *T {
	return &v
}
