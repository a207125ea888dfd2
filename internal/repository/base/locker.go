package base

import (
	"context"
	"sort"
	"sync"
)

type heldKeysKey struct{}

// Locker мьютекс на каждый ключ хранилища.
// Ключи, уже захваченные через WithKeys, передаются в ctx и повторно не блокируются.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker создаёт пустой набор блокировок
func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *Locker) mutex(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func heldKeys(ctx context.Context) map[string]struct{} {
	held, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	return held
}

// acquire захватывает ключ, если он ещё не захвачен вызывающим
func (l *Locker) acquire(ctx context.Context, key string) func() {
	if _, ok := heldKeys(ctx)[key]; ok {
		return func() {}
	}
	m := l.mutex(key)
	m.Lock()
	return m.Unlock
}

// WithKeys выполняет fn, удерживая блокировки всех keys.
// Ключи берутся в отсортированном порядке, чтобы два составных вызова не взаимоблокировались.
func (l *Locker) WithKeys(ctx context.Context, fn func(ctx context.Context) error, keys ...string) error {
	held := heldKeys(ctx)

	sorted := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := held[k]; ok {
			continue
		}
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		m := l.mutex(k)
		m.Lock()
		defer m.Unlock()
	}

	merged := make(map[string]struct{}, len(held)+len(sorted))
	for k := range held {
		merged[k] = struct{}{}
	}
	for _, k := range sorted {
		merged[k] = struct{}{}
	}

	return fn(context.WithValue(ctx, heldKeysKey{}, merged))
}
