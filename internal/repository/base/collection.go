package base

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Collection упорядоченный набор записей, хранящийся одним JSON-массивом под ключом key.
// Каждая операция читает массив целиком и, если меняет его, целиком записывает обратно.
type Collection[T any] struct {
	repo *Repository
	key  string
}

// NewCollection создаёт коллекцию под ключом key
func NewCollection[T any](repo *Repository, key string) *Collection[T] {
	return &Collection[T]{repo: repo, key: key}
}

// Key возвращает ключ коллекции в хранилище
func (c *Collection[T]) Key() string {
	return c.key
}

// LoadAll читает всю коллекцию.
// Отсутствующее или битое значение даёт пустой срез.
func (c *Collection[T]) LoadAll(ctx context.Context) ([]T, error) {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	return c.load(ctx)
}

// SaveAll перезаписывает коллекцию целиком
func (c *Collection[T]) SaveAll(ctx context.Context, items []T) error {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	return c.save(ctx, items)
}

// Insert добавляет запись в конец. ID должен быть заполнен вызывающим.
func (c *Collection[T]) Insert(ctx context.Context, item T) error {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	return c.save(ctx, append(items, item))
}

// UpdateWhere применяет patch к первой записи, для которой match вернул true.
// Ошибка из patch отменяет запись. Если совпадений нет, возвращает ErrNotFound.
func (c *Collection[T]) UpdateWhere(ctx context.Context, match func(T) bool, patch func(*T) error) (T, error) {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	var zero T
	items, err := c.load(ctx)
	if err != nil {
		return zero, err
	}

	for i := range items {
		if !match(items[i]) {
			continue
		}
		if err := patch(&items[i]); err != nil {
			return zero, err
		}
		if err := c.save(ctx, items); err != nil {
			return zero, err
		}
		return items[i], nil
	}

	return zero, fmt.Errorf("%s: %w", c.key, ErrNotFound)
}

// UpdateAll применяет patch ко всем совпавшим записям, возвращает их число
func (c *Collection[T]) UpdateAll(ctx context.Context, match func(T) bool, patch func(*T)) (int, error) {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	items, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range items {
		if match(items[i]) {
			patch(&items[i])
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, c.save(ctx, items)
}

// DeleteWhere удаляет все совпавшие записи. Ноль совпадений не ошибка.
func (c *Collection[T]) DeleteWhere(ctx context.Context, match func(T) bool) (int, error) {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	items, err := c.load(ctx)
	if err != nil {
		return 0, err
	}

	kept := items[:0]
	for _, item := range items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	removed := len(items) - len(kept)

	// Коллекция перезаписывается и при нуле удалённых
	if err := c.save(ctx, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Rewrite читает коллекцию, отдаёт её в fn и сохраняет результат
func (c *Collection[T]) Rewrite(ctx context.Context, fn func([]T) ([]T, error)) error {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.save(ctx, items)
}

// FindFirst возвращает первую совпавшую запись
func (c *Collection[T]) FindFirst(ctx context.Context, match func(T) bool) (T, bool, error) {
	var zero T
	items, err := c.LoadAll(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if match(item) {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Filter возвращает все совпавшие записи в порядке хранения
func (c *Collection[T]) Filter(ctx context.Context, match func(T) bool) ([]T, error) {
	items, err := c.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Exists проверяет есть ли хотя бы одна совпавшая запись
func (c *Collection[T]) Exists(ctx context.Context, match func(T) bool) (bool, error) {
	_, ok, err := c.FindFirst(ctx, match)
	return ok, err
}

// SeedIfAbsent записывает items, только если ключа в хранилище ещё нет.
// Повторный вызов ничего не меняет.
func (c *Collection[T]) SeedIfAbsent(ctx context.Context, items []T) (bool, error) {
	release := c.repo.locks.acquire(ctx, c.key)
	defer release()

	_, ok, err := c.repo.store.Get(ctx, c.key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", c.key, err)
	}
	if ok {
		return false, nil
	}
	if items == nil {
		items = []T{}
	}
	return true, c.save(ctx, items)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.repo.store.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.repo.logger.Warn("Collection value corrupt, treating as empty",
			zap.String("key", c.key),
			zap.Error(fmt.Errorf("%w: %v", ErrStoreCorrupt, err)),
		)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}

	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.repo.store.Set(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}
