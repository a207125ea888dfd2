package kvstore

import "context"

// Store строковое key-value хранилище, поверх которого живут все коллекции.
// Значения хранятся целиком, частичной записи нет.
type Store interface {
	// Get возвращает значение по ключу, ok=false если ключа нет
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set записывает значение целиком
	Set(ctx context.Context, key, value string) error
	// Remove удаляет ключ, отсутствие ключа не ошибка
	Remove(ctx context.Context, key string) error
}
