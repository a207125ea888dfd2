package base

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrStoreCorrupt значение в хранилище не разбирается как JSON.
	// Наружу не отдаётся: коллекция считается пустой.
	ErrStoreCorrupt = errors.New("store value corrupt")
)

// Repository базовый репозиторий с общими зависимостями коллекций
type Repository struct {
	store  kvstore.Store
	locks  *Locker
	logger *zap.Logger
	clock  func() time.Time
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(store kvstore.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:  store,
		locks:  NewLocker(),
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Store возвращает хранилище
func (r *Repository) Store() kvstore.Store {
	return r.store
}

// Locks возвращает блокировки по ключам
func (r *Repository) Locks() *Locker {
	return r.locks
}

// Logger возвращает логгер
func (r *Repository) Logger() *zap.Logger {
	return r.logger
}

// SetClock подменяет источник времени (для тестов)
func (r *Repository) SetClock(clock func() time.Time) {
	r.clock = clock
}

// Now возвращает текущее время по часам репозитория
func (r *Repository) Now() time.Time {
	return r.clock()
}

// NewID генерирует идентификатор вида prefix_<ms>_<suffix>.
// Уникальность вероятностная.
func NewID(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// IsNotFound проверяет является ли ошибка "запись не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
