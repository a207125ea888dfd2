package activity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/notify"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLimit     = 1000
	defaultQueryTail = 100
)

// Options настройки журнала
type Options struct {
	Context string              // метка источника, по умолчанию "Application"
	Level   model.ActivityLevel // минимальный уровень записи
	Limit   int                 // сколько последних записей хранить
	Sink    notify.Notifier     // получает ERROR и FATAL, может быть nil
}

// Logger журнал действий пользователя.
// Пишет записи в хранилище и дублирует их в zap. Ошибки записи наружу не отдаются.
type Logger struct {
	repo      *repository.ActivityRepository
	logger    *zap.Logger
	sink      notify.Notifier
	context   string
	sessionID string
	limit     int
	now       func() time.Time

	level *levelHolder
}

type levelHolder struct {
	mu    sync.RWMutex
	level model.ActivityLevel
}

func (h *levelHolder) get() model.ActivityLevel {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.level
}

func (h *levelHolder) set(level model.ActivityLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// New создаёт журнал с новым идентификатором сессии
func New(repo *repository.ActivityRepository, logger *zap.Logger, opts Options) *Logger {
	if opts.Context == "" {
		opts.Context = "Application"
	}
	if opts.Level == "" {
		opts.Level = model.ActivityInfo
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Logger{
		repo:      repo,
		logger:    logger,
		sink:      opts.Sink,
		context:   opts.Context,
		sessionID: uuid.NewString(),
		limit:     opts.Limit,
		now:       func() time.Time { return time.Now().UTC() },
		level:     &levelHolder{level: opts.Level},
	}
}

// ParseLevel разбирает уровень без учёта регистра
func ParseLevel(s string) (model.ActivityLevel, error) {
	level := model.ActivityLevel(strings.ToUpper(strings.TrimSpace(s)))
	switch level {
	case model.ActivityDebug, model.ActivityInfo, model.ActivityWarn, model.ActivityError, model.ActivityFatal:
		return level, nil
	}
	return "", fmt.Errorf("unknown activity level %q", s)
}

// With возвращает журнал с другой меткой источника; сессия, уровень и хранилище общие
func (l *Logger) With(name string) *Logger {
	cp := *l
	cp.context = name
	return &cp
}

// SessionID идентификатор сессии журнала
func (l *Logger) SessionID() string {
	return l.sessionID
}

// Level текущий минимальный уровень
func (l *Logger) Level() model.ActivityLevel {
	return l.level.get()
}

// SetLevel меняет минимальный уровень
func (l *Logger) SetLevel(ctx context.Context, level model.ActivityLevel) {
	l.level.set(level)
	l.Info(ctx, "Log level changed", map[string]any{"newLevel": string(level)})
}

// Log записывает событие, если уровень не ниже текущего
func (l *Logger) Log(ctx context.Context, level model.ActivityLevel, message string, data map[string]any) {
	if level.Priority() < l.level.get().Priority() {
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	entry := model.ActivityEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Level:     level,
		Context:   l.context,
		Message:   message,
		Data:      data,
		SessionID: l.sessionID,
	}

	l.mirror(entry)

	if err := l.repo.Append(ctx, entry, l.limit); err != nil {
		l.logger.Warn("Failed to store activity entry", zap.Error(err))
	}

	if l.sink != nil && level.Priority() >= model.ActivityError.Priority() {
		text := fmt.Sprintf("%s [%s] %s", entry.Level, entry.Context, entry.Message)
		if err := l.sink.Notify(ctx, text); err != nil {
			l.logger.Warn("Failed to forward activity entry", zap.Error(err))
		}
	}
}

// mirror дублирует запись в zap. FATAL пишется как Error: журнал не завершает процесс.
func (l *Logger) mirror(entry model.ActivityEntry) {
	fields := []zap.Field{
		zap.String("context", entry.Context),
		zap.String("session_id", entry.SessionID),
		zap.Any("data", entry.Data),
	}
	switch entry.Level {
	case model.ActivityDebug:
		l.logger.Debug(entry.Message, fields...)
	case model.ActivityInfo:
		l.logger.Info(entry.Message, fields...)
	case model.ActivityWarn:
		l.logger.Warn(entry.Message, fields...)
	default:
		l.logger.Error(entry.Message, fields...)
	}
}

func (l *Logger) Debug(ctx context.Context, message string, data map[string]any) {
	l.Log(ctx, model.ActivityDebug, message, data)
}

func (l *Logger) Info(ctx context.Context, message string, data map[string]any) {
	l.Log(ctx, model.ActivityInfo, message, data)
}

func (l *Logger) Warn(ctx context.Context, message string, data map[string]any) {
	l.Log(ctx, model.ActivityWarn, message, data)
}

func (l *Logger) Error(ctx context.Context, message string, data map[string]any) {
	l.Log(ctx, model.ActivityError, message, data)
}

func (l *Logger) Fatal(ctx context.Context, message string, data map[string]any) {
	l.Log(ctx, model.ActivityFatal, message, data)
}

// LogUserAction действие пользователя, userID пустой для анонимных действий
func (l *Logger) LogUserAction(ctx context.Context, userID, action string, details map[string]any) {
	if userID == "" {
		userID = "anonymous"
	}
	l.Info(ctx, "User action: "+action, map[string]any{
		"action":  action,
		"details": details,
		"userId":  userID,
	})
}

// LogSystemEvent системное событие
func (l *Logger) LogSystemEvent(ctx context.Context, event string, details map[string]any) {
	l.Info(ctx, "System event: "+event, map[string]any{
		"event":   event,
		"details": details,
	})
}

// LogDatabaseOperation операция с хранилищем; неуспешная пишется как ERROR
func (l *Logger) LogDatabaseOperation(ctx context.Context, operation, collection, document string, opErr error) {
	level := model.ActivityInfo
	data := map[string]any{
		"operation":  operation,
		"collection": collection,
		"document":   document,
		"success":    opErr == nil,
	}
	if opErr != nil {
		level = model.ActivityError
		data["error"] = opErr.Error()
	}
	l.Log(ctx, level, "Database "+operation, data)
}

// Time запускает таймер, возвращённая функция пишет длительность
func (l *Logger) Time(ctx context.Context, label string) func() time.Duration {
	start := time.Now()
	l.Debug(ctx, "Timer started: "+label, nil)
	return func() time.Duration {
		d := time.Since(start)
		l.Info(ctx, "Timer finished: "+label, map[string]any{"duration": d.String()})
		return d
	}
}

// Entries возвращает последние limit записей, level пустой - все уровни
func (l *Logger) Entries(ctx context.Context, level model.ActivityLevel, limit int) ([]model.ActivityEntry, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if level != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Level == level {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if limit <= 0 {
		limit = defaultQueryTail
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// Stats считает записи по уровням
func (l *Logger) Stats(ctx context.Context) (model.ActivityStats, error) {
	entries, err := l.repo.List(ctx)
	if err != nil {
		return model.ActivityStats{}, err
	}

	stats := model.ActivityStats{Total: len(entries)}
	for _, e := range entries {
		switch e.Level {
		case model.ActivityDebug:
			stats.Debug++
		case model.ActivityInfo:
			stats.Info++
		case model.ActivityWarn:
			stats.Warn++
		case model.ActivityError:
			stats.Error++
		case model.ActivityFatal:
			stats.Fatal++
		}
	}
	return stats, nil
}

// Clear удаляет журнал и оставляет в нём запись об очистке
func (l *Logger) Clear(ctx context.Context) error {
	if err := l.repo.Clear(ctx); err != nil {
		return err
	}
	l.Info(ctx, "All logs cleared", nil)
	return nil
}
