package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/activity"
	"github.com/Freeeeeet/edubook/internal/auth"
	"github.com/Freeeeeet/edubook/internal/config"
	"github.com/Freeeeeet/edubook/internal/notify"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/Freeeeeet/edubook/internal/service"
	"go.uber.org/zap"
)

// App собранное приложение: хранилище, репозитории, сессия и сервисы
type App struct {
	Repos     *repository.Repositories
	Sessions  *auth.SessionManager
	Booking   *service.BookingService
	Messaging *service.MessagingService
	Activity  *activity.Logger
	Scheduler *Scheduler

	logger     *zap.Logger
	closeStore func()
}

// New открывает хранилище, готовит коллекции и собирает сервисы.
// notifier nil - уведомления выбираются по конфигу.
func New(ctx context.Context, cfg *config.Config, notifier notify.Notifier, logger *zap.Logger) (*App, error) {
	if notifier == nil {
		var err error
		if notifier, err = newNotifier(cfg, logger); err != nil {
			return nil, err
		}
	}

	level, err := activity.ParseLevel(cfg.ActivityLogLevel)
	if err != nil {
		return nil, fmt.Errorf("activity log level: %w", err)
	}

	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	repos := repository.New(store, logger)
	if err := repos.Init(ctx); err != nil {
		closeStore()
		return nil, fmt.Errorf("init collections: %w", err)
	}

	activityLog := activity.New(repos.Activity, logger, activity.Options{
		Level: level,
		Limit: cfg.ActivityLogLimit,
		Sink:  notifier,
	})

	sessions, err := auth.NewSessionManager(ctx, repos, logger)
	if err != nil {
		closeStore()
		return nil, err
	}

	booking := service.NewBookingService(repos, activityLog, notifier, logger)

	return &App{
		Repos:      repos,
		Sessions:   sessions,
		Booking:    booking,
		Messaging:  service.NewMessagingService(repos, activityLog, logger),
		Activity:   activityLog,
		Scheduler:  NewScheduler(booking, cfg.ReminderCron, logger),
		logger:     logger,
		closeStore: closeStore,
	}, nil
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	if !cfg.NotificationsEnabled() {
		return notify.NopNotifier{}, nil
	}
	tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		return nil, err
	}
	logger.Info("Telegram notifications enabled", zap.Int64("chat_id", cfg.TelegramChatID))
	return tg, nil
}

// Run запускает планировщик и блокируется до отмены ctx
func (a *App) Run(ctx context.Context) error {
	a.Activity.LogSystemEvent(ctx, "startup", nil)

	if user := a.Sessions.CurrentUser(); user != nil {
		stats, err := a.Booking.Stats(ctx, service.ActorFromProfile(user))
		if err != nil {
			a.logger.Warn("Failed to load appointment stats", zap.Error(err))
		} else {
			a.logger.Info("Signed in",
				zap.String("user_id", user.ID),
				zap.String("role", string(user.Role)),
				zap.Int("appointments", stats.Total),
				zap.Int("pending", stats.Pending),
				zap.Int("upcoming", stats.Upcoming),
			)
		}
	}

	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	a.Scheduler.Stop()
	a.Activity.LogSystemEvent(context.WithoutCancel(ctx), "shutdown", nil)
	return nil
}

// Close закрывает хранилище
func (a *App) Close() {
	a.closeStore()
}
