package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ReminderSender рассылает напоминания о завтрашних записях
type ReminderSender interface {
	SendReminders(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSender
	spec      string
	logger    *zap.Logger
}

// NewScheduler создаёт планировщик, spec - cron выражение из пяти полей в UTC
func NewScheduler(reminders ReminderSender, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger{logger.Sugar()}),
		),
		reminders: reminders,
		spec:      spec,
		logger:    logger,
	}
}

// Start регистрирует задачи и запускает cron
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunReminders(ctx) }); err != nil {
		return fmt.Errorf("schedule reminders %q: %w", s.spec, err)
	}

	s.logger.Info("Starting background scheduler", zap.String("reminder_cron", s.spec))
	s.cron.Start()
	return nil
}

// Stop останавливает cron и ждёт завершения запущенных задач
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// RunReminders один запуск рассылки напоминаний
func (s *Scheduler) RunReminders(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sent, err := s.reminders.SendReminders(ctx)
	if err != nil {
		s.logger.Error("Failed to send reminders", zap.Error(err))
		return
	}

	s.logger.Info("Reminder job completed", zap.Int("sent", sent))
}

// cronLogger направляет вывод cron в zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
