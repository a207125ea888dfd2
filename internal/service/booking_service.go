package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Freeeeeet/edubook/internal/activity"
	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/notify"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// BookRequest запрос студента на запись
type BookRequest struct {
	StudentID string `validate:"required"`
	TeacherID string `validate:"required"`
	Date      string `validate:"required,datetime=2006-01-02"`
	Time      string `validate:"required"`
	Purpose   string `validate:"required"`
	Message   string
}

type BookingService struct {
	appointments *repository.AppointmentRepository
	teachers     *repository.TeacherRepository
	students     *repository.StudentRepository
	activity     *activity.Logger
	notifier     notify.Notifier
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

func NewBookingService(
	repos *repository.Repositories,
	activityLog *activity.Logger,
	notifier notify.Notifier,
	logger *zap.Logger,
) *BookingService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &BookingService{
		appointments: repos.Appointments,
		teachers:     repos.Teachers,
		students:     repos.Students,
		activity:     activityLog.With("Booking"),
		notifier:     notifier,
		validate:     validator.New(),
		logger:       logger,
		now:          repos.DB.Now,
	}
}

// Book создаёт запись со статусом pending.
// Студент записывает только себя, администратор любого студента.
func (s *BookingService) Book(ctx context.Context, actor Actor, req BookRequest) (*model.Appointment, error) {
	switch {
	case actor.IsAdmin():
	case actor.Role == model.RoleStudent:
		req.StudentID = actor.ID
	default:
		return nil, ErrPermissionDenied
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Запись в прошлое запрещена, сегодняшняя дата допустима
	if req.Date < s.now().UTC().Format(time.DateOnly) {
		return nil, fmt.Errorf("%w: date %s is in the past", ErrValidation, req.Date)
	}

	teacher, err := s.teachers.GetByID(ctx, req.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return nil, fmt.Errorf("teacher %s: %w", req.TeacherID, ErrNotFound)
	}

	apt := &model.Appointment{
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
		Date:      req.Date,
		Time:      req.Time,
		Purpose:   req.Purpose,
		Message:   req.Message,
		Status:    model.AppointmentStatusPending,
	}

	// Имя и email студента копируются в запись для списков учителя
	student, err := s.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student != nil {
		apt.StudentName = student.Name
		apt.StudentEmail = student.Email
	}

	if err := s.appointments.Create(ctx, apt); err != nil {
		s.activity.LogDatabaseOperation(ctx, "create", repository.KeyAppointments, "", err)
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	s.logger.Info("Appointment booked",
		zap.String("appointment_id", apt.ID),
		zap.String("student_id", apt.StudentID),
		zap.String("teacher_id", apt.TeacherID),
		zap.String("date", apt.Date),
		zap.String("time", apt.Time),
	)
	s.activity.LogUserAction(ctx, actor.ID, "book_appointment", map[string]any{
		"appointmentId": apt.ID,
		"teacherId":     apt.TeacherID,
	})
	s.notify(ctx, fmt.Sprintf("New appointment request from %s with %s on %s at %s",
		displayOr(apt.StudentName, apt.StudentID), teacher.Name, apt.Date, apt.Time))

	return apt, nil
}

// Approve одобряет ожидающую запись
func (s *BookingService) Approve(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusApproved, canManage,
		model.AppointmentStatusPending)
}

// Reject отклоняет ожидающую запись
func (s *BookingService) Reject(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusRejected, canManage,
		model.AppointmentStatusPending)
}

// Complete отмечает одобренную запись как проведённую
func (s *BookingService) Complete(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCompleted, canManage,
		model.AppointmentStatusApproved)
}

// Cancel отменяет активную запись и освобождает слот
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.AppointmentStatusCancelled, canParticipate,
		model.AppointmentStatusPending, model.AppointmentStatusApproved)
}

// transition меняет статус под блокировкой коллекции: права и исходный статус проверяются на актуальной записи
func (s *BookingService) transition(
	ctx context.Context,
	actor Actor,
	id string,
	to model.AppointmentStatus,
	allowed func(Actor, model.Appointment) bool,
	from ...model.AppointmentStatus,
) (*model.Appointment, error) {
	var previous model.AppointmentStatus

	updated, err := s.appointments.UpdateFunc(ctx, id, func(a *model.Appointment) error {
		if !allowed(actor, *a) {
			return ErrPermissionDenied
		}
		if !slices.Contains(from, a.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
		}
		previous = a.Status
		a.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment status changed",
		zap.String("appointment_id", updated.ID),
		zap.String("actor_id", actor.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(to)),
	)
	s.activity.LogUserAction(ctx, actor.ID, "appointment_"+string(to), map[string]any{
		"appointmentId": updated.ID,
		"from":          string(previous),
	})
	s.notify(ctx, fmt.Sprintf("Appointment on %s at %s is now %s", updated.Date, updated.Time, to))

	return updated, nil
}

// Delete удаляет запись, доступно только администратору
func (s *BookingService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Appointment deleted",
		zap.String("appointment_id", id),
		zap.String("actor_id", actor.ID),
	)
	s.activity.LogUserAction(ctx, actor.ID, "delete_appointment", map[string]any{"appointmentId": id})
	return nil
}

// Get получает запись, видимую участнику или администратору
func (s *BookingService) Get(ctx context.Context, actor Actor, id string) (*model.Appointment, error) {
	apt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt == nil {
		return nil, fmt.Errorf("appointment %s: %w", id, ErrNotFound)
	}
	if !canParticipate(actor, *apt) {
		return nil, ErrPermissionDenied
	}
	return apt, nil
}

// ListFor возвращает записи, видимые пользователю: свои для студента и учителя, все для администратора
func (s *BookingService) ListFor(ctx context.Context, actor Actor, status model.AppointmentStatus) ([]model.Appointment, error) {
	filter := model.AppointmentFilter{Status: status}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleStudent:
		filter.StudentID = actor.ID
	case model.RoleTeacher:
		filter.TeacherID = actor.ID
	default:
		return nil, ErrPermissionDenied
	}
	return s.appointments.List(ctx, filter)
}

// Stats счётчики дашборда пользователя
func (s *BookingService) Stats(ctx context.Context, actor Actor) (model.AppointmentStats, error) {
	if actor.ID == "" {
		return model.AppointmentStats{}, ErrPermissionDenied
	}
	return s.appointments.Stats(ctx, actor.ID, actor.Role)
}

// SendReminders напоминает об одобренных записях на завтра, возвращает число напоминаний
func (s *BookingService) SendReminders(ctx context.Context) (int, error) {
	tomorrow := s.now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)

	appointments, err := s.appointments.ListByDate(ctx, tomorrow, model.AppointmentStatusApproved)
	if err != nil {
		return 0, fmt.Errorf("list appointments for reminders: %w", err)
	}

	sent := 0
	for _, apt := range appointments {
		text := fmt.Sprintf("Reminder: appointment with %s on %s at %s (%s)",
			displayOr(apt.StudentName, apt.StudentID), apt.Date, apt.Time, apt.Purpose)
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.logger.Warn("Failed to send reminder",
				zap.String("appointment_id", apt.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	s.logger.Info("Reminders sent",
		zap.String("date", tomorrow),
		zap.Int("total", len(appointments)),
		zap.Int("sent", sent),
	)
	return sent, nil
}

// notify отправляет уведомление, ошибка только логируется
func (s *BookingService) notify(ctx context.Context, text string) {
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.Warn("Failed to send notification", zap.Error(err))
	}
}

// canManage учитель записи или администратор
func canManage(actor Actor, a model.Appointment) bool {
	return actor.IsAdmin() || (actor.Role == model.RoleTeacher && a.TeacherID == actor.ID)
}

// canParticipate любой участник записи или администратор
func canParticipate(actor Actor, a model.Appointment) bool {
	return canManage(actor, a) || (actor.Role == model.RoleStudent && a.StudentID == actor.ID)
}

func displayOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
