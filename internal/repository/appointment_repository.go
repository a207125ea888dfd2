package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

type AppointmentRepository struct {
	db    *base.Repository
	items *base.Collection[model.Appointment]
}

func NewAppointmentRepository(db *base.Repository) *AppointmentRepository {
	return &AppointmentRepository{
		db:    db,
		items: base.NewCollection[model.Appointment](db, KeyAppointments),
	}
}

// Init создаёт пустую коллекцию, если её нет
func (r *AppointmentRepository) Init(ctx context.Context) error {
	if _, err := r.items.SeedIfAbsent(ctx, nil); err != nil {
		return fmt.Errorf("init appointments: %w", err)
	}
	return nil
}

// Create создаёт новую запись на приём.
// Проверка слота и вставка выполняются под одной блокировкой коллекции.
func (r *AppointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	return r.db.Locks().WithKeys(ctx, func(ctx context.Context) error {
		if apt.Status != model.AppointmentStatusCancelled {
			conflict, err := r.HasConflict(ctx, apt.TeacherID, apt.Date, apt.Time)
			if err != nil {
				return fmt.Errorf("check slot conflict: %w", err)
			}
			if conflict {
				return ErrSlotConflict
			}
		}

		now := r.db.Now()
		apt.ID = base.NewID("apt", now)
		if apt.Status == "" {
			apt.Status = model.AppointmentStatusPending
		}
		apt.CreatedAt = now
		apt.UpdatedAt = now

		if err := r.items.Insert(ctx, *apt); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	}, KeyAppointments)
}

// GetByID получает запись по ID, nil если не найдена
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	apt, ok, err := r.items.FindFirst(ctx, func(a model.Appointment) bool { return a.ID == id })
	if err != nil {
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &apt, nil
}

// List возвращает записи под фильтр, новые первыми
func (r *AppointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	appointments, err := r.items.Filter(ctx, filter.Match)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].CreatedAt.After(appointments[j].CreatedAt)
	})

	return appointments, nil
}

// ListByDate возвращает записи на дату с заданным статусом
func (r *AppointmentRepository) ListByDate(ctx context.Context, date string, status model.AppointmentStatus) ([]model.Appointment, error) {
	return r.List(ctx, model.AppointmentFilter{Date: date, Status: status})
}

// Update применяет патч и обновляет updatedAt
func (r *AppointmentRepository) Update(ctx context.Context, id string, patch model.AppointmentPatch) (*model.Appointment, error) {
	return r.UpdateFunc(ctx, id, func(a *model.Appointment) error {
		patch.Apply(a)
		return nil
	})
}

// UpdateFunc изменяет запись через fn под блокировкой коллекции.
// Ошибка fn отменяет изменение.
func (r *AppointmentRepository) UpdateFunc(ctx context.Context, id string, fn func(*model.Appointment) error) (*model.Appointment, error) {
	updated, err := r.items.UpdateWhere(ctx,
		func(a model.Appointment) bool { return a.ID == id },
		func(a *model.Appointment) error {
			if err := fn(a); err != nil {
				return err
			}
			a.UpdatedAt = r.db.Now()
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update appointment %s: %w", id, err)
	}
	return &updated, nil
}

// Delete удаляет запись, отсутствие записи не ошибка
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.items.DeleteWhere(ctx, func(a model.Appointment) bool { return a.ID == id }); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	return nil
}

// HasConflict проверяет занят ли слот неотменённой записью
func (r *AppointmentRepository) HasConflict(ctx context.Context, teacherID, date, slot string) (bool, error) {
	return r.items.Exists(ctx, func(a model.Appointment) bool {
		return a.SameSlot(teacherID, date, slot) && a.Status != model.AppointmentStatusCancelled
	})
}

// Stats считает записи студента или учителя.
// Upcoming: approved и дата строго позже сегодняшней, время слота не учитывается.
func (r *AppointmentRepository) Stats(ctx context.Context, userID string, role model.Role) (model.AppointmentStats, error) {
	filter := model.AppointmentFilter{TeacherID: userID}
	if role == model.RoleStudent {
		filter = model.AppointmentFilter{StudentID: userID}
	}

	appointments, err := r.List(ctx, filter)
	if err != nil {
		return model.AppointmentStats{}, err
	}

	now := r.db.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := model.AppointmentStats{Total: len(appointments)}
	for _, a := range appointments {
		switch a.Status {
		case model.AppointmentStatusApproved:
			stats.Approved++
			if day, err := time.Parse(time.DateOnly, a.Date); err == nil && day.After(today) {
				stats.Upcoming++
			}
		case model.AppointmentStatusPending:
			stats.Pending++
		}
	}

	return stats, nil
}
