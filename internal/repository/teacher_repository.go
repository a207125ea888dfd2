package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

type TeacherRepository struct {
	db    *base.Repository
	items *base.Collection[model.Teacher]
}

func NewTeacherRepository(db *base.Repository) *TeacherRepository {
	return &TeacherRepository{
		db:    db,
		items: base.NewCollection[model.Teacher](db, KeyTeachers),
	}
}

// SeedDefaults заполняет справочник демо-учителями, если ключа ещё нет
func (r *TeacherRepository) SeedDefaults(ctx context.Context) (bool, error) {
	seeded, err := r.items.SeedIfAbsent(ctx, model.DefaultTeachers())
	if err != nil {
		return false, fmt.Errorf("seed teachers: %w", err)
	}
	return seeded, nil
}

// List возвращает всех учителей в порядке хранения
func (r *TeacherRepository) List(ctx context.Context) ([]model.Teacher, error) {
	teachers, err := r.items.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// GetByID получает учителя по ID, nil если не найден
func (r *TeacherRepository) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	teacher, ok, err := r.items.FindFirst(ctx, func(t model.Teacher) bool { return t.ID == id })
	if err != nil {
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &teacher, nil
}

// Create добавляет учителя (админское "добавить учителя")
func (r *TeacherRepository) Create(ctx context.Context, teacher *model.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = base.NewID("teacher", r.db.Now())
	}
	if err := r.items.Insert(ctx, *teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update применяет патч к учителю
func (r *TeacherRepository) Update(ctx context.Context, id string, patch model.TeacherPatch) (*model.Teacher, error) {
	updated, err := r.items.UpdateWhere(ctx,
		func(t model.Teacher) bool { return t.ID == id },
		func(t *model.Teacher) error {
			patch.Apply(t)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update teacher %s: %w", id, err)
	}
	return &updated, nil
}
