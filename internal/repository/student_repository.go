package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

type StudentRepository struct {
	items *base.Collection[model.Student]
}

func NewStudentRepository(db *base.Repository) *StudentRepository {
	return &StudentRepository{
		items: base.NewCollection[model.Student](db, KeyStudents),
	}
}

// Init создаёт пустой справочник, если его нет
func (r *StudentRepository) Init(ctx context.Context) error {
	if _, err := r.items.SeedIfAbsent(ctx, nil); err != nil {
		return fmt.Errorf("init students: %w", err)
	}
	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	students, err := r.items.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// GetByID получает студента по ID, nil если не найден
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*model.Student, error) {
	student, ok, err := r.items.FindFirst(ctx, func(s model.Student) bool { return s.ID == id })
	if err != nil {
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &student, nil
}

// Create добавляет студента. ID совпадает с ID пользователя.
func (r *StudentRepository) Create(ctx context.Context, student *model.Student) error {
	if err := r.items.Insert(ctx, *student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (r *StudentRepository) Update(ctx context.Context, id string, patch model.StudentPatch) (*model.Student, error) {
	updated, err := r.items.UpdateWhere(ctx,
		func(s model.Student) bool { return s.ID == id },
		func(s *model.Student) error {
			patch.Apply(s)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update student %s: %w", id, err)
	}
	return &updated, nil
}
