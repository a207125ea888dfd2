package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

// UserRepository каталог учётных записей
type UserRepository struct {
	db    *base.Repository
	items *base.Collection[model.User]
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{
		db:    db,
		items: base.NewCollection[model.User](db, KeyUsers),
	}
}

// Create создаёт пользователя.
// ID - строка с миллисекундами создания; email должен быть свободен.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.items.Rewrite(ctx, func(users []model.User) ([]model.User, error) {
		ids := make(map[string]struct{}, len(users))
		for _, u := range users {
			if u.Email == user.Email {
				return nil, ErrDuplicateEmail
			}
			ids[u.ID] = struct{}{}
		}

		now := r.db.Now()
		if user.ID == "" {
			// Две регистрации в одну миллисекунду получают соседние ID
			ms := now.UnixMilli()
			for {
				id := strconv.FormatInt(ms, 10)
				if _, taken := ids[id]; !taken {
					user.ID = id
					break
				}
				ms++
			}
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = now
		}

		return append(users, *user), nil
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail получает пользователя по email, nil если не найден
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok, err := r.items.FindFirst(ctx, func(u model.User) bool { return u.Email == email })
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetByID получает пользователя по ID, nil если не найден
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok, err := r.items.FindFirst(ctx, func(u model.User) bool { return u.ID == id })
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Update изменяет пользователя через fn
func (r *UserRepository) Update(ctx context.Context, id string, fn func(*model.User)) (*model.User, error) {
	updated, err := r.items.UpdateWhere(ctx,
		func(u model.User) bool { return u.ID == id },
		func(u *model.User) error {
			fn(u)
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return &updated, nil
}

// List возвращает всех пользователей
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	users, err := r.items.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete удаляет пользователя, отсутствие записи не ошибка
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.items.DeleteWhere(ctx, func(u model.User) bool { return u.ID == id }); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
