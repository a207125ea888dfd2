package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository/base"
)

// ActivityRepository журнал действий под KeyActivity
type ActivityRepository struct {
	db    *base.Repository
	items *base.Collection[model.ActivityEntry]
}

func NewActivityRepository(db *base.Repository) *ActivityRepository {
	return &ActivityRepository{
		db:    db,
		items: base.NewCollection[model.ActivityEntry](db, KeyActivity),
	}
}

// Append добавляет запись и оставляет не больше limit последних
func (r *ActivityRepository) Append(ctx context.Context, entry model.ActivityEntry, limit int) error {
	err := r.items.Rewrite(ctx, func(entries []model.ActivityEntry) ([]model.ActivityEntry, error) {
		entries = append(entries, entry)
		if limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
		return entries, nil
	})
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// List возвращает весь журнал, старые записи первыми
func (r *ActivityRepository) List(ctx context.Context) ([]model.ActivityEntry, error) {
	entries, err := r.items.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

// Clear удаляет журнал
func (r *ActivityRepository) Clear(ctx context.Context) error {
	err := r.db.Locks().WithKeys(ctx, func(ctx context.Context) error {
		return r.db.Store().Remove(ctx, KeyActivity)
	}, KeyActivity)
	if err != nil {
		return fmt.Errorf("clear activity: %w", err)
	}
	return nil
}
