package service

import (
	"errors"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrSlotConflict      = repository.ErrSlotConflict
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("validation failed")
)

// Actor пользователь, от имени которого выполняется операция
type Actor struct {
	ID   string
	Name string
	Role model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// ActorFromProfile собирает Actor из профиля текущей сессии
func ActorFromProfile(p *model.Profile) Actor {
	if p == nil {
		return Actor{}
	}
	return Actor{ID: p.ID, Name: p.DisplayName(), Role: p.Role}
}
