package repository

import (
	"errors"

	"github.com/Freeeeeet/edubook/internal/repository/base"
)

var (
	ErrNotFound       = base.ErrNotFound
	ErrStoreCorrupt   = base.ErrStoreCorrupt
	ErrSlotConflict   = errors.New("time slot is already booked")
	ErrDuplicateEmail = errors.New("user already exists with this email")
)
