package repository

import (
	"context"

	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/Freeeeeet/edubook/internal/repository/base"
	"go.uber.org/zap"
)

// Repositories все репозитории поверх одного хранилища.
// Один экземпляр на процесс: блокировки ключей живут в общем base.Repository.
type Repositories struct {
	DB            *base.Repository
	Appointments  *AppointmentRepository
	Teachers      *TeacherRepository
	Students      *StudentRepository
	Conversations *ConversationRepository
	Users         *UserRepository
	Sessions      *SessionRepository
	Activity      *ActivityRepository
}

func New(store kvstore.Store, logger *zap.Logger) *Repositories {
	db := base.NewRepository(store, logger)
	return &Repositories{
		DB:            db,
		Appointments:  NewAppointmentRepository(db),
		Teachers:      NewTeacherRepository(db),
		Students:      NewStudentRepository(db),
		Conversations: NewConversationRepository(db),
		Users:         NewUserRepository(db),
		Sessions:      NewSessionRepository(db),
		Activity:      NewActivityRepository(db),
	}
}

// Init создаёт отсутствующие коллекции и один раз заполняет справочник учителей
func (r *Repositories) Init(ctx context.Context) error {
	if err := r.Appointments.Init(ctx); err != nil {
		return err
	}
	seeded, err := r.Teachers.SeedDefaults(ctx)
	if err != nil {
		return err
	}
	if seeded {
		r.DB.Logger().Info("Seeded default teachers")
	}
	if err := r.Students.Init(ctx); err != nil {
		return err
	}
	return r.Conversations.Init(ctx)
}
