package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/edubook/internal/activity"
	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	fail  bool
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notifier down")
	}
	n.texts = append(n.texts, text)
	return nil
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

type testEnv struct {
	repos     *repository.Repositories
	booking   *BookingService
	messaging *MessagingService
	notifier  *fakeNotifier
	activity  *activity.Logger
}

var (
	student = Actor{ID: "s1", Name: "Sam Student", Role: model.RoleStudent}
	other   = Actor{ID: "s2", Name: "Other Student", Role: model.RoleStudent}
	teacher = Actor{ID: "teacher1", Name: "Dr. John Smith", Role: model.RoleTeacher}
	admin   = Actor{ID: "a1", Name: "Admin", Role: model.RoleAdmin}
)

// today в тестах - 2025-03-01, часы сдвигаются на секунду при каждом обращении
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, kvstore.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, store kvstore.Store) *testEnv {
	t.Helper()
	ctx := context.Background()

	repos := repository.New(store, zap.NewNop())
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	repos.DB.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	})
	require.NoError(t, repos.Init(ctx))
	require.NoError(t, repos.Students.Create(ctx, &model.Student{ID: "s1", Name: "Sam Student", Email: "sam@x.com"}))

	notifier := &fakeNotifier{}
	activityLog := activity.New(repos.Activity, zap.NewNop(), activity.Options{})

	return &testEnv{
		repos:     repos,
		booking:   NewBookingService(repos, activityLog, notifier, zap.NewNop()),
		messaging: NewMessagingService(repos, activityLog, zap.NewNop()),
		notifier:  notifier,
		activity:  activityLog,
	}
}

func bookRequest(date, slot string) BookRequest {
	return BookRequest{
		TeacherID: "teacher1",
		Date:      date,
		Time:      slot,
		Purpose:   "Thesis review",
	}
}

// vanishingStore после очередного чтения key подменяет значение на пустой массив,
// как если бы запись удалили между двумя обращениями
type vanishingStore struct {
	kvstore.Store

	mu    sync.Mutex
	key   string
	armed bool
}

func (s *vanishingStore) arm(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.armed = true
}

func (s *vanishingStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.Store.Get(ctx, key)
	if err != nil {
		return value, ok, err
	}

	s.mu.Lock()
	fire := s.armed && key == s.key
	if fire {
		s.armed = false
	}
	s.mu.Unlock()

	if fire {
		if err := s.Store.Set(ctx, key, "[]"); err != nil {
			return "", false, err
		}
	}
	return value, ok, nil
}
