package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/edubook/internal/model"
	"github.com/Freeeeeet/edubook/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrDuplicateEmail    = repository.ErrDuplicateEmail
	ErrInvalidCredential = errors.New("invalid password")
	ErrNotSignedIn       = errors.New("no user logged in")
	ErrValidation        = errors.New("validation failed")
)

// RegisterRequest данные регистрации
type RegisterRequest struct {
	Email     string     `validate:"required,email"`
	Password  string     `validate:"required"`
	FirstName string     `validate:"required"`
	LastName  string     `validate:"required"`
	Role      model.Role `validate:"required,oneof=student teacher admin"`
}

type loginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// SessionManager локальная аутентификация: каталог пользователей и один слот текущей сессии.
// Состояния: SignedOut (слота нет) и SignedIn (в слоте профиль без пароля).
type SessionManager struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	students *repository.StudentRepository
	validate *validator.Validate
	logger   *zap.Logger

	now  func() time.Time
	cost int

	mu      sync.Mutex
	current *model.Profile
}

// NewSessionManager создаёт менеджер и восстанавливает сессию из хранилища
func NewSessionManager(ctx context.Context, repos *repository.Repositories, logger *zap.Logger) (*SessionManager, error) {
	m := &SessionManager{
		users:    repos.Users,
		sessions: repos.Sessions,
		students: repos.Students,
		validate: validator.New(),
		logger:   logger,
		now:      repos.DB.Now,
		cost:     bcrypt.DefaultCost,
	}

	current, err := m.sessions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	m.current = current
	if current != nil {
		logger.Info("Session restored", zap.String("user_id", current.ID))
	}

	return m, nil
}

// Register создаёт пользователя и сразу открывает сессию
func (m *SessionManager) Register(ctx context.Context, req RegisterRequest) (*model.Profile, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := HashPassword(req.Password, m.cost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := &model.User{
		Profile: model.Profile{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      req.Role,
			CreatedAt: m.now(),
		},
		Password: hash,
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if user.Role == model.RoleStudent {
		student := &model.Student{
			ID:    user.ID,
			Name:  user.DisplayName(),
			Email: user.Email,
		}
		if err := m.students.Create(ctx, student); err != nil {
			// Без записи студента регистрация откатывается, иначе повтор упрётся в занятый email
			if delErr := m.users.Delete(ctx, user.ID); delErr != nil {
				m.logger.Error("Failed to roll back user",
					zap.String("user_id", user.ID),
					zap.Error(delErr),
				)
			}
			return nil, fmt.Errorf("create student record: %w", err)
		}
	}

	profile := user.Profile
	if err := m.signIn(ctx, &profile); err != nil {
		return nil, err
	}

	m.logger.Info("User registered",
		zap.String("user_id", profile.ID),
		zap.String("email", profile.Email),
		zap.String("role", string(profile.Role)),
	)

	return copyProfile(&profile), nil
}

// Login проверяет пароль и открывает сессию.
// При ошибке состояние сессии не меняется.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*model.Profile, error) {
	if err := m.validate.Struct(loginRequest{Email: email, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}

	ok, legacy := CheckPassword(user.Password, password)
	if !ok {
		m.logger.Warn("Login failed", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredential
	}

	var rehashed string
	if legacy {
		// Старая base64-запись переводится на bcrypt при первом успешном входе
		if rehashed, err = HashPassword(password, m.cost); err != nil {
			return nil, err
		}
	}

	loginAt := m.now()
	updated, err := m.users.Update(ctx, user.ID, func(u *model.User) {
		u.LastLoginAt = &loginAt
		if rehashed != "" {
			u.Password = rehashed
		}
	})
	if err != nil {
		return nil, err
	}

	profile := updated.Profile
	if err := m.signIn(ctx, &profile); err != nil {
		return nil, err
	}

	m.logger.Info("User logged in",
		zap.String("user_id", profile.ID),
		zap.Bool("password_upgraded", rehashed != ""),
	)

	return copyProfile(&profile), nil
}

// Logout закрывает сессию
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.sessions.Clear(ctx); err != nil {
		return err
	}
	if m.current != nil {
		m.logger.Info("User logged out", zap.String("user_id", m.current.ID))
	}
	m.current = nil
	return nil
}

// IsAuthenticated проверяет открыта ли сессия
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// CurrentUser возвращает копию профиля текущего пользователя, nil если сессии нет
func (m *SessionManager) CurrentUser() *model.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyProfile(m.current)
}

// Role роль текущего пользователя, пустая строка если сессии нет
func (m *SessionManager) Role() model.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Role
}

// UpdateProfile применяет патч к записи пользователя и к сессии.
// Если запись пользователя пропала из каталога, возвращает ErrNotFound.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch model.ProfilePatch) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNotSignedIn
	}

	updated, err := m.users.Update(ctx, m.current.ID, func(u *model.User) {
		patch.Apply(&u.Profile)
	})
	if err != nil {
		return nil, err
	}

	profile := updated.Profile
	if err := m.signIn(ctx, &profile); err != nil {
		return nil, err
	}

	m.logger.Info("Profile updated", zap.String("user_id", profile.ID))
	return copyProfile(&profile), nil
}

// UpdateCurrentUser применяет патч к сессии и, если запись есть, к каталогу пользователей
func (m *SessionManager) UpdateCurrentUser(ctx context.Context, patch model.ProfilePatch) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNotSignedIn
	}

	_, err := m.users.Update(ctx, m.current.ID, func(u *model.User) {
		patch.Apply(&u.Profile)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	profile := *m.current
	patch.Apply(&profile)
	if err := m.signIn(ctx, &profile); err != nil {
		return nil, err
	}

	return copyProfile(&profile), nil
}

// signIn записывает профиль в слот сессии, вызывается под m.mu
func (m *SessionManager) signIn(ctx context.Context, profile *model.Profile) error {
	if err := m.sessions.Save(ctx, profile); err != nil {
		return err
	}
	m.current = copyProfile(profile)
	return nil
}

func copyProfile(p *model.Profile) *model.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}
