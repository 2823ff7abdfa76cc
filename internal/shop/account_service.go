package shop

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/forms"
	"storefront/internal/repository"
)

// AccountService регистрация, вход и настройки профиля
type AccountService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	cost     int
}

// NewAccountService cost 0 означает bcrypt.DefaultCost
func NewAccountService(accounts repository.AccountRepository, sessions repository.SessionRepository, cost int) *AccountService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{accounts: accounts, sessions: sessions, cost: cost}
}

// RegisterInput поля формы регистрации
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

func (s *AccountService) hash(password string) ([]byte, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return h, nil
}

// Register создаёт учётную запись
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	if in.Password != in.Password2 {
		return nil, ErrPasswordMismatch
	}
	h, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	a := domain.Account{Username: username, Email: strings.TrimSpace(in.Email), PasswordHash: h}
	if err := s.accounts.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, errors.Wrap(err, "create account")
	}
	return &a, nil
}

// Login проверяет пароль и открывает сессию с новым csrf-токеном
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.Session, error) {
	a, err := s.accounts.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Session{}, ErrBadCredentials
	}
	if err != nil {
		return domain.Session{}, errors.Wrap(err, "get account")
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		return domain.Session{}, ErrBadCredentials
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    a.ID,
		CSRFToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return domain.Session{}, errors.Wrap(err, "save session")
	}
	return sess, nil
}

// Logout закрывает сессию; неизвестная сессия не ошибка
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	err := s.sessions.Delete(ctx, sessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

// Authenticate находит сессию по cookie
func (s *AccountService) Authenticate(ctx context.Context, sessionID string) (*domain.Session, *domain.Account, error) {
	if sessionID == "" {
		return nil, nil, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	a, err := s.accounts.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	return sess, a, nil
}

func (s *AccountService) verify(ctx context.Context, userID int64, current string) (*domain.Account, error) {
	a, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(current)) != nil {
		return nil, ErrWrongPassword
	}
	return a, nil
}

// ChangePassword применяет те же правила, что и форма профиля
func (s *AccountService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if err := forms.ValidatePasswordChange(current, next, next); err != nil {
		return err
	}
	a, err := s.verify(ctx, userID, current)
	if err != nil {
		return err
	}
	if a.PasswordHash, err = s.hash(next); err != nil {
		return err
	}
	return s.accounts.Update(ctx, a)
}

// ChangeLogin меняет логин после проверки текущего пароля
func (s *AccountService) ChangeLogin(ctx context.Context, userID int64, current, newLogin string) error {
	if err := forms.ValidateLoginChange(current, newLogin); err != nil {
		return err
	}
	a, err := s.verify(ctx, userID, current)
	if err != nil {
		return err
	}
	a.Username = newLogin
	if err := s.accounts.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrLoginTaken
		}
		return errors.Wrap(err, "update account")
	}
	return nil
}
