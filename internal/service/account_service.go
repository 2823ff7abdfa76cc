package service

import (
	"context"
	"fmt"

	"storefront/internal/client"
	"storefront/internal/domain"
	"storefront/internal/forms"
	"storefront/internal/notify"
)

// AccountService регистрация и вход
type AccountService struct {
	api Actions
	fb  *Feedback
}

func NewAccountService(api Actions, fb *Feedback) *AccountService {
	return &AccountService{api: api, fb: fb}
}

// Register submits the draft. Field errors come back as *forms.ValidationError
// and leave the draft untouched; the draft is cleared only when the server
// accepts the registration.
func (s *AccountService) Register(ctx context.Context, draft *forms.RegistrationDraft) (domain.ActionResult, error) {
	reg, err := draft.Submit()
	if err != nil {
		return domain.ActionResult{}, err
	}
	kind := domain.ActionRegister
	res := s.api.Register(ctx, client.Registration{
		Username:  reg.Username,
		Email:     reg.Email,
		Password:  reg.Password,
		Password2: reg.Password2,
	})
	if s.fb.failure(s.api, kind, res) {
		return res, nil
	}
	draft.Reset()
	s.fb.toast(orDefault(res.Message, "Аккаунт создан! Теперь войдите в систему."), notify.SeveritySuccess, 0)
	target := res.RedirectURL
	if target == "" {
		target = s.api.Resolve(s.fb.loginPath)
	}
	s.fb.redirectAfter(target, s.fb.timing.PaymentRedirect)
	return res, nil
}

// Login открывает сессию
func (s *AccountService) Login(ctx context.Context, username, password string) domain.ActionResult {
	kind := domain.ActionLogin
	res := s.api.Login(ctx, username, password)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	s.fb.toast(fmt.Sprintf("Добро пожаловать, %s!", username), notify.SeveritySuccess, 0)
	return res
}
