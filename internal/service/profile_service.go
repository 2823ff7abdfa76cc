package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/forms"
	"storefront/internal/notify"
)

// ProfileService смена пароля и логина со страницы профиля
type ProfileService struct {
	api Actions
	fb  *Feedback
}

func NewProfileService(api Actions, fb *Feedback) *ProfileService {
	return &ProfileService{api: api, fb: fb}
}

// ChangePassword validates locally first. A *forms.ValidationError means
// nothing was sent and nothing was shown; render it next to the fields.
func (s *ProfileService) ChangePassword(ctx context.Context, current, next, confirm string) (domain.ActionResult, error) {
	if err := forms.ValidatePasswordChange(current, next, confirm); err != nil {
		return domain.ActionResult{}, err
	}
	kind := domain.ActionChangePassword
	res := s.api.ChangePassword(ctx, current, next)
	if s.fb.failure(s.api, kind, res) {
		return res, nil
	}
	s.fb.toast("🎉 Пароль успешно изменен!", notify.SeveritySuccess, 4*time.Second)
	return res, nil
}

// ChangeLogin validates the new login before sending it.
func (s *ProfileService) ChangeLogin(ctx context.Context, current, newLogin string) (domain.ActionResult, error) {
	if err := forms.ValidateLoginChange(current, newLogin); err != nil {
		return domain.ActionResult{}, err
	}
	kind := domain.ActionChangeLogin
	res := s.api.ChangeLogin(ctx, current, newLogin)
	if s.fb.failure(s.api, kind, res) {
		return res, nil
	}
	s.fb.toast("✨ Логин успешно изменен!", notify.SeveritySuccess, 4*time.Second)
	return res, nil
}
