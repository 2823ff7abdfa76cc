package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/domain"
	"storefront/internal/notify"
)

// Actions сетевой слой, которым пользуются сервисы
type Actions interface {
	Perform(ctx context.Context, kind domain.ActionKind, productID int64) domain.ActionResult
	Checkout(ctx context.Context, items []domain.CartItem) domain.ActionResult
	ChangePassword(ctx context.Context, current, next string) domain.ActionResult
	ChangeLogin(ctx context.Context, current, newLogin string) domain.ActionResult
	Register(ctx context.Context, r client.Registration) domain.ActionResult
	Login(ctx context.Context, username, password string) domain.ActionResult
	Resolve(ref string) string
}

// Notifier поверхность уведомлений
type Notifier interface {
	Notify(text string, severity notify.Severity, duration time.Duration) uint64
}

// Navigator performs the page change that follows an action.
type Navigator interface {
	Navigate(url string)
}

// Timing задержки, чтобы уведомление успели увидеть до перехода
type Timing struct {
	Notification    time.Duration
	PaymentRedirect time.Duration
	LoginRedirect   time.Duration
}

// DefaultTiming matches the storefront pages: 3s toasts, 1.5s before a
// payment/download redirect, 2s before the login redirect.
func DefaultTiming() Timing {
	return Timing{Notification: 3 * time.Second, PaymentRedirect: 1500 * time.Millisecond, LoginRedirect: 2 * time.Second}
}

const (
	msgLoginRequired     = "Необходимо войти в систему"
	msgLoginRequiredPage = "Для выполнения этого действия необходимо войти в систему"
)

// Feedback turns ActionResults into toasts and delayed redirects. It is
// shared by every page-level service.
type Feedback struct {
	notifier  Notifier
	nav       Navigator
	sched     notify.Scheduler
	timing    Timing
	loginPath string
	logger    *zap.Logger
}

func NewFeedback(n Notifier, nav Navigator, sched notify.Scheduler, timing Timing, loginPath string, logger *zap.Logger) *Feedback {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loginPath == "" {
		loginPath = "/login/"
	}
	return &Feedback{notifier: n, nav: nav, sched: sched, timing: timing, loginPath: loginPath, logger: logger}
}

func (f *Feedback) toast(text string, sev notify.Severity, d time.Duration) {
	if d <= 0 {
		d = f.timing.Notification
	}
	f.notifier.Notify(text, sev, d)
}

// redirectAfter schedules navigation; once scheduled it cannot be cancelled.
func (f *Feedback) redirectAfter(url string, d time.Duration) {
	if url == "" {
		return
	}
	f.sched.AfterFunc(d, func() { f.nav.Navigate(url) })
}

// loginRequired is used when the page already knows the user is anonymous.
func (f *Feedback) loginRequired(api Actions, kind domain.ActionKind) domain.ActionResult {
	f.logger.Debug("action needs login", zap.String("action", string(kind)))
	f.toast(msgLoginRequiredPage, notify.SeverityInfo, 4*time.Second)
	f.redirectAfter(api.Resolve(f.loginPath), f.timing.LoginRedirect)
	return domain.ActionResult{Outcome: domain.OutcomeAuthRequired}
}

// failure surfaces every non-success outcome. It reports whether res was a
// failure at all.
func (f *Feedback) failure(api Actions, kind domain.ActionKind, res domain.ActionResult) bool {
	switch res.Outcome {
	case domain.OutcomeSuccess:
		return false
	case domain.OutcomeAuthRequired:
		f.toast(msgLoginRequired, notify.SeverityError, 0)
		f.redirectAfter(api.Resolve(f.loginPath), f.timing.LoginRedirect)
	case domain.OutcomeDomainError:
		f.toast(res.Message, notify.SeverityError, 0)
	case domain.OutcomeTransportError:
		f.logger.Error("action failed", zap.String("action", string(kind)), zap.Error(res.Err))
		msg := res.Message
		if msg == "" {
			msg = "Произошла ошибка. Попробуйте позже."
		}
		f.toast(msg, notify.SeverityError, 0)
	case domain.OutcomeBusy:
		f.logger.Debug("duplicate action ignored", zap.String("action", string(kind)))
	}
	return true
}
