package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/client"
	"storefront/internal/credential"
	"storefront/internal/domain"
	"storefront/internal/forms"
	"storefront/internal/notify"
	"storefront/internal/notify/notifytest"
)

const base = "http://shop.test"

type fakeActions struct {
	mu      sync.Mutex
	results map[domain.ActionKind]domain.ActionResult
	calls   []domain.ActionKind
}

func (f *fakeActions) record(kind domain.ActionKind) domain.ActionResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	return f.results[kind]
}

func (f *fakeActions) Perform(_ context.Context, kind domain.ActionKind, _ int64) domain.ActionResult {
	return f.record(kind)
}
func (f *fakeActions) Checkout(context.Context, []domain.CartItem) domain.ActionResult {
	return f.record(domain.ActionCheckoutCart)
}
func (f *fakeActions) ChangePassword(context.Context, string, string) domain.ActionResult {
	return f.record(domain.ActionChangePassword)
}
func (f *fakeActions) ChangeLogin(context.Context, string, string) domain.ActionResult {
	return f.record(domain.ActionChangeLogin)
}
func (f *fakeActions) Register(context.Context, client.Registration) domain.ActionResult {
	return f.record(domain.ActionRegister)
}
func (f *fakeActions) Login(context.Context, string, string) domain.ActionResult {
	return f.record(domain.ActionLogin)
}
func (f *fakeActions) Resolve(ref string) string { return base + ref }

type recordingNav struct {
	mu   sync.Mutex
	urls []string
}

func (n *recordingNav) Navigate(url string) {
	n.mu.Lock()
	n.urls = append(n.urls, url)
	n.mu.Unlock()
}

type harness struct {
	api     *fakeActions
	surface *notifytest.Surface
	sched   *notifytest.Scheduler
	nav     *recordingNav
	notes   *notify.Notifier
	fb      *Feedback
}

func newHarness(results map[domain.ActionKind]domain.ActionResult) *harness {
	h := &harness{
		api:     &fakeActions{results: results},
		surface: &notifytest.Surface{},
		sched:   &notifytest.Scheduler{},
		nav:     &recordingNav{},
	}
	h.notes = notify.New(h.surface, h.sched)
	h.fb = NewFeedback(h.notes, h.nav, h.sched, DefaultTiming(), "/login/", nil)
	return h
}

func (h *harness) lastToast(t *testing.T) notify.Notification {
	t.Helper()
	items := h.notes.Visible()
	require.NotEmpty(t, items)
	return items[len(items)-1]
}

func TestBuyProduct_PaymentRedirectAfterDelay(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{
		domain.ActionBuyProduct: {Outcome: domain.OutcomeSuccess, RedirectURL: "https://pay/x", DemoMode: true},
	})
	svc := NewCatalogService(h.api, h.fb, domain.PageContext{})

	res := svc.BuyProduct(context.Background(), 7)
	require.True(t, res.OK())
	toast := h.lastToast(t)
	assert.Equal(t, "Демо-режим: Переходим к имитации оплаты", toast.Text)
	assert.Equal(t, notify.SeverityInfo, toast.Severity)

	h.sched.Advance(1400 * time.Millisecond)
	assert.Empty(t, h.nav.urls, "toast must be visible before redirect")
	h.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"https://pay/x"}, h.nav.urls)
}

func TestBuyProduct_NoPaymentUsesPageTitle(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{domain.ActionBuyProduct: {Outcome: domain.OutcomeSuccess}})
	page := domain.PageContext{Product: &domain.Product{ID: 7, Title: "ВЛ80С", Price: decimal.NewFromInt(199)}}
	svc := NewCatalogService(h.api, h.fb, page)

	svc.BuyProduct(context.Background(), 7)
	toast := h.lastToast(t)
	assert.Equal(t, "ВЛ80С успешно приобретен за 199₽!", toast.Text)
	assert.Equal(t, 5*time.Second, toast.Duration)
}

func TestAuthRequired_ToastThenLoginRedirect(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{domain.ActionAddToCart: {Outcome: domain.OutcomeAuthRequired}})
	svc := NewCatalogService(h.api, h.fb, domain.PageContext{})

	res := svc.AddToCart(context.Background(), 1)
	assert.Equal(t, domain.OutcomeAuthRequired, res.Outcome)
	assert.Equal(t, "Необходимо войти в систему", h.lastToast(t).Text)
	assert.Equal(t, notify.SeverityError, h.lastToast(t).Severity)

	h.sched.Advance(2 * time.Second)
	assert.Equal(t, []string{base + "/login/"}, h.nav.urls)
}

func TestAnonymousPage_SkipsNetwork(t *testing.T) {
	h := newHarness(nil)
	page := domain.PageContext{User: &domain.User{Authenticated: false}}
	svc := NewCatalogService(h.api, h.fb, page)

	res := svc.GetProduct(context.Background(), 1)
	assert.Equal(t, domain.OutcomeAuthRequired, res.Outcome)
	assert.Empty(t, h.api.calls)
	assert.Equal(t, notify.SeverityInfo, h.lastToast(t).Severity)
}

func TestDomainAndTransportErrors(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{
		domain.ActionAddToCart:  {Outcome: domain.OutcomeDomainError, Message: "Товар уже в корзине"},
		domain.ActionBuyProduct: {Outcome: domain.OutcomeTransportError, Err: errors.New("dial tcp: refused")},
	})
	svc := NewCatalogService(h.api, h.fb, domain.PageContext{})

	svc.AddToCart(context.Background(), 1)
	assert.Equal(t, "Товар уже в корзине", h.lastToast(t).Text)

	svc.BuyProduct(context.Background(), 1)
	assert.Equal(t, "Произошла ошибка. Попробуйте позже.", h.lastToast(t).Text)
	assert.Empty(t, h.nav.urls)
}

func TestTransportFailure_LoggedOnce(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := srv.URL
	srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	api, err := client.New(client.Config{BaseURL: dead}, nil, credential.StaticStore(""), logger)
	require.NoError(t, err)
	sched := &notifytest.Scheduler{}
	fb := NewFeedback(notify.New(&notifytest.Surface{}, sched), &recordingNav{}, sched, DefaultTiming(), "/login/", logger)

	res := NewCatalogService(api, fb, domain.PageContext{}).AddToCart(context.Background(), 1)
	assert.Equal(t, domain.OutcomeTransportError, res.Outcome)
	assert.ErrorIs(t, res.Err, client.ErrTransport)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).Len())
}

func TestBusy_IsSilent(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{domain.ActionAddToCart: {Outcome: domain.OutcomeBusy}})
	svc := NewCatalogService(h.api, h.fb, domain.PageContext{})
	svc.AddToCart(context.Background(), 1)
	assert.Empty(t, h.notes.Visible())
}

func TestGetProduct_FallsBackToPageSlug(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{domain.ActionGetFreeProduct: {Outcome: domain.OutcomeSuccess}})
	page := domain.PageContext{Product: &domain.Product{ID: 3, Slug: "map-ural", Title: "Карта Урала"}}
	svc := NewCatalogService(h.api, h.fb, page)

	res := svc.GetProduct(context.Background(), 3)
	assert.Equal(t, base+"/download/map-ural/", res.RedirectURL)
	assert.Equal(t, "Карта Урала успешно добавлен в вашу библиотеку!", h.lastToast(t).Text)
	h.sched.Advance(1500 * time.Millisecond)
	assert.Equal(t, []string{base + "/download/map-ural/"}, h.nav.urls)
}

func TestCartOperations(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{
		domain.ActionRemoveFromCart: {Outcome: domain.OutcomeSuccess, Message: "Товар удален из корзины"},
		domain.ActionClearCart:      {Outcome: domain.OutcomeSuccess},
		domain.ActionCheckoutCart:   {Outcome: domain.OutcomeSuccess, RedirectURL: base + "/payment/demo/cart-checkout/"},
	})
	svc := NewCatalogService(h.api, h.fb, domain.PageContext{})
	ctx := context.Background()

	svc.RemoveFromCart(ctx, 1)
	assert.Equal(t, "Товар удален из корзины", h.lastToast(t).Text)
	svc.ClearCart(ctx)
	assert.Equal(t, "Корзина очищена", h.lastToast(t).Text)
	svc.Checkout(ctx, []domain.CartItem{{ProductID: 1, Price: decimal.NewFromInt(100)}})
	assert.Equal(t, "Переходим к оплате через ЮKassa...", h.lastToast(t).Text)
	h.sched.Advance(2 * time.Second)
	assert.Equal(t, []string{base + "/payment/demo/cart-checkout/"}, h.nav.urls)
}

func TestProfile_ValidationNeverReachesNetwork(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{
		domain.ActionChangePassword: {Outcome: domain.OutcomeSuccess},
		domain.ActionChangeLogin:    {Outcome: domain.OutcomeSuccess},
	})
	svc := NewProfileService(h.api, h.fb)
	ctx := context.Background()

	_, err := svc.ChangePassword(ctx, "old", "short", "short")
	assert.ErrorIs(t, err, forms.ErrValidation)
	_, err = svc.ChangeLogin(ctx, "old", "ab!3")
	assert.ErrorIs(t, err, forms.ErrValidation)
	assert.Empty(t, h.api.calls)
	assert.Empty(t, h.notes.Visible(), "validation errors are inline only")

	res, err := svc.ChangePassword(ctx, "old", "secret1", "secret1")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "🎉 Пароль успешно изменен!", h.lastToast(t).Text)

	res, err = svc.ChangeLogin(ctx, "old", "ab_3")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []domain.ActionKind{domain.ActionChangePassword, domain.ActionChangeLogin}, h.api.calls)
}

func TestAccount_RegisterRedirectsToLogin(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{domain.ActionRegister: {Outcome: domain.OutcomeSuccess}})
	svc := NewAccountService(h.api, h.fb)

	draft := forms.NewRegistrationDraft()
	_, err := svc.Register(context.Background(), draft)
	assert.ErrorIs(t, err, forms.ErrValidation)
	assert.Empty(t, h.api.calls)

	draft.Input(forms.FieldUsername, "ivan")
	draft.Input(forms.FieldPassword, "secret1")
	draft.Input(forms.FieldPassword2, "secret1")
	draft.SetAgree(true)
	res, err := svc.Register(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Empty(t, draft.Value(forms.FieldUsername))
	h.sched.Advance(2 * time.Second)
	assert.Equal(t, []string{base + "/login/"}, h.nav.urls)
}

func TestAccount_RejectedRegistrationKeepsDraft(t *testing.T) {
	h := newHarness(map[domain.ActionKind]domain.ActionResult{
		domain.ActionRegister: {Outcome: domain.OutcomeDomainError, Message: "Пользователь с таким именем уже существует!"},
	})
	svc := NewAccountService(h.api, h.fb)

	draft := forms.NewRegistrationDraft()
	draft.Input(forms.FieldUsername, "ivan")
	draft.Input(forms.FieldEmail, "ivan@example.com")
	draft.Input(forms.FieldPassword, "secret1")
	draft.Input(forms.FieldPassword2, "secret1")
	draft.SetAgree(true)

	res, err := svc.Register(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDomainError, res.Outcome)
	assert.Equal(t, "ivan", draft.Value(forms.FieldUsername))
	assert.Equal(t, "ivan@example.com", draft.Value(forms.FieldEmail))
	assert.Equal(t, "secret1", draft.Value(forms.FieldPassword2))
	assert.Equal(t, "Пользователь с таким именем уже существует!", h.lastToast(t).Text)
}
