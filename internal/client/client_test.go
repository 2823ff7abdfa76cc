package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/credential"
	"storefront/internal/domain"
)

type captured struct {
	path    string
	csrf    string
	ctype   string
	payload map[string]any
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]captured) {
	t.Helper()
	var mu sync.Mutex
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		mu.Lock()
		calls = append(calls, captured{path: r.URL.Path, csrf: r.Header.Get("X-CSRFToken"), ctype: r.Header.Get("Content-Type"), payload: payload})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL}, srv.Client(), credential.StaticStore("sessionid=s; csrftoken=tok%3D1"), nil)
	require.NoError(t, err)
	return c, &calls
}

func reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestPerform_RequestShape(t *testing.T) {
	c, calls := newTestClient(t, reply(http.StatusOK, `{"success":true}`))
	res := c.Perform(context.Background(), domain.ActionAddToCart, 42)
	require.Equal(t, domain.OutcomeSuccess, res.Outcome)

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "/api/add-to-cart/", got.path)
	assert.Equal(t, "tok=1", got.csrf)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, float64(42), got.payload["product_id"])
}

func TestPerform_Endpoints(t *testing.T) {
	c, calls := newTestClient(t, reply(http.StatusOK, `{}`))
	ctx := context.Background()
	c.Perform(ctx, domain.ActionGetFreeProduct, 1)
	c.Perform(ctx, domain.ActionBuyProduct, 1)
	c.Perform(ctx, domain.ActionRemoveFromCart, 1)
	c.Perform(ctx, domain.ActionClearCart, 0)

	paths := make([]string, 0, len(*calls))
	for _, call := range *calls {
		paths = append(paths, call.path)
	}
	assert.Equal(t, []string{"/api/get-product/", "/api/buy-product/", "/api/remove-from-cart/", "/api/clear-cart/"}, paths)
}

func TestPerform_BuyWithPaymentURL(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"success":true,"payment_url":"https://pay/x","demo_mode":true}`))
	res := c.Perform(context.Background(), domain.ActionBuyProduct, 7)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "https://pay/x", res.RedirectURL)
	assert.True(t, res.DemoMode)
}

func TestPerform_BuyWithoutPaymentURL(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"success":true}`))
	res := c.Perform(context.Background(), domain.ActionBuyProduct, 7)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Empty(t, res.RedirectURL)
	assert.False(t, res.DemoMode)
}

func TestPerform_GetProductRedirects(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"success":true,"product_slug":"vl80"}`))
	res := c.Perform(context.Background(), domain.ActionGetFreeProduct, 3)
	require.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, c.Base().String()+"/download/vl80/", res.RedirectURL)

	c, _ = newTestClient(t, reply(http.StatusOK, `{"download_url":"https://cdn/x.zip"}`))
	res = c.Perform(context.Background(), domain.ActionGetFreeProduct, 3)
	assert.Equal(t, "https://cdn/x.zip", res.RedirectURL)
}

func TestPerform_Unauthorized(t *testing.T) {
	for _, body := range []string{`{"error":"Необходимо войти в систему"}`, `not json`, ``, `{"success":true}`} {
		c, _ := newTestClient(t, reply(http.StatusUnauthorized, body))
		res := c.Perform(context.Background(), domain.ActionAddToCart, 1)
		assert.Equal(t, domain.OutcomeAuthRequired, res.Outcome, "body=%q", body)
	}
}

func TestPerform_DomainError(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusBadRequest, `{"error":"Товар уже куплен"}`))
	res := c.Perform(context.Background(), domain.ActionBuyProduct, 1)
	assert.Equal(t, domain.OutcomeDomainError, res.Outcome)
	assert.Equal(t, "Товар уже куплен", res.Message)

	c, _ = newTestClient(t, reply(http.StatusInternalServerError, `{}`))
	res = c.Perform(context.Background(), domain.ActionAddToCart, 1)
	assert.Equal(t, domain.OutcomeDomainError, res.Outcome)
	assert.Equal(t, "Ошибка при добавлении в корзину", res.Message)
}

func TestPerform_InvalidJSONIsTransport(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `<html>oops</html>`))
	res := c.Perform(context.Background(), domain.ActionAddToCart, 1)
	assert.Equal(t, domain.OutcomeTransportError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrInvalidEnvelope)
}

func TestPerform_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base}, nil, credential.StaticStore(""), nil)
	require.NoError(t, err)
	res := c.Perform(context.Background(), domain.ActionAddToCart, 1)
	assert.Equal(t, domain.OutcomeTransportError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrTransport)
	assert.Equal(t, genericError, res.Message)
}

func TestPerform_UnknownKind(t *testing.T) {
	c, calls := newTestClient(t, reply(http.StatusOK, `{}`))
	res := c.Perform(context.Background(), domain.ActionLogin, 1)
	assert.Equal(t, domain.OutcomeTransportError, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrUnknownAction)
	assert.Empty(t, *calls)
}

func TestPerform_DuplicateDropped(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-unblock
		reply(http.StatusOK, `{}`)(w, r)
	})

	done := make(chan domain.ActionResult)
	go func() { done <- c.Perform(context.Background(), domain.ActionAddToCart, 5) }()
	<-entered

	second := c.Perform(context.Background(), domain.ActionAddToCart, 5)
	assert.Equal(t, domain.OutcomeBusy, second.Outcome)

	close(unblock)
	first := <-done
	assert.Equal(t, domain.OutcomeSuccess, first.Outcome)
	assert.Len(t, *calls, 1)
}

func TestChangePasswordAndLogin_Bodies(t *testing.T) {
	c, calls := newTestClient(t, reply(http.StatusOK, `{}`))
	ctx := context.Background()
	assert.True(t, c.ChangePassword(ctx, "old", "newpass").OK())
	assert.True(t, c.ChangeLogin(ctx, "old", "new_login").OK())

	require.Len(t, *calls, 2)
	assert.Equal(t, "/change-password/", (*calls)[0].path)
	assert.Equal(t, "old", (*calls)[0].payload["current_password"])
	assert.Equal(t, "newpass", (*calls)[0].payload["new_password"])
	assert.Equal(t, "/change-login/", (*calls)[1].path)
	assert.Equal(t, "new_login", (*calls)[1].payload["new_login"])
}

func TestCheckout_Envelope(t *testing.T) {
	c, _ := newTestClient(t, reply(http.StatusOK, `{"success":true,"payment_url":"/payment/demo/cart-checkout/","free_products":["a"],"total_amount":350}`))
	res := c.Checkout(context.Background(), []domain.CartItem{{ProductID: 1}})
	require.True(t, res.OK())
	assert.Equal(t, c.Base().String()+"/payment/demo/cart-checkout/", res.RedirectURL)
	assert.Equal(t, []string{"a"}, res.FreeProducts)
	assert.Equal(t, "350", res.TotalAmount.String())
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	_, err := New(Config{BaseURL: "/relative"}, nil, nil, nil)
	assert.Error(t, err)
}
