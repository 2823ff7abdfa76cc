// Package client issues the storefront's mutating requests and turns each
// HTTP response into exactly one ActionResult.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/credential"
	"storefront/internal/domain"
)

var (
	// ErrTransport the request never produced an HTTP response.
	ErrTransport = errors.New("transport failure")
	// ErrInvalidEnvelope the response body is not the JSON object the API promises.
	ErrInvalidEnvelope = errors.New("invalid response envelope")
	// ErrUnknownAction no endpoint is registered for the action kind.
	ErrUnknownAction = errors.New("unknown action")
)

// Endpoints пути API относительно базового адреса
var Endpoints = map[domain.ActionKind]string{
	domain.ActionAddToCart:      "/api/add-to-cart/",
	domain.ActionGetFreeProduct: "/api/get-product/",
	domain.ActionBuyProduct:     "/api/buy-product/",
	domain.ActionRemoveFromCart: "/api/remove-from-cart/",
	domain.ActionClearCart:      "/api/clear-cart/",
	domain.ActionCheckoutCart:   "/api/checkout-cart/",
	domain.ActionChangePassword: "/change-password/",
	domain.ActionChangeLogin:    "/change-login/",
	domain.ActionRegister:       "/register/",
	domain.ActionLogin:          "/login/",
}

const maxBodyBytes = 1 << 20

// Config параметры клиента
type Config struct {
	BaseURL    string
	CSRFCookie string
	CSRFHeader string
	Timeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.CSRFCookie == "" {
		c.CSRFCookie = "csrftoken"
	}
	if c.CSRFHeader == "" {
		c.CSRFHeader = "X-CSRFToken"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// Client клиент API витрины
type Client struct {
	cfg    Config
	base   *url.URL
	http   *http.Client
	creds  credential.Store
	guard  *Guard
	logger *zap.Logger
}

// New builds a client. httpClient should carry the cookie jar that creds
// reads from; a nil logger disables diagnostics.
func New(cfg Config, httpClient *http.Client, creds credential.Store, logger *zap.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, base: base, http: httpClient, creds: creds, guard: NewGuard(), logger: logger}, nil
}

// Base returns the backend base URL.
func (c *Client) Base() *url.URL { return c.base }

type productBody struct {
	ProductID int64 `json:"product_id"`
}

type checkoutBody struct {
	SelectedProducts []domain.CartItem `json:"selected_products"`
}

type passwordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type loginBody struct {
	CurrentPassword string `json:"current_password"`
	NewLogin        string `json:"new_login"`
}

// envelope общий формат ответа API
type envelope struct {
	Success      bool            `json:"success"`
	Error        string          `json:"error"`
	Message      string          `json:"message"`
	PaymentURL   string          `json:"payment_url"`
	DemoMode     bool            `json:"demo_mode"`
	DownloadURL  string          `json:"download_url"`
	ProductSlug  string          `json:"product_slug"`
	RedirectURL  string          `json:"redirect_url"`
	FreeProducts []string        `json:"free_products"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// Perform runs one of the product actions. A second call for the same kind
// and product while the first is outstanding returns OutcomeBusy.
func (c *Client) Perform(ctx context.Context, kind domain.ActionKind, productID int64) domain.ActionResult {
	var body any
	switch kind {
	case domain.ActionAddToCart, domain.ActionGetFreeProduct, domain.ActionBuyProduct, domain.ActionRemoveFromCart:
		body = productBody{ProductID: productID}
	case domain.ActionClearCart:
		body = struct{}{}
	default:
		return domain.ActionResult{Outcome: domain.OutcomeTransportError, Err: errors.Wrap(ErrUnknownAction, string(kind))}
	}
	req := domain.ActionRequest{ProductID: productID, Kind: kind}
	return c.guarded(ctx, kind, req.Key(), func(ctx context.Context) domain.ActionResult {
		return c.postJSON(ctx, kind, body)
	})
}

// Checkout оформляет выбранные позиции корзины
func (c *Client) Checkout(ctx context.Context, items []domain.CartItem) domain.ActionResult {
	kind := domain.ActionCheckoutCart
	return c.guarded(ctx, kind, string(kind), func(ctx context.Context) domain.ActionResult {
		return c.postJSON(ctx, kind, checkoutBody{SelectedProducts: items})
	})
}

// ChangePassword expects the caller to have validated the new password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) domain.ActionResult {
	kind := domain.ActionChangePassword
	return c.guarded(ctx, kind, string(kind), func(ctx context.Context) domain.ActionResult {
		return c.postJSON(ctx, kind, passwordBody{CurrentPassword: current, NewPassword: next})
	})
}

// ChangeLogin expects the caller to have validated the new login.
func (c *Client) ChangeLogin(ctx context.Context, current, newLogin string) domain.ActionResult {
	kind := domain.ActionChangeLogin
	return c.guarded(ctx, kind, string(kind), func(ctx context.Context) domain.ActionResult {
		return c.postJSON(ctx, kind, loginBody{CurrentPassword: current, NewLogin: newLogin})
	})
}

// Registration поля формы регистрации
type Registration struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// Register posts the registration form as url-encoded fields.
func (c *Client) Register(ctx context.Context, r Registration) domain.ActionResult {
	kind := domain.ActionRegister
	form := url.Values{}
	form.Set("username", strings.TrimSpace(r.Username))
	form.Set("email", r.Email)
	form.Set("password", r.Password)
	form.Set("password2", r.Password2)
	return c.guarded(ctx, kind, string(kind), func(ctx context.Context) domain.ActionResult {
		return c.postForm(ctx, kind, form)
	})
}

// Login opens a session; the cookie jar keeps sessionid and csrftoken.
func (c *Client) Login(ctx context.Context, username, password string) domain.ActionResult {
	kind := domain.ActionLogin
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	return c.guarded(ctx, kind, string(kind), func(ctx context.Context) domain.ActionResult {
		return c.postForm(ctx, kind, form)
	})
}

func (c *Client) guarded(ctx context.Context, kind domain.ActionKind, key string, fn func(context.Context) domain.ActionResult) domain.ActionResult {
	release, ok := c.guard.TryAcquire(key)
	if !ok {
		c.logger.Debug("request dropped, already in flight", zap.String("action", string(kind)), zap.String("key", key))
		return domain.ActionResult{Outcome: domain.OutcomeBusy}
	}
	defer release()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	return fn(ctx)
}

func (c *Client) postJSON(ctx context.Context, kind domain.ActionKind, body any) domain.ActionResult {
	payload, err := json.Marshal(body)
	if err != nil {
		return c.transportFailure(kind, errors.Wrap(err, "encode request"))
	}
	return c.post(ctx, kind, "application/json", bytes.NewReader(payload))
}

func (c *Client) postForm(ctx context.Context, kind domain.ActionKind, form url.Values) domain.ActionResult {
	return c.post(ctx, kind, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (c *Client) post(ctx context.Context, kind domain.ActionKind, contentType string, body io.Reader) domain.ActionResult {
	path, ok := Endpoints[kind]
	if !ok {
		return c.transportFailure(kind, errors.Wrap(ErrUnknownAction, string(kind)))
	}
	target := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		return c.transportFailure(kind, errors.Wrap(err, "build request"))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	// re-read every time: the token may have rotated since the last response
	if token, ok := credential.Read(c.creds, c.cfg.CSRFCookie); ok {
		req.Header.Set(c.cfg.CSRFHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportFailure(kind, errors.Wrapf(err, "POST %s", path))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.transportFailure(kind, errors.Wrapf(err, "read %s response", path))
	}
	c.logger.Debug("api response",
		zap.String("action", string(kind)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	res := c.interpret(kind, resp.StatusCode, raw)
	if res.Outcome == domain.OutcomeTransportError {
		c.logger.Debug("unreadable api response", zap.String("action", string(kind)), zap.Int("status", resp.StatusCode), zap.Error(res.Err))
	}
	return res
}

func (c *Client) transportFailure(kind domain.ActionKind, err error) domain.ActionResult {
	c.logger.Debug("api request failed", zap.String("action", string(kind)), zap.Error(err))
	return domain.ActionResult{Outcome: domain.OutcomeTransportError, Message: genericError, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
}

// interpret maps a status code and body onto an ActionResult. 401 wins over
// whatever the body says.
func (c *Client) interpret(kind domain.ActionKind, status int, raw []byte) domain.ActionResult {
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if status == http.StatusUnauthorized {
		res := domain.ActionResult{Outcome: domain.OutcomeAuthRequired}
		if decodeErr == nil {
			res.Message = env.Error
		}
		return res
	}
	if decodeErr != nil {
		return domain.ActionResult{
			Outcome: domain.OutcomeTransportError,
			Message: genericError,
			Err:     errors.Errorf("decode %s response (%v): %w", kind, decodeErr, ErrInvalidEnvelope),
		}
	}
	if status < 200 || status > 299 || env.Error != "" {
		msg := env.Error
		if msg == "" {
			msg = fallbackError(kind)
		}
		return domain.ActionResult{Outcome: domain.OutcomeDomainError, Message: msg}
	}

	res := domain.ActionResult{Outcome: domain.OutcomeSuccess, Message: env.Message}
	switch kind {
	case domain.ActionBuyProduct:
		if env.Success && env.PaymentURL != "" {
			res.RedirectURL = c.resolve(env.PaymentURL)
			res.DemoMode = env.DemoMode
		}
	case domain.ActionGetFreeProduct:
		switch {
		case env.DownloadURL != "":
			res.RedirectURL = c.resolve(env.DownloadURL)
		case env.ProductSlug != "":
			res.RedirectURL = c.resolve(DownloadPath(env.ProductSlug))
		}
	case domain.ActionCheckoutCart:
		if env.PaymentURL != "" {
			res.RedirectURL = c.resolve(env.PaymentURL)
			res.DemoMode = env.DemoMode
		}
		res.FreeProducts = env.FreeProducts
		res.TotalAmount = env.TotalAmount
	case domain.ActionRegister, domain.ActionLogin:
		if env.RedirectURL != "" {
			res.RedirectURL = c.resolve(env.RedirectURL)
		}
	}
	return res
}

// DownloadPath путь страницы скачивания товара
func DownloadPath(slug string) string { return "/download/" + url.PathEscape(slug) + "/" }

// Resolve makes a server-relative path absolute against the base URL.
func (c *Client) Resolve(ref string) string { return c.resolve(ref) }

func (c *Client) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.base.ResolveReference(u).String()
}
