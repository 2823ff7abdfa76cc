package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет цифровой товар витрины
type Product struct {
	ID     int64           `json:"id" yaml:"id"`
	Slug   string          `json:"slug" yaml:"slug"`
	Title  string          `json:"title" yaml:"title"`
	Price  decimal.Decimal `json:"price_rub" yaml:"price"`
	Photos []string        `json:"photos" yaml:"photos"`
}

// IsFree бесплатные товары выдаются через get-product, платные через buy-product
func (p Product) IsFree() bool { return p.Price.IsZero() }

// User текущий пользователь страницы
type User struct {
	Authenticated bool   `json:"is_authenticated" yaml:"authenticated"`
	Username      string `json:"username" yaml:"username"`
}

// PageContext данные страницы, доступные только для чтения.
// Product и User равны nil, если страница их не передала.
type PageContext struct {
	Product *Product `yaml:"product"`
	User    *User    `yaml:"user"`
}

// ProductTitle возвращает название товара страницы, если оно совпадает с id
func (c PageContext) ProductTitle(id int64) (string, bool) {
	if c.Product == nil || c.Product.ID != id || c.Product.Title == "" {
		return "", false
	}
	return c.Product.Title, true
}

// LoginRequired true только если страница явно сообщила, что пользователь не вошёл
func (c PageContext) LoginRequired() bool {
	return c.User != nil && !c.User.Authenticated
}

// ActionKind тип действия с товаром
type ActionKind string

const (
	ActionAddToCart      ActionKind = "add-to-cart"
	ActionGetFreeProduct ActionKind = "get-product"
	ActionBuyProduct     ActionKind = "buy-product"
	ActionRemoveFromCart ActionKind = "remove-from-cart"
	ActionClearCart      ActionKind = "clear-cart"
	ActionCheckoutCart   ActionKind = "checkout-cart"
	ActionChangePassword ActionKind = "change-password"
	ActionChangeLogin    ActionKind = "change-login"
	ActionRegister       ActionKind = "register"
	ActionLogin          ActionKind = "login"
)

// ActionRequest запрос на действие, создаётся в момент клика
type ActionRequest struct {
	ProductID int64
	Kind      ActionKind
}

// Key identifies the request for in-flight deduplication.
func (r ActionRequest) Key() string {
	return string(r.Kind) + ":" + strconv.FormatInt(r.ProductID, 10)
}

// Outcome исход действия
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuthRequired
	OutcomeDomainError
	OutcomeTransportError
	// OutcomeBusy the same action is already in flight; nothing was sent.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuthRequired:
		return "auth_required"
	case OutcomeDomainError:
		return "domain_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// ActionResult результат действия, обрабатывается UI ровно один раз
type ActionResult struct {
	Outcome     Outcome
	Message     string
	RedirectURL string
	DemoMode    bool
	// checkout only
	FreeProducts []string
	TotalAmount  decimal.Decimal
	Err          error
}

func (r ActionResult) OK() bool { return r.Outcome == OutcomeSuccess }

// CartItem позиция корзины при оформлении заказа
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

// Purchase запись о покупке
type Purchase struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ProductID int64           `json:"product_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Account учётная запись пользователя dev-бэкенда
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session сессия dev-бэкенда, хранится по cookie sessionid
type Session struct {
	ID        string
	UserID    int64
	CSRFToken string
	CreatedAt time.Time
}
