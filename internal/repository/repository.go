package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
)

var (
	// ErrNotFound возвращается, когда сущность не найдена
	ErrNotFound = errors.New("not found")
	// ErrDuplicate уникальное значение уже занято (логин, позиция корзины, покупка)
	ErrDuplicate = errors.New("duplicate")
)

// ProductFilter параметры фильтрации каталога
type ProductFilter struct {
	TitleSubstring string
	OnlyFree       bool
}

// ProductRepository каталог товаров
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

// AccountRepository учётные записи
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
}

// SessionRepository сессии по cookie
type SessionRepository interface {
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// CartRepository корзины пользователей
type CartRepository interface {
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
	Items(ctx context.Context, userID int64) ([]int64, error)
}

// PurchaseRepository библиотека купленных и полученных товаров
type PurchaseRepository interface {
	Create(ctx context.Context, p *domain.Purchase) error
	Has(ctx context.Context, userID, productID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Purchase, error)
}

// PendingRepository платные позиции, выбранные при оформлении корзины и ждущие оплаты
type PendingRepository interface {
	// Put заменяет ожидающий заказ пользователя
	Put(ctx context.Context, userID int64, productIDs []int64) error
	// Take отдаёт заказ и удаляет его; ErrNotFound, если заказа нет
	Take(ctx context.Context, userID int64) ([]int64, error)
}

// TxManager абстракция транзакции. Для in-memory: глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
