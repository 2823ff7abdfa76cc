package shop

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

// CartCheckoutPaymentURL демо-оплата корзины
const CartCheckoutPaymentURL = "/payment/demo/cart-checkout/"

// PaymentURL демо-оплата одного товара
func PaymentURL(productID int64) string {
	return fmt.Sprintf("/payment/demo/%d/", productID)
}

// DownloadURL страница скачивания товара
func DownloadURL(slug string) string { return "/download/" + slug + "/" }

// StoreService корзина, выдача бесплатных товаров и покупки
type StoreService struct {
	products  repository.ProductRepository
	carts     repository.CartRepository
	purchases repository.PurchaseRepository
	pending   repository.PendingRepository
	tx        repository.TxManager
}

func NewStoreService(products repository.ProductRepository, carts repository.CartRepository, purchases repository.PurchaseRepository, pending repository.PendingRepository, tx repository.TxManager) *StoreService {
	return &StoreService{products: products, carts: carts, purchases: purchases, pending: pending, tx: tx}
}

// Payment ссылка на оплату
type Payment struct {
	URL      string
	DemoMode bool
}

// CheckoutResult итог оформления корзины
type CheckoutResult struct {
	FreeSlugs   []string
	Payment     *Payment
	TotalAmount decimal.Decimal
}

func (s *StoreService) product(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	return p, nil
}

// Catalog список товаров витрины
func (s *StoreService) Catalog(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	return s.products.List(ctx, f)
}

// ProductBySlug товар для страницы скачивания
func (s *StoreService) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// AddToCart добавляет товар в корзину; купленные товары повторно не добавляются
func (s *StoreService) AddToCart(ctx context.Context, userID, productID int64) (*domain.Product, error) {
	var added *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.product(ctx, productID)
		if err != nil {
			return err
		}
		owned, err := s.purchases.Has(ctx, userID, productID)
		if err != nil {
			return errors.Wrap(err, "check library")
		}
		if owned {
			return ErrAlreadyOwned
		}
		if err := s.carts.Add(ctx, userID, productID); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyInCart
			}
			return errors.Wrap(err, "add to cart")
		}
		added = p
		return nil
	})
	return added, err
}

// GetFreeProduct кладёт бесплатный товар в библиотеку и убирает его из корзины
func (s *StoreService) GetFreeProduct(ctx context.Context, userID, productID int64) (*domain.Product, error) {
	var got *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.product(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsFree() {
			return ErrNotFree
		}
		if err := s.grant(ctx, userID, *p); err != nil {
			return err
		}
		got = p
		return nil
	})
	return got, err
}

// BuyProduct выдаёт ссылку на демо-оплату платного товара.
// Покупка записывается только после CompletePayment.
func (s *StoreService) BuyProduct(ctx context.Context, userID, productID int64) (Payment, error) {
	p, err := s.product(ctx, productID)
	if err != nil {
		return Payment{}, err
	}
	if p.IsFree() {
		return Payment{}, ErrFree
	}
	owned, err := s.purchases.Has(ctx, userID, productID)
	if err != nil {
		return Payment{}, errors.Wrap(err, "check library")
	}
	if owned {
		return Payment{}, ErrAlreadyOwned
	}
	return Payment{URL: PaymentURL(productID), DemoMode: true}, nil
}

// CompletePayment завершает демо-оплату товара
func (s *StoreService) CompletePayment(ctx context.Context, userID, productID int64) (*domain.Product, error) {
	var paid *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.product(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.grant(ctx, userID, *p); err != nil {
			return err
		}
		paid = p
		return nil
	})
	return paid, err
}

// CompleteCartPayment оплачивает платные позиции, выбранные при последнем
// Checkout. Позиции корзины, не попавшие в выбор, остаются в корзине.
func (s *StoreService) CompleteCartPayment(ctx context.Context, userID int64) ([]domain.Product, error) {
	var paid []domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ids, err := s.pending.Take(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingPayment
		}
		if err != nil {
			return errors.Wrap(err, "take pending order")
		}
		for _, id := range ids {
			p, err := s.product(ctx, id)
			if errors.Is(err, ErrProductNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := s.grant(ctx, userID, *p); err != nil {
				if errors.Is(err, ErrAlreadyOwned) {
					continue
				}
				return err
			}
			paid = append(paid, *p)
		}
		return nil
	})
	return paid, err
}

// RemoveFromCart удаляет позицию; отсутствие позиции не ошибка
func (s *StoreService) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	if productID <= 0 {
		return ErrInvalidInput
	}
	return s.carts.Remove(ctx, userID, productID)
}

func (s *StoreService) ClearCart(ctx context.Context, userID int64) error {
	return s.carts.Clear(ctx, userID)
}

// Cart содержимое корзины
func (s *StoreService) Cart(ctx context.Context, userID int64) ([]domain.Product, error) {
	ids, err := s.carts.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// Library купленные и полученные товары
func (s *StoreService) Library(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	return s.purchases.ListByUser(ctx, userID)
}

// Checkout бесплатные позиции сразу попадают в библиотеку, платные
// запоминаются до оплаты и за них возвращается ссылка на оплату.
// Цены берутся из каталога, а не из запроса.
func (s *StoreService) Checkout(ctx context.Context, userID int64, items []domain.CartItem) (CheckoutResult, error) {
	if len(items) == 0 {
		return CheckoutResult{}, ErrEmptySelection
	}
	var res CheckoutResult
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		seen := make(map[int64]bool, len(items))
		var toPay []int64
		for _, it := range items {
			if seen[it.ProductID] {
				continue
			}
			seen[it.ProductID] = true
			p, err := s.product(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if !p.IsFree() {
				res.TotalAmount = res.TotalAmount.Add(p.Price)
				toPay = append(toPay, p.ID)
				continue
			}
			if err := s.grant(ctx, userID, *p); err != nil && !errors.Is(err, ErrAlreadyOwned) {
				return err
			}
			res.FreeSlugs = append(res.FreeSlugs, p.Slug)
		}
		if len(toPay) == 0 {
			return nil
		}
		return s.pending.Put(ctx, userID, toPay)
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	if res.TotalAmount.IsPositive() {
		res.Payment = &Payment{URL: CartCheckoutPaymentURL, DemoMode: true}
	}
	return res, nil
}

// grant записывает покупку и убирает товар из корзины; вызывается внутри транзакции
func (s *StoreService) grant(ctx context.Context, userID int64, p domain.Product) error {
	purchase := domain.Purchase{UserID: userID, ProductID: p.ID, Amount: p.Price}
	if err := s.purchases.Create(ctx, &purchase); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyOwned
		}
		return errors.Wrap(err, "create purchase")
	}
	if err := s.carts.Remove(ctx, userID, p.ID); err != nil {
		return errors.Wrap(err, "remove from cart")
	}
	return nil
}
