package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/client"
	"storefront/internal/domain"
	"storefront/internal/notify"
)

// CatalogService действия с товарами: корзина, получение, покупка
type CatalogService struct {
	api  Actions
	fb   *Feedback
	page domain.PageContext
}

func NewCatalogService(api Actions, fb *Feedback, page domain.PageContext) *CatalogService {
	return &CatalogService{api: api, fb: fb, page: page}
}

// AddToCart добавляет товар в корзину
func (s *CatalogService) AddToCart(ctx context.Context, productID int64) domain.ActionResult {
	kind := domain.ActionAddToCart
	if s.page.LoginRequired() {
		return s.fb.loginRequired(s.api, kind)
	}
	res := s.api.Perform(ctx, kind, productID)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	if title, ok := s.page.ProductTitle(productID); ok {
		s.fb.toast(fmt.Sprintf("%s добавлен в корзину!", title), notify.SeveritySuccess, 4*time.Second)
	} else {
		s.fb.toast("Товар добавлен в корзину!", notify.SeveritySuccess, 0)
	}
	return res
}

// GetProduct выдаёт бесплатный товар и переводит на страницу скачивания
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) domain.ActionResult {
	kind := domain.ActionGetFreeProduct
	if s.page.LoginRequired() {
		return s.fb.loginRequired(s.api, kind)
	}
	res := s.api.Perform(ctx, kind, productID)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	if title, ok := s.page.ProductTitle(productID); ok {
		s.fb.toast(fmt.Sprintf("%s успешно добавлен в вашу библиотеку!", title), notify.SeveritySuccess, 3*time.Second)
	} else {
		s.fb.toast("Товар добавлен в библиотеку!", notify.SeveritySuccess, 3*time.Second)
	}
	if res.RedirectURL == "" && s.page.Product != nil && s.page.Product.ID == productID && s.page.Product.Slug != "" {
		res.RedirectURL = s.api.Resolve(client.DownloadPath(s.page.Product.Slug))
	}
	s.fb.redirectAfter(res.RedirectURL, s.fb.timing.PaymentRedirect)
	return res
}

// BuyProduct покупает товар; при наличии payment_url переводит на оплату
func (s *CatalogService) BuyProduct(ctx context.Context, productID int64) domain.ActionResult {
	kind := domain.ActionBuyProduct
	if s.page.LoginRequired() {
		return s.fb.loginRequired(s.api, kind)
	}
	res := s.api.Perform(ctx, kind, productID)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	if res.RedirectURL != "" {
		s.paymentRedirect(res)
		return res
	}
	if s.page.Product != nil && s.page.Product.ID == productID && s.page.Product.Title != "" {
		s.fb.toast(fmt.Sprintf("%s успешно приобретен за %s₽!", s.page.Product.Title, s.page.Product.Price.String()), notify.SeveritySuccess, 5*time.Second)
	} else {
		s.fb.toast("Товар успешно приобретен!", notify.SeveritySuccess, 5*time.Second)
	}
	return res
}

// RemoveFromCart удаляет позицию из корзины
func (s *CatalogService) RemoveFromCart(ctx context.Context, productID int64) domain.ActionResult {
	kind := domain.ActionRemoveFromCart
	res := s.api.Perform(ctx, kind, productID)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	s.fb.toast(orDefault(res.Message, "Товар удален из корзины"), notify.SeveritySuccess, 0)
	return res
}

// ClearCart очищает корзину
func (s *CatalogService) ClearCart(ctx context.Context) domain.ActionResult {
	kind := domain.ActionClearCart
	res := s.api.Perform(ctx, kind, 0)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	s.fb.toast(orDefault(res.Message, "Корзина очищена"), notify.SeveritySuccess, 0)
	return res
}

// Checkout оформляет выбранные товары: бесплатные сразу, платные через оплату
func (s *CatalogService) Checkout(ctx context.Context, items []domain.CartItem) domain.ActionResult {
	kind := domain.ActionCheckoutCart
	res := s.api.Checkout(ctx, items)
	if s.fb.failure(s.api, kind, res) {
		return res
	}
	if res.RedirectURL != "" {
		s.paymentRedirect(res)
		return res
	}
	s.fb.toast(orDefault(res.Message, "Бесплатные товары добавлены в библиотеку"), notify.SeveritySuccess, 0)
	return res
}

func (s *CatalogService) paymentRedirect(res domain.ActionResult) {
	if res.DemoMode {
		s.fb.toast("Демо-режим: Переходим к имитации оплаты", notify.SeverityInfo, 3*time.Second)
	} else {
		s.fb.toast("Переходим к оплате через ЮKassa...", notify.SeverityInfo, 3*time.Second)
	}
	s.fb.redirectAfter(res.RedirectURL, s.fb.timing.PaymentRedirect)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
