// Package shop реализует бизнес-логику dev-бэкенда витрины: каталог,
// корзину, покупки и учётные записи поверх репозиториев.
package shop

import "github.com/go-faster/errors"

// Тексты ошибок отдаются клиенту как есть в поле "error".
var (
	ErrInvalidInput     = errors.New("Неверный формат данных")
	ErrProductNotFound  = errors.New("Товар не найден")
	ErrAlreadyInCart    = errors.New("Товар уже в корзине")
	ErrAlreadyOwned     = errors.New("Товар уже есть в вашей библиотеке")
	ErrNotFree          = errors.New("Этот товар платный")
	ErrFree             = errors.New("Этот товар бесплатный, используйте «Получить»")
	ErrEmptySelection   = errors.New("Не выбрано ни одного товара")
	ErrNoPendingPayment = errors.New("Нет заказа, ожидающего оплаты")

	ErrUsernameTaken    = errors.New("Пользователь с таким именем уже существует!")
	ErrPasswordMismatch = errors.New("Пароли не совпадают!")
	ErrBadCredentials   = errors.New("Неверное имя пользователя или пароль")
	ErrWrongPassword    = errors.New("Неверный текущий пароль")
	ErrLoginTaken       = errors.New("Этот логин уже занят")
	ErrUnauthenticated  = errors.New("Необходимо войти в систему")
)
