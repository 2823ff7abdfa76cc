package client

import "storefront/internal/domain"

// fallbackErrors используются, если сервер не прислал поле error
var fallbackErrors = map[domain.ActionKind]string{
	domain.ActionAddToCart:      "Ошибка при добавлении в корзину",
	domain.ActionGetFreeProduct: "Ошибка при получении товара",
	domain.ActionBuyProduct:     "Ошибка при покупке товара",
	domain.ActionRemoveFromCart: "Ошибка при удалении из корзины",
	domain.ActionClearCart:      "Ошибка при очистке корзины",
	domain.ActionCheckoutCart:   "Ошибка при оформлении заказа",
	domain.ActionChangePassword: "Ошибка при смене пароля",
	domain.ActionChangeLogin:    "Ошибка при смене логина",
	domain.ActionRegister:       "Ошибка при регистрации",
	domain.ActionLogin:          "Неверное имя пользователя или пароль",
}

const genericError = "Произошла ошибка. Попробуйте позже."

func fallbackError(kind domain.ActionKind) string {
	if msg, ok := fallbackErrors[kind]; ok {
		return msg
	}
	return genericError
}
