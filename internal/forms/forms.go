// Package forms holds the client-side checks that run before a form is
// allowed to reach the network. Failures are reported per field and are
// meant to be shown next to the input, never as a toast.
package forms

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// Имена полей, как в HTML-формах витрины
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPassword2       = "password2"
	FieldAgree           = "agree"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldConfirmPassword = "confirm_password"
	FieldNewLogin        = "new_login"
)

const (
	MinPasswordLength = 6
	MinLoginLength    = 3
)

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidationError ошибки по полям; пустая строка означает отсутствие ошибки
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// First returns one message, picking fields in name order.
func (e *ValidationError) First() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if e.Fields[k] != "" {
			return e.Fields[k]
		}
	}
	return ""
}

// messages тексты ошибок: поле -> тег валидатора -> сообщение
var messages = map[string]map[string]string{
	FieldUsername:        {"required": "Заполните логин"},
	FieldEmail:           {"email": "Некорректный email"},
	FieldPassword:        {"required": "Введите пароль"},
	FieldPassword2:       {"required": "Подтвердите пароль", "eqfield": "Пароли не совпадают"},
	FieldAgree:           {"eq": "Необходимо согласие"},
	FieldCurrentPassword: {"required": "Введите текущий пароль"},
	FieldNewPassword:     {"min": "Пароль должен содержать минимум 6 символов!"},
	FieldConfirmPassword: {"eqfield": "Пароли не совпадают!"},
	FieldNewLogin: {
		"min":   "Логин должен содержать минимум 3 символа!",
		"login": "Логин может содержать только буквы, цифры и подчеркивание!",
	},
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("form"); name != "" && name != "-" {
				return name
			}
			return f.Name
		})
		_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
			return loginPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// check runs struct validation and converts failures into field messages.
func check(s any) map[string]string {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		msg := messages[field][fe.Tag()]
		if msg == "" {
			msg = "Некорректное значение"
		}
		out[field] = msg
	}
	return out
}

type passwordChange struct {
	Current string `form:"current_password" validate:"required"`
	New     string `form:"new_password" validate:"min=6"`
	Confirm string `form:"confirm_password" validate:"eqfield=New"`
}

// ValidatePasswordChange проверяет форму смены пароля в модальном окне
func ValidatePasswordChange(current, next, confirm string) error {
	if fields := check(passwordChange{Current: current, New: next, Confirm: confirm}); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type loginChange struct {
	Current  string `form:"current_password" validate:"required"`
	NewLogin string `form:"new_login" validate:"min=3,login"`
}

// ValidateLoginChange проверяет форму смены логина в модальном окне
func ValidateLoginChange(current, newLogin string) error {
	if fields := check(loginChange{Current: current, NewLogin: newLogin}); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
