package forms

import (
	"strings"
	"sync"
)

type registration struct {
	Username  string `form:"username" validate:"required"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password  string `form:"password" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
	Agree     bool   `form:"agree" validate:"eq=true"`
}

// RegistrationDraft черновик формы регистрации с живой валидацией.
// Values survive a failed submit so the user can fix them in place.
type RegistrationDraft struct {
	mu        sync.Mutex
	username  string
	email     string
	password  string
	password2 string
	agree     bool
	errors    map[string]string
}

func NewRegistrationDraft() *RegistrationDraft {
	return &RegistrationDraft{errors: make(map[string]string)}
}

// Input records a keystroke in a text field and re-runs the live checks for it.
func (d *RegistrationDraft) Input(field, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch field {
	case FieldUsername:
		d.username = value
		if strings.TrimSpace(value) != "" {
			delete(d.errors, FieldUsername)
		}
	case FieldEmail:
		d.email = value
		if _, bad := check(registration{Email: value})[FieldEmail]; !bad {
			delete(d.errors, FieldEmail)
		}
	case FieldPassword:
		d.password = value
		if value != "" {
			delete(d.errors, FieldPassword)
		}
		d.checkMatch()
	case FieldPassword2:
		d.password2 = value
		d.checkMatch()
	}
}

// SetAgree toggles the terms checkbox.
func (d *RegistrationDraft) SetAgree(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agree = v
	if v {
		delete(d.errors, FieldAgree)
	}
}

// checkMatch shows the mismatch error only while both passwords are filled.
func (d *RegistrationDraft) checkMatch() {
	if d.password != "" && d.password2 != "" && d.password != d.password2 {
		d.errors[FieldPassword2] = messages[FieldPassword2]["eqfield"]
		return
	}
	delete(d.errors, FieldPassword2)
}

// Submit runs every rule. On failure the field errors are kept and returned
// as a *ValidationError. The values stay in the draft either way; call Reset
// once the server has accepted them.
func (d *RegistrationDraft) Submit() (Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = make(map[string]string)
	r := registration{
		Username:  strings.TrimSpace(d.username),
		Email:     strings.TrimSpace(d.email),
		Password:  d.password,
		Password2: d.password2,
		Agree:     d.agree,
	}
	if fields := check(r); len(fields) > 0 {
		for k, v := range fields {
			d.errors[k] = v
		}
		return Registration{}, &ValidationError{Fields: fields}
	}
	return Registration{Username: r.Username, Email: r.Email, Password: r.Password, Password2: r.Password2}, nil
}

// Reset очищает форму после успешной регистрации
func (d *RegistrationDraft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.username, d.email, d.password, d.password2, d.agree = "", "", "", "", false
	d.errors = make(map[string]string)
}

// Registration проверенные данные формы
type Registration struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// Error returns the current message for field, "" when the field is fine.
func (d *RegistrationDraft) Error(field string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errors[field]
}

// Errors returns a copy of all non-empty field errors.
func (d *RegistrationDraft) Errors() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.errors))
	for k, v := range d.errors {
		out[k] = v
	}
	return out
}

// Value returns the current text of a field.
func (d *RegistrationDraft) Value(field string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch field {
	case FieldUsername:
		return d.username
	case FieldEmail:
		return d.email
	case FieldPassword:
		return d.password
	case FieldPassword2:
		return d.password2
	}
	return ""
}
