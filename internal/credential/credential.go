// Package credential reads the anti-forgery token and other values from a
// browser-style cookie string before each mutating request.
package credential

import (
	"net/http"
	"net/url"
	"strings"
)

// Store отдаёт текущую строку cookie в формате document.cookie ("a=1; b=2")
type Store interface {
	CookieString() string
}

// StaticStore строка cookie, заданная извне (конфиг, переменная окружения)
type StaticStore string

func (s StaticStore) CookieString() string { return string(s) }

// JarStore читает cookie из jar для базового адреса бэкенда, поэтому
// значение обновляется после каждого Set-Cookie.
type JarStore struct {
	Jar  http.CookieJar
	Base *url.URL
}

func (s JarStore) CookieString() string {
	if s.Jar == nil || s.Base == nil {
		return ""
	}
	cookies := s.Jar.Cookies(s.Base)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// Pair одна запись строки cookie; Value в том виде, как пришла
type Pair struct {
	Name  string
	Value string
}

// Pairs splits a document.cookie style string in order. Entries are trimmed,
// and empty entries or entries without '=' are skipped.
func Pairs(raw string) []Pair {
	var out []Pair
	for _, entry := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		out = append(out, Pair{Name: key, Value: strings.TrimSpace(value)})
	}
	return out
}

// Decode percent-decodes a cookie value. A malformed escape yields the raw
// value rather than nothing.
func Decode(value string) string {
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// Read returns the percent-decoded value of the first entry whose key equals
// name. Nothing is cached: call it right before every request.
func Read(store Store, name string) (string, bool) {
	if store == nil || name == "" {
		return "", false
	}
	for _, p := range Pairs(store.CookieString()) {
		if p.Name == name {
			return Decode(p.Value), true
		}
	}
	return "", false
}
