package main

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/credential"
)

// storedCookie запись файла cookie
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// cookieSession cookie jar бэкенда, при необходимости сохраняемый в файл
type cookieSession struct {
	jar    *cookiejar.Jar
	base   *url.URL
	file   string
	logger *zap.Logger
}

// openSession seeds the jar from the cookie file first, then from the raw
// cookie string, so an explicit STOREFRONT_COOKIES wins.
func openSession(rawBase string, cfg config.SessionConfig, logger *zap.Logger) (*cookieSession, error) {
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	s := &cookieSession{jar: jar, base: base, file: cfg.CookieFile, logger: logger}

	if s.file != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	if cookies := rawCookies(cfg.Cookies); len(cookies) > 0 {
		jar.SetCookies(base, withRootPath(cookies))
	}
	return s, nil
}

// rawCookies reads a browser cookie string the same way credential.Read does.
// Values stay percent-encoded in the jar; Read decodes them on the way out.
func rawCookies(raw string) []*http.Cookie {
	pairs := credential.Pairs(raw)
	cookies := make([]*http.Cookie, 0, len(pairs))
	for _, p := range pairs {
		cookies = append(cookies, &http.Cookie{Name: p.Name, Value: p.Value})
	}
	return cookies
}

func (s *cookieSession) load() error {
	data, err := os.ReadFile(s.file)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read cookie file %s", s.file)
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrapf(err, "parse cookie file %s", s.file)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	s.jar.SetCookies(s.base, withRootPath(cookies))
	s.logger.Debug("cookies restored", zap.String("file", s.file), zap.Int("count", len(cookies)))
	return nil
}

// save пишет текущие cookie бэкенда; без файла ничего не делает
func (s *cookieSession) save() error {
	if s.file == "" {
		return nil
	}
	cookies := s.jar.Cookies(s.base)
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode cookies")
	}
	if dir := filepath.Dir(s.file); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "create cookie dir")
		}
	}
	if err := os.WriteFile(s.file, data, 0o600); err != nil {
		return errors.Wrapf(err, "write cookie file %s", s.file)
	}
	return nil
}

// withRootPath makes seeded cookies visible to every backend path.
func withRootPath(cookies []*http.Cookie) []*http.Cookie {
	for _, c := range cookies {
		c.Path = "/"
	}
	return cookies
}
