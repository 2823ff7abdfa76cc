package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/shop"
)

const (
	SessionCookie = "sessionid"
	CSRFCookie    = "csrftoken"
	CSRFHeader    = "X-CSRFToken"

	ctxSession = "session"
	ctxAccount = "account"
)

// requestLogger пишет одну строку zap на запрос
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// loadSession кладёт сессию и аккаунт в контекст, если cookie действительна
func (s *Server) loadSession(c *gin.Context) {
	id, err := c.Cookie(SessionCookie)
	if err == nil && id != "" {
		if sess, acc, err := s.accounts.Authenticate(c, id); err == nil {
			c.Set(ctxSession, sess)
			c.Set(ctxAccount, acc)
		}
	}
	c.Next()
}

// requireAuth отвечает 401, если сессии нет
func requireAuth(c *gin.Context) {
	if _, ok := c.Get(ctxSession); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": shop.ErrUnauthenticated.Error()})
		return
	}
	c.Next()
}

// csrfProtect сверяет заголовок X-CSRFToken с токеном сессии для изменяющих запросов
func csrfProtect(c *gin.Context) {
	sess := sessionFrom(c)
	if sess == nil || isSafeMethod(c.Request.Method) {
		c.Next()
		return
	}
	header := c.GetHeader(CSRFHeader)
	if header == "" || subtle.ConstantTimeCompare([]byte(header), []byte(sess.CSRFToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Ошибка проверки CSRF. Обновите страницу."})
		return
	}
	c.Next()
}

func sessionFrom(c *gin.Context) *domain.Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*domain.Session)
	return sess
}

func accountFrom(c *gin.Context) *domain.Account {
	v, ok := c.Get(ctxAccount)
	if !ok {
		return nil
	}
	acc, _ := v.(*domain.Account)
	return acc
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
