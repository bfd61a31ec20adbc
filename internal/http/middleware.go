package http

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"credential-server/internal/auth"
	"credential-server/internal/observability"
)

const claimsKey = "auth.claims"

// corsHeaders are set on every response; any origin may call the API.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", "),
	"Access-Control-Allow-Headers": "Origin, Content-Type, Accept, Authorization",
	"Access-Control-Max-Age":       "600",
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for name, value := range corsHeaders {
			c.Header(name, value)
		}
		// preflight requests never reach a route
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("http request")
	}
}

func recoveryMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				observability.CapturePanic(rec, stack)
				logger.WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  rec,
				}).Error("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, messageResponse{Message: msgInternal})
			}
		}()

		c.Next()
	}
}

// requireAuth rejects requests without a bearer token (401) or with one that
// fails verification (403), and stores the verified claims for the handler.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: msgAuthRequired})
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, messageResponse{Message: msgInvalidToken})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func claimsFromContext(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
