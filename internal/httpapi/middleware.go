package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	userIDKey       = "user_id"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("Request handled",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(start).Round(time.Microsecond).String(),
		)
	}
}

func (h *Handler) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				h.fail(c, "Request", fmt.Errorf("panic: %v", r))
			}
		}()
		c.Next()
	}
}

// requireAuth accepts "Authorization: Bearer <jwt>" and stores the user id on the context.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "Missing token"})
			return
		}

		userID, err := h.auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			h.fail(c, "Authentication", err)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// rateLimit must run after requireAuth.
func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.limiter.Allow(c.GetInt64(userIDKey)) {
			h.fail(c, "Request", apperrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
