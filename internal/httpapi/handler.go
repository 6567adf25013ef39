package httpapi

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/orgball2608/hashtag-discovery/internal/auth"
	"github.com/orgball2608/hashtag-discovery/internal/ingest"
	"github.com/orgball2608/hashtag-discovery/internal/ratelimit"
	apperrors "github.com/orgball2608/hashtag-discovery/pkg/errors"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
)

type Handler struct {
	ingest  ingest.Service
	auth    auth.Service
	limiter ratelimit.Limiter
	logger  logger.Logger
	now     func() time.Time
}

type errorBody struct {
	Error string `json:"error"`
}

// fail maps an error onto a status and a body that never leaks internals.
// op names the failed operation, as in "Search failed".
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, msg := http.StatusInternalServerError, op+" failed"

	switch {
	case apperrors.IsValidation(err):
		status, msg = http.StatusBadRequest, apperrors.GetMessage(err)
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, apperrors.GetMessage(err)
	case apperrors.IsNotFound(err):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, apperrors.ErrConflict):
		status, msg = http.StatusConflict, apperrors.GetMessage(err)
	case errors.Is(err, apperrors.ErrTooManyRequests):
		status, msg = http.StatusTooManyRequests, "Too many requests"
	case apperrors.IsUpstream(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "request_id", c.GetString(requestIDKey), "status", status, "error", err)
	} else {
		h.logger.Debug(op+" rejected", "request_id", c.GetString(requestIDKey), "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: msg})
}

// bindingMessage names the first constraint a request body violated.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}

	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.Slice, reflect.Array:
			return field + " must contain " + bound + " " + fe.Param() + " item(s)"
		case reflect.String:
			return field + " length must be " + bound + " " + fe.Param() + " characters"
		default:
			return field + " must be " + bound + " " + fe.Param()
		}
	}
	return field + " is invalid"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// splitList reads a comma separated query value, dropping empty entries.
func splitList(raw string) []string {
	out := make([]string, 0)
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
