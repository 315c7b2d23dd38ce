package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"orderledger/internal/domain"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// fail writes err as JSON. entity names what a not-found refers to;
// fallback is the message sent for unexpected errors, which are logged.
func (h *handler) fail(c *gin.Context, err error, entity, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message, Details: verr.Details})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: entity + " not found"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
	default:
		h.logger.Error(fallback,
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context, entity string) (domain.ID, bool) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid "+strings.ToLower(entity)+" ID")
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// pageRequest reads page and limit. Absent values take defaults; values
// that are not positive integers are rejected.
func pageRequest(c *gin.Context) (domain.PageRequest, bool) {
	page, ok := positiveQueryInt(c, "page")
	if !ok {
		badRequest(c, "Invalid page")
		return domain.PageRequest{}, false
	}
	limit, ok := positiveQueryInt(c, "limit")
	if !ok {
		badRequest(c, "Invalid limit")
		return domain.PageRequest{}, false
	}
	return domain.PageRequest{Page: page, Limit: limit}.Normalize(), true
}

// positiveQueryInt returns 0 when key is absent.
func positiveQueryInt(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// parseDate accepts YYYY-MM-DD (in loc) or RFC 3339. With endOfDay the
// result is moved to the last millisecond of that day.
func parseDate(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, err
		}
		t = t.In(loc)
	}
	if endOfDay {
		y, m, d := t.Date()
		t = time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
	}
	return t, nil
}
