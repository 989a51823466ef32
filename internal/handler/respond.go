package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/apperr"
)

const dbTimeout = 5 * time.Second

// reqCtx bounds the duration of database calls made by a handler.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail translates service errors into HTTP responses. Errors carrying a
// kind map to their status code with the service message; anything else
// is a 500 with a generic message so internals never leak to clients.
func fail(c echo.Context, err error) error {
	if kind, ok := apperr.KindOf(err); ok {
		var status int
		switch kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindAuth:
			status = http.StatusUnauthorized
		case apperr.KindDuplicated:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
		return c.JSON(status, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// getUserID extracts the user_id placed in the context by JWTAuth.
func getUserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("user_id").(uint64)
	return v, ok
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParams reads ?page= and ?page_size= with sane defaults and caps.
func pageParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
