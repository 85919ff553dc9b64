// Package helpers holds the shared request parsing and response utilities
// for the route handlers.
package helpers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// ParseID parses a numeric record ID from a path parameter
func ParseID(c echo.Context, param string) (int64, error) {
	idStr := c.Param(param)
	if idStr == "" {
		return 0, httperror.NewHTTPError(http.StatusBadRequest, "missing "+param)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an integer", param)
	}

	return id, nil
}

// ParseOptionalInt64 parses an optional integer query parameter
func ParseOptionalInt64(c echo.Context, param string) (*int64, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an integer", param)
	}

	return &v, nil
}

// ParseOptionalFloat parses an optional float query parameter
func ParseOptionalFloat(c echo.Context, param string) (*float64, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a number", param)
	}

	return &v, nil
}

// ParseOptionalTime parses an optional RFC 3339 timestamp query parameter
func ParseOptionalTime(c echo.Context, param string) (*time.Time, error) {
	raw := c.QueryParam(param)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an RFC 3339 timestamp", param)
	}

	return &t, nil
}

// ParseIntDefault parses an integer query parameter, falling back to def when
// the parameter is absent or malformed
func ParseIntDefault(c echo.Context, param string, def int) int {
	raw := c.QueryParam(param)
	if raw == "" {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return v
}

// ParsePagination returns the skip and limit query parameters with the
// standard defaults applied
func ParsePagination(c echo.Context) (skip int, limit int) {
	skip = ParseIntDefault(c, "skip", 0)
	limit = ParseIntDefault(c, "limit", 100)

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	return skip, limit
}

// PageNumber derives the 1-based page number from skip and limit
func PageNumber(skip, limit int) int {
	if limit < 1 {
		return 1
	}
	return (skip / limit) + 1
}

// ParseTags splits a comma-separated tags parameter, dropping empty entries
func ParseTags(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	if len(tags) == 0 {
		return nil
	}
	return tags
}

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// NoContentResponse returns a 204 No Content
func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// BadRequest returns a 400 Bad Request error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// NotFound returns a 404 Not Found error
func NotFound(message string) error {
	return httperror.NewHTTPError(http.StatusNotFound, message)
}

// Conflict returns a 409 Conflict error
func Conflict(message string) error {
	return httperror.NewHTTPError(http.StatusConflict, message)
}
