package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit returns middleware that limits the maximum request body size.
//
// The limit is specified as a human-readable string: "1M" for 1 megabyte,
// "512K" for 512 kilobytes. Supported suffixes are K (kilobytes), M
// (megabytes), and G (gigabytes). A bare number is treated as bytes.
// When the limit is exceeded, the middleware returns HTTP 413.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes := parseLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			if req.ContentLength > maxBytes {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}

			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
			return next(c)
		}
	}
}

// parseLimit converts a human-readable size string to bytes. Malformed input
// falls back to 1 megabyte.
func parseLimit(limit string) int64 {
	limit = strings.TrimSpace(strings.ToUpper(limit))
	if limit == "" {
		return 1 << 20
	}

	multiplier := int64(1)
	switch limit[len(limit)-1] {
	case 'K':
		multiplier = 1 << 10
		limit = limit[:len(limit)-1]
	case 'M':
		multiplier = 1 << 20
		limit = limit[:len(limit)-1]
	case 'G':
		multiplier = 1 << 30
		limit = limit[:len(limit)-1]
	}

	n, err := strconv.ParseInt(limit, 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n * multiplier
}
