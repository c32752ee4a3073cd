package api

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

// writeJSON encodes with go-json so plum values keep their member order.
func writeJSON(c *echo.Context, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, data)
}

func queryInt(c *echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newInvalidRequest(name + " must be an integer")
	}
	return n, nil
}

func queryBool(c *echo.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, newInvalidRequest(name + " must be a boolean")
	}
	return b, nil
}
