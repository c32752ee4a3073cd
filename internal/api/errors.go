package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/samcharles93/plum/internal/blob"
	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/pkg/plum"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string { return e.msg }

func (e invalidRequestError) Unwrap() error { return ErrInvalidRequest }

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Layout  string `json:"layout,omitempty"`
	Dump    string `json:"dump,omitempty"`
}

// classify maps an error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, catalog.ErrUnknownLayout):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, blob.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "request_too_large"
	case errors.Is(err, plum.ErrInsufficientMemory):
		return http.StatusUnprocessableEntity, "insufficient_memory"
	case errors.Is(err, plum.ErrExcessMemory):
		return http.StatusUnprocessableEntity, "excess_memory"
	case errors.Is(err, plum.ErrSize):
		return http.StatusUnprocessableEntity, "size_error"
	case errors.Is(err, plum.ErrPack):
		return http.StatusUnprocessableEntity, "pack_error"
	case errors.Is(err, plum.ErrUnpack):
		return http.StatusUnprocessableEntity, "unpack_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func responseError(err error, layout string) (int, *ResponseError) {
	status, typ := classify(err)
	re := &ResponseError{Message: plum.Summary(err), Type: typ, Layout: layout}
	if dump := plum.DumpOf(err); dump != nil {
		re.Dump = dump.String()
	}
	return status, re
}

func writeError(c *echo.Context, err error, layout string) error {
	status, re := responseError(err, layout)
	return writeJSON(c, status, map[string]any{"error": re})
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeJSON(c, http.StatusNotFound, map[string]any{
		"error": ResponseError{Message: msg, Type: "not_found_error"},
	})
}
