package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"edgefinder/internal/domain"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ListDataResponse is a page of rows. Total counts every match before
// limit and offset.
type ListDataResponse struct {
	Rows  any `json:"rows"`
	Total int `json:"total"`
}

// DataResponse writes data inside the envelope with statusCode.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// ListResponse writes a paginated list response.
func ListResponse(c echo.Context, rows any, total int) error {
	return DataResponse(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

// AcceptedResponse writes a 202 response.
func AcceptedResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusAccepted, data)
}

// BadRequestResponse writes a 400 response.
func BadRequestResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// ErrorResponse maps domain errors onto HTTP statuses.
func ErrorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return DataResponse(c, http.StatusNotFound, []ValidationError{{Code: "ERR_NOT_FOUND", Message: err.Error()}})
	case errors.Is(err, domain.ErrRefreshInProgress):
		return DataResponse(c, http.StatusConflict, []ValidationError{{Code: "ERR_REFRESH_IN_PROGRESS", Message: "a refresh is already running"}})
	case errors.Is(err, domain.ErrValidation):
		return DataResponse(c, http.StatusBadRequest, []ValidationError{{Code: "ERR_VALIDATION", Message: err.Error()}})
	case errors.Is(err, domain.ErrUpstreamFetch):
		return DataResponse(c, http.StatusBadGateway, []ValidationError{{Code: "ERR_UPSTREAM", Message: err.Error()}})
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
	}
}

// errorHandler renders echo errors, such as unknown routes, in the envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var data any
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		data = []ValidationError{{Code: "ERR_HTTP", Message: fmt.Sprintf("%v", he.Message)}}
	} else {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = DataResponse(c, status, data)
	}
	if err != nil {
		slog.Error("writing error response", "error", err)
	}
}
