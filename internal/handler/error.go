package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal/domain"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorEnvelope wraps ErrorBody under an "error" key.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EINTERNAL:
		return http.StatusInternalServerError // 500
	case domain.ENOTIMPL:
		return http.StatusNotImplemented // 501
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	case domain.ETIMEOUT:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

// HTTPErrorHandler renders any error returned by a handler or middleware as
// a JSON error envelope. It is installed as echo's HTTPErrorHandler.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(err)

	logger := zerolog.Ctx(c.Request().Context())
	event := logger.Info()
	if status >= 500 {
		event = logger.Error()
	}
	event.
		Err(err).
		Str("code", body.Code).
		Str("op", domain.ErrorOp(err)).
		Int("status", status).
		Msg("request failed")

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorEnvelope{Error: body})
	}
	if err != nil {
		logger.Error().Err(err).Msg("write error response")
	}
}

// errorResponse converts err into a status code and a body safe to show.
func errorResponse(err error) (int, ErrorBody) {
	var he *echo.HTTPError
	var mbe *http.MaxBytesError

	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest, ErrorBody{
			Code:    domain.EINVALID,
			Message: "The request is invalid",
			Fields:  domain.GetValidationFields(err),
		}
	case errors.As(err, &mbe):
		err = domain.Errorf(domain.ETOOLARGE, "", "Request body too large")
	case errors.Is(err, context.DeadlineExceeded):
		err = domain.WrapError(err, domain.ETIMEOUT, "", "The request timed out")
	case errors.As(err, &he):
		return he.Code, ErrorBody{
			Code:    httpStatusToErrorCode(he.Code),
			Message: http.StatusText(he.Code),
		}
	}

	code := domain.ErrorCode(err)
	return ErrorCodeToHTTPStatus(code), ErrorBody{
		Code:    code,
		Message: domain.ErrorMessage(err),
	}
}

// httpStatusToErrorCode maps echo's own errors (unknown route, wrong method)
// onto the domain codes.
func httpStatusToErrorCode(status int) string {
	switch {
	case status == http.StatusNotFound:
		return domain.ENOTFOUND
	case status == http.StatusRequestEntityTooLarge:
		return domain.ETOOLARGE
	case status == http.StatusTooManyRequests:
		return domain.ERATELIMIT
	case status >= 500:
		return domain.EINTERNAL
	default:
		return domain.EINVALID
	}
}
