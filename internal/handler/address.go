package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/domain"
	"github.com/dukerupert/addressd/internal/events"
)

// MaxAddressLength bounds the free-form input accepted over HTTP.
const MaxAddressLength = 1024

// ValidateAddressRequest is the body of POST /validate-address.
// Address is a pointer so that a missing key and an empty string differ:
// the first is a bad request, the second is an unverifiable address.
type ValidateAddressRequest struct {
	Address *string `json:"address" validate:"required,max=1024"`
}

// AddressHandler serves address validation.
type AddressHandler struct {
	validator address.Validator
	publisher events.Publisher
	now       func() time.Time
}

// NewAddressHandler creates an address handler. A nil publisher disables
// event publishing.
func NewAddressHandler(v address.Validator, p events.Publisher) *AddressHandler {
	if p == nil {
		p = events.NopPublisher{}
	}
	return &AddressHandler{validator: v, publisher: p, now: time.Now}
}

// Validate handles POST /validate-address
//
// Request body: {"address": "<free-form US address>"}
// Query parameters:
// - debug: "true" includes the reconciliation trace in the response
//
// Response codes:
// - 200 OK: ValidationResult JSON (valid, corrected or unverifiable)
// - 400 Bad Request: body is not a JSON object, or address is missing or not a string
// - 500 Internal Server Error: the validator hit an internal fault
func (h *AddressHandler) Validate(c echo.Context) error {
	const op = "handler.ValidateAddress"
	ctx := c.Request().Context()

	opts, err := parseOptions(c)
	if err != nil {
		return err
	}

	var req ValidateAddressRequest
	if err := decodeJSON(c.Request().Body, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.validator.ValidateAddress(ctx, *req.Address, opts)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "validate address")
	}

	if err := h.publisher.Publish(ctx, events.NewEvent(ctx, result, h.now())); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("publish validation event")
	}

	return c.JSON(http.StatusOK, result)
}

func parseOptions(c echo.Context) (address.Options, error) {
	var opts address.Options
	if raw := c.QueryParam("debug"); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, domain.NewValidationError("handler.ValidateAddress", "debug", "debug must be true or false")
		}
		opts.Debug = debug
	}
	return opts, nil
}

// decodeJSON reads a single JSON object from body into dst regardless of
// the declared content type.
func decodeJSON(body io.Reader, dst *ValidateAddressRequest) error {
	const op = "handler.decodeJSON"

	if body == nil {
		return domain.NewValidationError(op, "address", "address is required")
	}

	err := json.NewDecoder(body).Decode(dst)
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return domain.NewValidationError(op, "address", "address is required")
	case errors.As(err, &maxErr):
		return err
	case errors.As(err, &typeErr) && typeErr.Field == "address":
		return domain.NewValidationError(op, "address", "address must be a string")
	default:
		return domain.Invalid(op, "Request body must be a JSON object")
	}
}
