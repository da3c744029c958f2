package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/addressd/internal/address"
	"github.com/dukerupert/addressd/internal/domain"
	"github.com/dukerupert/addressd/internal/events"
)

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestServer(v address.Validator, p events.Publisher) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = HTTPErrorHandler
	h := NewAddressHandler(v, p)
	h.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	e.POST("/validate-address", h.Validate)
	return e
}

func post(e *echo.Echo, target, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestValidate_OK(t *testing.T) {
	var gotRaw string
	var gotOpts address.Options
	v := &address.MockValidator{ValidateFunc: func(_ context.Context, raw string, opts address.Options) (address.ValidationResult, error) {
		gotRaw, gotOpts = raw, opts
		return address.ValidationResult{
			Input:       raw,
			Status:      address.StatusValid,
			Corrections: map[string]string{},
			Final:       &address.Final{City: "Topeka", State: "KS", Standardized: "12 Main St, Topeka, KS 66603"},
		}, nil
	}}
	pub := &recordingPublisher{}
	e := newTestServer(v, pub)

	rec := post(e, "/validate-address", `{"address":"12 Main St, Topeka, KS 66603"}`, echo.MIMEApplicationJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12 Main St, Topeka, KS 66603", gotRaw)
	assert.False(t, gotOpts.Debug)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "valid", body["status"])
	assert.Equal(t, map[string]any{}, body["corrections"])

	require.Len(t, pub.events, 1)
	assert.Equal(t, address.StatusValid, pub.events[0].Status)
	assert.Equal(t, "12 Main St, Topeka, KS 66603", pub.events[0].Standardized)
}

func TestValidate_Debug(t *testing.T) {
	var gotOpts address.Options
	v := &address.MockValidator{ValidateFunc: func(_ context.Context, raw string, opts address.Options) (address.ValidationResult, error) {
		gotOpts = opts
		return address.ValidationResult{Input: raw, Status: address.StatusUnverifiable, Corrections: map[string]string{}}, nil
	}}
	e := newTestServer(v, nil)

	rec := post(e, "/validate-address?debug=true", `{"address":"x"}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOpts.Debug)

	rec = post(e, "/validate-address?debug=maybe", `{"address":"x"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidate_EmptyAddressIsUnverifiable(t *testing.T) {
	e := newTestServer(&address.MockValidator{}, nil)

	rec := post(e, "/validate-address", `{"address":""}`, echo.MIMEApplicationJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unverifiable"`)
}

func TestValidate_BadRequests(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		field       string
	}{
		{name: "empty body", body: "", field: "address"},
		{name: "missing address", body: `{}`, field: "address"},
		{name: "null address", body: `{"address":null}`, field: "address"},
		{name: "number address", body: `{"address":42}`, field: "address"},
		{name: "object address", body: `{"address":{"street":"Main"}}`, field: "address"},
		{name: "too long", body: `{"address":"` + strings.Repeat("a", 1025) + `"}`, field: "address"},
		{name: "not json", body: `address=12 Main St`, contentType: echo.MIMEApplicationForm},
		{name: "array body", body: `["12 Main St"]`},
		{name: "truncated json", body: `{"address":"12 Main`},
	}

	pub := &recordingPublisher{}
	e := newTestServer(&address.MockValidator{ValidateFunc: func(context.Context, string, address.Options) (address.ValidationResult, error) {
		t.Fatal("validator must not be called for a bad request")
		return address.ValidationResult{}, nil
	}}, pub)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := tt.contentType
			if ct == "" {
				ct = echo.MIMEApplicationJSON
			}
			rec := post(e, "/validate-address", tt.body, ct)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, domain.EINVALID, body.Error.Code)
			if tt.field != "" {
				assert.Contains(t, body.Error.Fields, tt.field)
			}
		})
	}
	assert.Empty(t, pub.events)
}

func TestValidate_InternalFault(t *testing.T) {
	v := &address.MockValidator{ValidateFunc: func(context.Context, string, address.Options) (address.ValidationResult, error) {
		return address.ValidationResult{}, domain.Errorf(domain.EINTERNAL, "address.ValidateAddress", "panic: index out of range")
	}}
	pub := &recordingPublisher{}
	e := newTestServer(v, pub)

	rec := post(e, "/validate-address", `{"address":"12 Main St"}`, echo.MIMEApplicationJSON)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "index out of range")
	assert.Empty(t, pub.events)
}

func TestValidate_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats: connection closed")}
	e := newTestServer(&address.MockValidator{}, pub)

	rec := post(e, "/validate-address", `{"address":"somewhere"}`, echo.MIMEApplicationJSON)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pub.events, 1)
}
