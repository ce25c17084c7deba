package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json envelope: %v", err)
	}
	return rec.Code, body
}

func TestErrorHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"username taken", domain.ErrUsernameTaken, http.StatusBadRequest, "conflict"},
		{"email taken", domain.ErrEmailTaken, http.StatusBadRequest, "conflict"},
		{"sweet exists", domain.ErrSweetExists, http.StatusBadRequest, "conflict"},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest, "illegal_argument"},
		{"negative quantity", domain.ErrNegativeQuantity, http.StatusBadRequest, "illegal_argument"},
		{"invalid price", domain.ErrInvalidPrice, http.StatusBadRequest, "illegal_argument"},
		{"insufficient stock", domain.ErrInsufficientStock, http.StatusBadRequest, "illegal_argument"},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusNotFound, "not_found"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"sweet not found", domain.ErrSweetNotFound, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		status, body := renderError(t, tc.err)
		if status != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, status)
		}
		if body["code"] != tc.code {
			t.Fatalf("%s: expected code %q, got %v", tc.name, tc.code, body["code"])
		}
		if body["timestamp"] == nil {
			t.Fatalf("%s: missing timestamp", tc.name)
		}
	}
}

func TestErrorHandler_LoginFailureNeverNamesTheCause(t *testing.T) {
	_, body := renderError(t, domain.ErrInvalidCredentials)
	if body["message"] != "invalid credentials" {
		t.Fatalf("login failure must not reveal the failing check: %v", body["message"])
	}
}

func TestErrorHandler_ValidationErrorCarriesFieldDetail(t *testing.T) {
	status, body := renderError(t, handler.NewValidationError("email", "must be a valid email"))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["code"] != "validation_failed" {
		t.Fatalf("expected validation_failed, got %v", body["code"])
	}
	fields, _ := body["errors"].(map[string]any)
	if fields["email"] != "must be a valid email" {
		t.Fatalf("field detail missing: %v", body["errors"])
	}
}

func TestErrorHandler_HTTPErrorStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusForbidden, "forbidden"},
		{http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		status, body := renderError(t, echo.NewHTTPError(tc.status, "nope"))
		if status != tc.status {
			t.Fatalf("expected %d, got %d", tc.status, status)
		}
		if body["code"] != tc.code {
			t.Fatalf("status %d: expected code %q, got %v", tc.status, tc.code, body["code"])
		}
	}
}

func TestErrorHandler_BindFailureIsValidationFailed(t *testing.T) {
	status, body := renderError(t, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["code"] != "validation_failed" {
		t.Fatalf("malformed payload must render validation_failed, got %v", body["code"])
	}
}

func TestErrorHandler_UnknownErrorIsOpaque(t *testing.T) {
	status, body := renderError(t, errors.New("pq: connection reset by peer"))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body["code"] != "internal_error" {
		t.Fatalf("expected internal_error, got %v", body["code"])
	}
	if body["message"] == "pq: connection reset by peer" {
		t.Fatal("internal error detail must not leak to the client")
	}
}

func TestErrorHandler_ValidationDetailOmittedOtherwise(t *testing.T) {
	_, body := renderError(t, domain.ErrSweetNotFound)
	if _, present := body["errors"]; present {
		t.Fatalf("errors field must be omitted when empty: %v", body)
	}
}
