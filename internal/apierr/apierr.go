// Package apierr defines the coded error type surfaced across package
// boundaries to the HTTP layer.
//
// Engine, store, and client packages return *Error values for failures a
// caller can act on; the HTTP layer maps them onto the response envelope
// with errors.As. Anything else is logged and reported as
// internal_server_error.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes. Transport-level codes first, then the domain codes
// grouped by the flow that raises them.
const (
	CodeUnauthorized    = "unauthorized"
	CodeValidationError = "validation_error"
	CodeNotFound        = "not_found"
	CodeHTTPError       = "http_error"
	CodeInternalError   = "internal_server_error"

	CodeThemeExists   = "theme_exists"
	CodeThemeNotFound = "theme_not_found"

	CodeSettingsMissing          = "settings_missing"
	CodePostingWindowMissing     = "posting_window_missing"
	CodeTargetGroupNotConfigured = "target_group_not_configured"
	CodeInvalidTimezone          = "invalid_timezone"

	CodeSuggestionNotFound     = "suggestion_not_found"
	CodeSuggestionNotPending   = "suggestion_not_pending"
	CodeSuggestionMissingLinks = "suggestion_missing_links"

	CodeShopeeCredentialsMissing = "shopee_api_credentials_missing"
	CodeShopeeUnreachable        = "shopee_api_unreachable"
	CodeShopeeInvalidResponse    = "shopee_api_invalid_response"
	CodeShopeeLoginFailed        = "shopee_api_login_failed"
	CodeShopeeHTTPError          = "shopee_api_http_error"
	CodeShopeeError              = "shopee_api_error"

	CodeWAKeyMissing      = "wa_api_key_missing"
	CodeWAUnreachable     = "wa_api_unreachable"
	CodeWAInvalidResponse = "wa_api_invalid_response"
	CodeWAHTTPError       = "wa_api_http_error"
)

// Error carries a machine-readable code, a human message, the HTTP status
// the facade should answer with, and optional structured details.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error with the given status, code, and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WithDetails returns a copy of e with the details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	c := *e
	c.Details = details
	return &c
}

// BadRequest builds a 400 error.
func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// NotFound builds a 404 error.
func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// Conflict builds a 409 error.
func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message)
}

// Validation builds a 400 validation_error.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, CodeValidationError, message)
}

// Internal builds a 500 internal_server_error.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, CodeInternalError, message)
}

// Upstream builds an error for a dependency failure. Client packages map
// recognized upstream statuses through PassthroughStatus first.
func Upstream(status int, code, message string) *Error {
	return New(status, code, message)
}

// PassthroughStatus maps an upstream HTTP status onto the status the
// facade reports: 400, 401, 404, 409 and 422 pass through, everything
// else becomes 502.
func PassthroughStatus(status int) int {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound,
		http.StatusConflict, http.StatusUnprocessableEntity:
		return status
	}
	return http.StatusBadGateway
}

// From extracts the *Error from err's chain. Uncoded errors come back as
// a generic internal_server_error; their raw text (SQL errors, DSNs)
// must not reach response bodies — callers log the original err instead.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("Internal server error")
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
