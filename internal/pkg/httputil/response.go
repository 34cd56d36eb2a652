package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Leo190198/promoShare/internal/apierr"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Meta    any        `json:"meta,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 success envelope with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// OKMeta writes a 200 success envelope with data and meta.
func OKMeta(w http.ResponseWriter, data, meta any) {
	JSON(w, http.StatusOK, envelope{Success: true, Data: data, Meta: meta})
}

// Created writes a 201 success envelope with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// Error writes a failure envelope with the given status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, envelope{Error: &ErrorBody{Code: code, Message: message}})
}

// Failure maps err onto the failure envelope: coded errors keep their
// status, code, message, and details; anything else is logged and reported
// as internal_server_error (never leak internals).
func Failure(w http.ResponseWriter, err error) {
	ae := apierr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Printf("[httputil] %d %s: %v", ae.Status, ae.Code, err)
	}
	JSON(w, ae.Status, envelope{Error: &ErrorBody{
		Code:    ae.Code,
		Message: ae.Message,
		Details: ae.Details,
	}})
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 validation_error if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, apierr.CodeValidationError, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
