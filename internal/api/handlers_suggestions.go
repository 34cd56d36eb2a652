package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/pkg/httputil"
)

// generateRequest tunes one generation run. The body is optional; every
// field has a server-side default.
type generateRequest struct {
	LimitPerTheme     *int  `json:"limitPerTheme"`
	MaxNewSuggestions *int  `json:"maxNewSuggestions"`
	OnlyActiveThemes  *bool `json:"onlyActiveThemes"`
}

// GenerateSuggestions triggers a manual generation run.
func (h *Handlers) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOptional[generateRequest](w, r)
	if !ok {
		return
	}
	if req.LimitPerTheme != nil && (*req.LimitPerTheme < 1 || *req.LimitPerTheme > 50) {
		httputil.Error(w, http.StatusBadRequest, apierr.CodeValidationError,
			"limitPerTheme must be between 1 and 50")
		return
	}
	if req.MaxNewSuggestions != nil && (*req.MaxNewSuggestions < 1 || *req.MaxNewSuggestions > 200) {
		httputil.Error(w, http.StatusBadRequest, apierr.CodeValidationError,
			"maxNewSuggestions must be between 1 and 200")
		return
	}
	onlyActive := true
	if req.OnlyActiveThemes != nil {
		onlyActive = *req.OnlyActiveThemes
	}

	res, err := h.svc.GenerateSuggestions(r.Context(), domain.GenerationParams{
		LimitPerTheme:     req.LimitPerTheme,
		MaxNewSuggestions: req.MaxNewSuggestions,
		OnlyActiveThemes:  onlyActive,
	})
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, res)
}

// ListSuggestions returns suggestions, newest first, optionally filtered
// by status.
func (h *Handlers) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListSuggestions(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OKMeta(w, items, map[string]int{"total": total})
}

// ApproveSchedule approves a suggestion into the scheduled queue.
func (h *Handlers) ApproveSchedule(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ApproveSchedule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, res)
}

// ApproveSendNow approves a suggestion and posts it immediately,
// bypassing window and cap checks.
func (h *Handlers) ApproveSendNow(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ApproveSendNow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, res)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectSuggestion marks a pending suggestion rejected.
func (h *Handlers) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOptional[rejectRequest](w, r)
	if !ok {
		return
	}
	sug, err := h.svc.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, sug)
}

// decodeOptional parses a JSON body into T, treating an absent or empty
// body as the zero value. ok is false only on malformed JSON, with the
// validation error already written.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var dst T
	if r.Body == nil {
		return dst, true
	}
	err := json.NewDecoder(r.Body).Decode(&dst)
	if err == nil || errors.Is(err, io.EOF) {
		return dst, true
	}
	httputil.Error(w, http.StatusBadRequest, apierr.CodeValidationError, "invalid JSON: "+err.Error())
	var zero T
	return zero, false
}
