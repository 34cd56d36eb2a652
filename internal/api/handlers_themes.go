package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/pkg/httputil"
)

// ListThemes returns every theme, active and retired.
func (h *Handlers) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, total, err := h.svc.ListThemes(r.Context())
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OKMeta(w, themes, map[string]int{"total": total})
}

// createThemeRequest registers a search keyword. isActive defaults to
// true when omitted.
type createThemeRequest struct {
	Keyword  string `json:"keyword"`
	IsActive *bool  `json:"isActive"`
}

// CreateTheme registers a new search theme.
func (h *Handlers) CreateTheme(w http.ResponseWriter, r *http.Request) {
	var req createThemeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	theme, err := h.svc.CreateTheme(r.Context(), req.Keyword, isActive)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.Created(w, theme)
}

type updateThemeRequest struct {
	Keyword  *string `json:"keyword"`
	IsActive *bool   `json:"isActive"`
}

// UpdateTheme renames or toggles an existing theme.
func (h *Handlers) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req updateThemeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	theme, err := h.svc.UpdateTheme(r.Context(), chi.URLParam(r, "id"), automation.ThemePatch{
		Keyword:  req.Keyword,
		IsActive: req.IsActive,
	})
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, theme)
}
