package api

import (
	"net/http"

	"github.com/Leo190198/promoShare/internal/pkg/httputil"
)

// ListQueue returns queue items ordered by scheduled time, optionally
// filtered by status.
func (h *Handlers) ListQueue(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListQueue(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OKMeta(w, items, map[string]int{"total": total})
}

// ListHistory returns the posting audit trail, newest first.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, total, err := h.svc.ListHistory(r.Context(), limit)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OKMeta(w, items, map[string]int{"total": total})
}
