package api

import (
	"net/http"
	"strconv"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/automation"
	"github.com/Leo190198/promoShare/internal/pkg/httputil"
)

// Handlers owns the HTTP handlers for the automation API.
type Handlers struct {
	svc AutomationService
}

// NewHandlers creates the handler set over the automation service.
func NewHandlers(svc AutomationService) *Handlers {
	return &Handlers{svc: svc}
}

// Root serves the service descriptor.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"service": "promoShare Automation API",
		"status":  "running",
	})
}

// Health serves the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStatus returns the point-in-time automation snapshot.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Status(r.Context())
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, snap)
}

// updateSettingsRequest carries the mutable settings fields; omitted
// fields stay unchanged.
type updateSettingsRequest struct {
	AutomationEnabled *bool   `json:"automationEnabled"`
	Timezone          *string `json:"timezone"`
	TargetGroupID     *string `json:"targetGroupId"`
	TargetGroupName   *string `json:"targetGroupName"`
	DailyPostTarget   *int    `json:"dailyPostTarget"`
	DailyPostLimit    *int    `json:"dailyPostLimit"`
	PricePrefix       *string `json:"pricePrefix"`
	MessageTemplate   *string `json:"messageTemplate"`
}

// UpdateSettings applies a partial update to the automation settings.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	settings, err := h.svc.UpdateSettings(r.Context(), automation.SettingsPatch{
		AutomationEnabled: req.AutomationEnabled,
		Timezone:          req.Timezone,
		TargetGroupID:     req.TargetGroupID,
		TargetGroupName:   req.TargetGroupName,
		DailyPostTarget:   req.DailyPostTarget,
		DailyPostLimit:    req.DailyPostLimit,
		PricePrefix:       req.PricePrefix,
		MessageTemplate:   req.MessageTemplate,
	})
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, settings)
}

// GetPostingWindow returns the configured posting window.
func (h *Handlers) GetPostingWindow(w http.ResponseWriter, r *http.Request) {
	window, err := h.svc.GetWindow(r.Context())
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	if window == nil {
		httputil.Error(w, http.StatusNotFound, apierr.CodePostingWindowMissing, "Posting window is not configured")
		return
	}
	httputil.OK(w, window)
}

// updateWindowRequest replaces the posting window edges. isActive
// defaults to true when omitted.
type updateWindowRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  *bool  `json:"isActive"`
}

// UpdatePostingWindow upserts the posting window.
func (h *Handlers) UpdatePostingWindow(w http.ResponseWriter, r *http.Request) {
	var req updateWindowRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	window, err := h.svc.UpdateWindow(r.Context(), req.StartTime, req.EndTime, isActive)
	if err != nil {
		httputil.Failure(w, err)
		return
	}
	httputil.OK(w, window)
}

// parseLimit reads the limit query parameter, bounded to 1..200 with a
// default of 50. ok is false when the value is present but unusable; the
// validation error has already been written.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 50, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 200 {
		httputil.Error(w, http.StatusBadRequest, apierr.CodeValidationError,
			"limit must be an integer between 1 and 200")
		return 0, false
	}
	return limit, true
}
