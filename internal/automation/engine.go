package automation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/config"
	"github.com/Leo190198/promoShare/internal/domain"
)

// CatalogClient is the slice of the affiliate catalog API the engine uses.
type CatalogClient interface {
	SearchProducts(ctx context.Context, keyword string, page, limit int) ([]domain.CatalogProduct, error)
	GenerateShortLink(ctx context.Context, originURL string) (string, error)
}

// MessagingClient is the slice of the messaging bridge the engine uses.
type MessagingClient interface {
	SessionStatus(ctx context.Context) (domain.SessionStatus, error)
	SendText(ctx context.Context, chatID, text string) (domain.SendReceipt, error)
}

// Engine coordinates suggestion generation, approvals, scheduling and
// queue dispatch on top of a Store and the two upstream clients.
type Engine struct {
	store   Store
	catalog CatalogClient
	wa      MessagingClient
	cfg     config.AutomationConfig

	// now is swapped out by tests; every scheduling decision goes
	// through it.
	now func() time.Time
}

// NewEngine wires an Engine. cfg supplies the bootstrap defaults, the
// generation limits and the tick cadence.
func NewEngine(store Store, catalog CatalogClient, wa MessagingClient, cfg config.AutomationConfig) *Engine {
	return &Engine{store: store, catalog: catalog, wa: wa, cfg: cfg, now: time.Now}
}

// Bootstrap seeds the settings row, the posting window and the default
// themes when they are absent. Idempotent, called on startup and at the
// top of every tick so an empty database heals itself.
func (e *Engine) Bootstrap(ctx context.Context) error {
	settings := domain.AutomationSettings{
		ID:                domain.SettingsID,
		AutomationEnabled: e.cfg.Enabled,
		Timezone:          e.cfg.Timezone,
		TargetGroupID:     optional(e.cfg.DefaultTargetGroupID),
		TargetGroupName:   optional(e.cfg.DefaultTargetGroupName),
		DailyPostTarget:   e.cfg.DailyPostTarget,
		DailyPostLimit:    e.cfg.DailyPostLimit,
		PricePrefix:       e.cfg.PricePrefix,
		MessageTemplate:   e.cfg.MessageTemplate,
	}
	window := domain.PostingWindow{
		ID:        domain.PostingWindowID,
		StartTime: e.cfg.DefaultStartTime,
		EndTime:   e.cfg.DefaultEndTime,
		IsActive:  true,
	}
	if err := e.store.EnsureDefaults(ctx, settings, window, e.cfg.ThemeList()); err != nil {
		return fmt.Errorf("bootstrap defaults: %w", err)
	}
	return nil
}

// loadSettings returns the settings row, bootstrapping once when the
// database is still empty.
func (e *Engine) loadSettings(ctx context.Context) (*domain.AutomationSettings, error) {
	s, err := e.store.Settings(ctx)
	if errors.Is(err, ErrNotFound) {
		if berr := e.Bootstrap(ctx); berr != nil {
			return nil, berr
		}
		s, err = e.store.Settings(ctx)
		if errors.Is(err, ErrNotFound) {
			return nil, apierr.New(http.StatusInternalServerError, apierr.CodeSettingsMissing, "Automation settings not initialized")
		}
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ensureReady bootstraps the default rows when the database is empty, so
// entry points work before any explicit setup.
func (e *Engine) ensureReady(ctx context.Context) error {
	_, err := e.loadSettings(ctx)
	return err
}

// pendingSuggestion loads a suggestion and verifies it still awaits a
// decision.
func (e *Engine) pendingSuggestion(ctx context.Context, id string) (*domain.Suggestion, error) {
	sg, err := e.store.GetSuggestion(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errSuggestionNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	if sg.Status != domain.SuggestionPending {
		return nil, errSuggestionNotPending(id, sg.Status)
	}
	return sg, nil
}

// approvalRace maps a refused conditional transition onto the API error,
// re-reading the row for the status a concurrent approval left behind.
func (e *Engine) approvalRace(ctx context.Context, id string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errSuggestionNotFound(id)
	case errors.Is(err, ErrNotPending):
		if sg, gerr := e.store.GetSuggestion(ctx, id); gerr == nil {
			return errSuggestionNotPending(id, sg.Status)
		}
		return apierr.Conflict(apierr.CodeSuggestionNotPending, "Suggestion is not pending").
			WithDetails(map[string]any{"suggestionId": id})
	}
	return err
}

func errSuggestionNotFound(id string) *apierr.Error {
	return apierr.NotFound(apierr.CodeSuggestionNotFound, "Suggestion not found").
		WithDetails(map[string]any{"suggestionId": id})
}

func errSuggestionNotPending(id string, status domain.SuggestionStatus) *apierr.Error {
	return apierr.Conflict(apierr.CodeSuggestionNotPending, "Suggestion is not pending").
		WithDetails(map[string]any{"suggestionId": id, "status": status})
}

func errThemeExists(keyword string) *apierr.Error {
	return apierr.Conflict(apierr.CodeThemeExists, "Theme keyword already exists").
		WithDetails(map[string]any{"keyword": keyword})
}

func errThemeNotFound(id string) *apierr.Error {
	return apierr.NotFound(apierr.CodeThemeNotFound, "Theme not found").
		WithDetails(map[string]any{"themeId": id})
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
