package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/timeutil"
)

// GetSettings returns the singleton settings row.
func (e *Engine) GetSettings(ctx context.Context) (*domain.AutomationSettings, error) {
	return e.loadSettings(ctx)
}

// SettingsPatch carries the mutable settings fields; nil leaves a field
// unchanged. An explicit empty group id or name clears the value.
type SettingsPatch struct {
	AutomationEnabled *bool
	Timezone          *string
	TargetGroupID     *string
	TargetGroupName   *string
	DailyPostTarget   *int
	DailyPostLimit    *int
	PricePrefix       *string
	MessageTemplate   *string
}

// UpdateSettings applies a patch to the settings row.
func (e *Engine) UpdateSettings(ctx context.Context, patch SettingsPatch) (*domain.AutomationSettings, error) {
	s, err := e.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if patch.AutomationEnabled != nil {
		s.AutomationEnabled = *patch.AutomationEnabled
	}
	if patch.Timezone != nil {
		tz := strings.TrimSpace(*patch.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, apierr.Validation(fmt.Sprintf("unknown timezone %q", tz))
		}
		s.Timezone = tz
	}
	if patch.TargetGroupID != nil {
		s.TargetGroupID = optional(strings.TrimSpace(*patch.TargetGroupID))
	}
	if patch.TargetGroupName != nil {
		s.TargetGroupName = optional(strings.TrimSpace(*patch.TargetGroupName))
	}
	if patch.DailyPostTarget != nil {
		if *patch.DailyPostTarget < 1 {
			return nil, apierr.Validation("dailyPostTarget must be at least 1")
		}
		s.DailyPostTarget = *patch.DailyPostTarget
	}
	if patch.DailyPostLimit != nil {
		if *patch.DailyPostLimit < 1 {
			return nil, apierr.Validation("dailyPostLimit must be at least 1")
		}
		s.DailyPostLimit = *patch.DailyPostLimit
	}
	if patch.PricePrefix != nil {
		s.PricePrefix = *patch.PricePrefix
	}
	if patch.MessageTemplate != nil {
		s.MessageTemplate = *patch.MessageTemplate
	}
	if err := e.store.SaveSettings(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetWindow returns the posting window, or nil when none is configured.
func (e *Engine) GetWindow(ctx context.Context) (*domain.PostingWindow, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}
	w, err := e.store.Window(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return w, err
}

// UpdateWindow replaces the posting window edges and active flag.
func (e *Engine) UpdateWindow(ctx context.Context, start, end string, isActive bool) (*domain.PostingWindow, error) {
	if !timeutil.ValidHHMM(start) {
		return nil, apierr.Validation(fmt.Sprintf("invalid startTime %q: want HH:MM", start))
	}
	if !timeutil.ValidHHMM(end) {
		return nil, apierr.Validation(fmt.Sprintf("invalid endTime %q: want HH:MM", end))
	}
	w := &domain.PostingWindow{
		ID:        domain.PostingWindowID,
		StartTime: start,
		EndTime:   end,
		IsActive:  isActive,
	}
	if err := e.store.SaveWindow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListThemes returns every theme in creation order, active or not.
func (e *Engine) ListThemes(ctx context.Context) ([]domain.Theme, int, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, 0, err
	}
	themes, err := e.store.ListThemes(ctx, false)
	if err != nil {
		return nil, 0, err
	}
	return themes, len(themes), nil
}

// CreateTheme registers a new search keyword.
func (e *Engine) CreateTheme(ctx context.Context, keyword string, isActive bool) (*domain.Theme, error) {
	if err := e.ensureReady(ctx); err != nil {
		return nil, err
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apierr.Validation("keyword must not be empty")
	}
	if _, err := e.store.ThemeByKeyword(ctx, keyword); err == nil {
		return nil, errThemeExists(keyword)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	theme := &domain.Theme{Keyword: keyword, IsActive: isActive}
	if err := e.store.CreateTheme(ctx, theme); err != nil {
		// The unique index is the arbiter under concurrent creates.
		if errors.Is(err, ErrDuplicateKeyword) {
			return nil, errThemeExists(keyword)
		}
		return nil, err
	}
	return theme, nil
}

// ThemePatch carries the mutable theme fields; nil leaves a field
// unchanged.
type ThemePatch struct {
	Keyword  *string
	IsActive *bool
}

// UpdateTheme renames or toggles a theme. Themes are never deleted;
// deactivation retires a keyword while keeping its history attributable.
func (e *Engine) UpdateTheme(ctx context.Context, id string, patch ThemePatch) (*domain.Theme, error) {
	theme, err := e.store.GetTheme(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, errThemeNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	if patch.Keyword != nil {
		keyword := strings.TrimSpace(*patch.Keyword)
		if keyword == "" {
			return nil, apierr.Validation("keyword must not be empty")
		}
		existing, err := e.store.ThemeByKeyword(ctx, keyword)
		if err == nil && existing.ID != id {
			return nil, errThemeExists(keyword)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		theme.Keyword = keyword
	}
	if patch.IsActive != nil {
		theme.IsActive = *patch.IsActive
	}

	if err := e.store.UpdateTheme(ctx, theme); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateKeyword):
			return nil, errThemeExists(theme.Keyword)
		case errors.Is(err, ErrNotFound):
			return nil, errThemeNotFound(id)
		}
		return nil, err
	}
	return theme, nil
}

// ListSuggestions returns suggestions newest first, optionally filtered
// by status.
func (e *Engine) ListSuggestions(ctx context.Context, status string, limit int) ([]domain.Suggestion, int, error) {
	if status != "" && !domain.ValidSuggestionStatus(status) {
		return nil, 0, apierr.Validation(fmt.Sprintf("unknown suggestion status %q", status))
	}
	return e.store.ListSuggestions(ctx, SuggestionFilter{Status: status, Limit: limit})
}

// ListQueue returns queue items in scheduled order, optionally filtered
// by status.
func (e *Engine) ListQueue(ctx context.Context, status string, limit int) ([]domain.QueueItem, int, error) {
	if status != "" && !domain.ValidQueueStatus(status) {
		return nil, 0, apierr.Validation(fmt.Sprintf("unknown queue status %q", status))
	}
	return e.store.ListQueue(ctx, QueueFilter{Status: status, Limit: limit})
}

// ListHistory returns delivered posts newest first.
func (e *Engine) ListHistory(ctx context.Context, limit int) ([]domain.PostHistory, int, error) {
	return e.store.ListHistory(ctx, limit)
}
