package automation

import (
	"context"
	"errors"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
)

// Status aggregates settings, counters, the messaging-session state and
// scheduler hints into one snapshot. A bridge failure degrades the
// session block instead of failing the call.
func (e *Engine) Status(ctx context.Context) (*domain.StatusSnapshot, error) {
	settings, err := e.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	window, err := e.store.Window(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	suggestions, err := e.store.CountSuggestionsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := e.store.CountQueueByStatus(ctx)
	if err != nil {
		return nil, err
	}

	snap := &domain.StatusSnapshot{
		Settings:      settings,
		PostingWindow: window,
		Suggestions:   suggestions,
		Queue:         queue,
		Scheduler: domain.SchedulerInfo{
			TickSeconds:                e.cfg.TickSeconds,
			LastSuggestionGenerationAt: settings.LastSuggestionGenerationAt,
			LastSchedulerRunAt:         settings.LastSchedulerRunAt,
		},
	}
	if settings.LastSuggestionGenerationAt != nil {
		next := settings.LastSuggestionGenerationAt.Add(e.cfg.SuggestionInterval())
		snap.Scheduler.NextSuggestedGenerationAt = &next
	}

	if session, err := e.wa.SessionStatus(ctx); err != nil {
		ae := apierr.From(err)
		snap.WASession = domain.WASessionInfo{Status: "unavailable", Code: ae.Code, Message: ae.Message}
	} else {
		ready := session.IsReady
		snap.WASession = domain.WASessionInfo{Status: session.Status, IsReady: &ready}
	}
	return snap, nil
}
