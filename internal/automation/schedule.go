package automation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/timeutil"
)

// schedule bundles the settings row, the posting window and the resolved
// timezone for one scheduling computation, so every helper works off the
// same snapshot.
type schedule struct {
	settings *domain.AutomationSettings
	window   *domain.PostingWindow
	win      timeutil.Window
	loc      *time.Location
}

// loadSchedule reads the schedule snapshot. The window may be absent;
// callers that need one go through requireWindow.
func (e *Engine) loadSchedule(ctx context.Context) (*schedule, error) {
	settings, err := e.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	tz := settings.Timezone
	if tz == "" {
		tz = e.cfg.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeInvalidTimezone, "Invalid automation timezone")
	}

	sc := &schedule{settings: settings, loc: loc}
	window, err := e.store.Window(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if window != nil {
		win, err := timeutil.NewWindow(window.StartTime, window.EndTime)
		if err != nil {
			return nil, fmt.Errorf("parse posting window: %w", err)
		}
		sc.window = window
		sc.win = win
	}
	return sc, nil
}

// requireWindow rejects scheduling when no active window exists.
func (sc *schedule) requireWindow() error {
	if sc.window == nil || !sc.window.IsActive {
		return apierr.BadRequest(apierr.CodePostingWindowMissing, "Posting window is not configured")
	}
	return nil
}

// isWithinWindow reports whether t falls inside the active window.
func (sc *schedule) isWithinWindow(t time.Time) (bool, error) {
	if err := sc.requireWindow(); err != nil {
		return false, err
	}
	return sc.win.Contains(t, sc.loc), nil
}

// nextWindowStart returns the earliest permitted instant at or after t.
func (sc *schedule) nextWindowStart(t time.Time) (time.Time, error) {
	if err := sc.requireWindow(); err != nil {
		return time.Time{}, err
	}
	return sc.win.NextStart(t, sc.loc), nil
}

// spacing returns the minimum per-chat gap between posts. An inactive
// window still defines the gap; only a missing row falls back to the
// fixed default.
func (sc *schedule) spacing() time.Duration {
	if sc.window == nil {
		return timeutil.NoWindowSpacingSeconds * time.Second
	}
	return time.Duration(sc.win.SpacingSeconds(sc.settings.DailyPostTarget)) * time.Second
}

// dailyCounts returns the sent and reserved totals for the chat inside
// the window bounds on ref's local day.
func (e *Engine) dailyCounts(ctx context.Context, sc *schedule, chatID string, ref time.Time) (sent, queued int, err error) {
	if err := sc.requireWindow(); err != nil {
		return 0, 0, err
	}
	from, to := sc.win.DayBoundsUTC(ref, sc.loc)
	sent, err = e.store.CountHistoryInRange(ctx, chatID, from, to)
	if err != nil {
		return 0, 0, err
	}
	queued, err = e.store.CountQueueInRange(ctx, chatID, from, to)
	if err != nil {
		return 0, 0, err
	}
	return sent, queued, nil
}

// computeNextScheduleAt places the next post for the chat: the next
// window opening, pushed behind the latest queued and delivered posts by
// the spacing, clamped back into the window, then bumped a day when the
// local day's cap is already reserved.
func (e *Engine) computeNextScheduleAt(ctx context.Context, sc *schedule, chatID string) (time.Time, error) {
	candidate, err := sc.nextWindowStart(e.now().UTC())
	if err != nil {
		return time.Time{}, err
	}
	spacing := sc.spacing()

	latestQueued, err := e.store.LatestQueueScheduledAt(ctx, chatID)
	if err != nil {
		return time.Time{}, err
	}
	if latestQueued != nil && latestQueued.Add(spacing).After(candidate) {
		candidate = latestQueued.Add(spacing)
	}
	latestSent, err := e.store.LatestHistorySentAt(ctx, chatID)
	if err != nil {
		return time.Time{}, err
	}
	if latestSent != nil && latestSent.Add(spacing).After(candidate) {
		candidate = latestSent.Add(spacing)
	}

	within, err := sc.isWithinWindow(candidate)
	if err != nil {
		return time.Time{}, err
	}
	if !within {
		if candidate, err = sc.nextWindowStart(candidate); err != nil {
			return time.Time{}, err
		}
	}

	sent, queued, err := e.dailyCounts(ctx, sc, chatID, candidate)
	if err != nil {
		return time.Time{}, err
	}
	if sent+queued >= sc.settings.DailyPostLimit {
		if candidate, err = sc.nextWindowStart(candidate.Add(24 * time.Hour)); err != nil {
			return time.Time{}, err
		}
	}
	return candidate, nil
}

// shouldAutoGenerate reports whether the generation cadence has elapsed.
func (e *Engine) shouldAutoGenerate(settings *domain.AutomationSettings) bool {
	if settings.LastSuggestionGenerationAt == nil {
		return true
	}
	return !e.now().UTC().Before(settings.LastSuggestionGenerationAt.Add(e.cfg.SuggestionInterval()))
}
