package automation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
)

// dispatchBatchSize caps how many due items one tick takes on, keeping
// ticks short so shutdown never waits long.
const dispatchBatchSize = 10

// RunSchedulerTick executes one pass of the automation loop: bootstrap,
// cadence-gated suggestion generation, then dispatch of due queue items.
// Generation failures are absorbed; dispatch runs regardless.
func (e *Engine) RunSchedulerTick(ctx context.Context) (*domain.TickResult, error) {
	if err := e.Bootstrap(ctx); err != nil {
		return nil, err
	}
	settings, err := e.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	tick := &domain.TickResult{}
	if settings.AutomationEnabled && e.shouldAutoGenerate(settings) {
		gen, err := e.GenerateSuggestions(ctx, domain.GenerationParams{OnlyActiveThemes: true})
		if err != nil {
			log.Printf("[automation.Engine] Auto suggestion generation failed: %v", err)
		} else {
			tick.Generated = gen.Inserted
		}
	}

	if settings.AutomationEnabled {
		if err := e.processDueQueue(ctx, tick); err != nil {
			return nil, err
		}
	}

	if err := e.store.MarkSchedulerRun(ctx, e.now().UTC()); err != nil {
		return nil, err
	}
	return tick, nil
}

// processDueQueue dispatches due queue items in scheduled order. The
// messaging session is checked once per pass; a failed check or non-ready
// session leaves every item queued for the next tick.
func (e *Engine) processDueQueue(ctx context.Context, tick *domain.TickResult) error {
	due, err := e.store.DueQueueItems(ctx, e.now().UTC(), dispatchBatchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	status, err := e.wa.SessionStatus(ctx)
	if err != nil {
		log.Printf("[automation.Engine] Skipping queue processing, session status check failed: %v", err)
		tick.SkippedNotReady = true
		return nil
	}
	if !status.IsReady {
		tick.SkippedNotReady = true
		return nil
	}

	sc, err := e.loadSchedule(ctx)
	if err != nil {
		return err
	}

	for i := range due {
		item := &due[i]
		tick.QueuedProcessed++

		sg, err := e.store.GetSuggestion(ctx, item.SuggestionID)
		if errors.Is(err, ErrNotFound) {
			if err := e.store.FailQueueItem(ctx, item.ID, "Suggestion not found"); err != nil {
				return err
			}
			tick.QueuedFailed++
			continue
		}
		if err != nil {
			return err
		}

		now := e.now().UTC()
		within, err := sc.isWithinWindow(now)
		if err != nil {
			return err
		}
		if !within {
			next, err := sc.nextWindowStart(now)
			if err != nil {
				return err
			}
			if err := e.store.RescheduleQueueItem(ctx, item.ID, next); err != nil {
				return err
			}
			continue
		}

		// Only delivered posts count against the dispatch-time cap;
		// reserved slots already shaped the schedule at approval time.
		sent, _, err := e.dailyCounts(ctx, sc, item.ChatID, now)
		if err != nil {
			return err
		}
		if sent >= sc.settings.DailyPostLimit {
			next, err := sc.nextWindowStart(now.Add(24 * time.Hour))
			if err != nil {
				return err
			}
			if err := e.store.RescheduleQueueItem(ctx, item.ID, next); err != nil {
				return err
			}
			continue
		}

		if err := e.store.MarkQueueItemSending(ctx, item.ID); err != nil {
			return err
		}

		// The stored text and chat go out verbatim so the delivered
		// message matches the approval preview.
		receipt, sendErr := e.wa.SendText(ctx, item.ChatID, item.MessageText)
		if sendErr != nil {
			// Bridge errors carry their own message; anything else keeps
			// its raw text so the operator sees what actually broke.
			reason := sendErr.Error()
			var ae *apierr.Error
			if errors.As(sendErr, &ae) {
				reason = ae.Message
			}
			if err := e.store.FailDispatch(ctx, item.ID, sg.ID, reason); err != nil {
				return err
			}
			tick.QueuedFailed++
			continue
		}

		if err := e.store.FinalizeDispatch(ctx, DispatchResult{
			Item:        item,
			Suggestion:  sg,
			WAMessageID: receipt.MessageID,
			SentAt:      e.now().UTC(),
		}); err != nil {
			return err
		}
		tick.QueuedSent++
	}
	return nil
}
