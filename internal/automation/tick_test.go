package automation

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
)

// disableAutoGeneration pins the generation cadence so dispatch tests run
// without a generation pass in front.
func disableAutoGeneration(env *testEnv) {
	at := env.now
	env.store.settings.LastSuggestionGenerationAt = &at
}

func TestRunSchedulerTick_DispatchesDueItem(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "🔥 iPhone 15 Pro por R$ 19,90")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedProcessed != 1 || tick.QueuedSent != 1 || tick.QueuedFailed != 0 {
		t.Errorf("tick = %+v, want 1 processed / 1 sent / 0 failed", tick)
	}
	if len(env.wa.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(env.wa.sent))
	}
	if env.wa.sent[0].chatID != env.chatID() {
		t.Errorf("sent to %q, want %q", env.wa.sent[0].chatID, env.chatID())
	}
	if env.wa.sent[0].text != item.MessageText {
		t.Errorf("sent text = %q, want the stored message verbatim", env.wa.sent[0].text)
	}

	stored := env.store.findQueueItem(item.ID)
	if stored.Status != domain.QueueSent {
		t.Errorf("item status = %s, want sent", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}
	if stored.WAMessageID == nil || *stored.WAMessageID != env.wa.messageID {
		t.Errorf("waMessageId = %v, want recorded receipt", stored.WAMessageID)
	}
	if stored.SentAt == nil || !stored.SentAt.Equal(env.now) {
		t.Errorf("sentAt = %v, want %v", stored.SentAt, env.now)
	}

	if env.store.suggestions[sg.ID].Status != domain.SuggestionSent {
		t.Errorf("suggestion status = %s, want sent", env.store.suggestions[sg.ID].Status)
	}
	if len(env.store.history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(env.store.history))
	}
	h := env.store.history[0]
	if h.ItemID != sg.ItemID || h.MessageText != item.MessageText || h.Status != domain.HistoryStatusSent {
		t.Errorf("history row = %+v, want the dispatched payload", h)
	}
}

func TestRunSchedulerTick_DispatchesInScheduledOrder(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)

	// Seeded out of order on purpose.
	second := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(second, env.now.Add(-20*time.Minute), "second")
	first := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(first, env.now.Add(-30*time.Minute), "first")
	third := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(third, env.now.Add(-10*time.Minute), "third")

	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if len(env.wa.sent) != 3 {
		t.Fatalf("sends = %d, want 3", len(env.wa.sent))
	}
	for i, want := range []string{"first", "second", "third"} {
		if env.wa.sent[i].text != want {
			t.Errorf("send %d = %q, want %q", i, env.wa.sent[i].text, want)
		}
	}
}

func TestRunSchedulerTick_BatchLimit(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.store.settings.DailyPostLimit = 50

	for i := 0; i < 12; i++ {
		sg := env.seedSuggestion(domain.SuggestionQueued)
		env.seedQueueItem(sg, env.now.Add(-time.Duration(i+1)*time.Minute), "msg")
	}

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedProcessed != 10 {
		t.Errorf("processed = %d, want the batch cap of 10", tick.QueuedProcessed)
	}
	if len(env.wa.sent) != 10 {
		t.Errorf("sends = %d, want 10", len(env.wa.sent))
	}

	remaining := 0
	for _, it := range env.store.queue {
		if it.Status == domain.QueueQueued {
			remaining++
		}
	}
	if remaining != 2 {
		t.Errorf("still queued = %d, want 2 left for the next tick", remaining)
	}
}

func TestRunSchedulerTick_SessionNotReady(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.wa.session = domain.SessionStatus{Status: "connecting", IsReady: false}

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if !tick.SkippedNotReady {
		t.Error("skippedNotReady = false, want true")
	}
	if tick.QueuedProcessed != 0 || len(env.wa.sent) != 0 {
		t.Errorf("processed = %d, sends = %d, want no dispatch", tick.QueuedProcessed, len(env.wa.sent))
	}

	stored := env.store.findQueueItem(item.ID)
	if stored.Status != domain.QueueQueued || stored.Attempts != 0 {
		t.Errorf("item = %s attempts=%d, want untouched queued item", stored.Status, stored.Attempts)
	}
}

func TestRunSchedulerTick_SessionCheckOnlyWithDueItems(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)

	// Future item only: nothing due, so the bridge is not consulted.
	sg := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(sg, env.now.Add(2*time.Hour), "later")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if env.wa.statusCalls != 0 {
		t.Errorf("session status calls = %d, want 0 with an empty batch", env.wa.statusCalls)
	}
	if tick.SkippedNotReady {
		t.Error("skippedNotReady = true, want false when nothing was due")
	}
}

func TestRunSchedulerTick_SessionErrorSkipsPass(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.wa.sessionErr = apierr.Upstream(http.StatusBadGateway, apierr.CodeWAUnreachable, "Messaging bridge unreachable")

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() should absorb a status check failure, got: %v", err)
	}
	if !tick.SkippedNotReady {
		t.Error("skippedNotReady = false, want true")
	}
	if env.store.findQueueItem(item.ID).Status != domain.QueueQueued {
		t.Error("item should stay queued for the next tick")
	}
}

func TestRunSchedulerTick_SendFailureMarksItemAndSuggestion(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.wa.sendErr = apierr.Upstream(http.StatusBadGateway, apierr.CodeWAUnreachable, "Messaging bridge unreachable")

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedProcessed != 1 || tick.QueuedFailed != 1 || tick.QueuedSent != 0 {
		t.Errorf("tick = %+v, want 1 processed / 1 failed", tick)
	}

	stored := env.store.findQueueItem(item.ID)
	if stored.Status != domain.QueueFailed {
		t.Errorf("item status = %s, want failed", stored.Status)
	}
	if stored.LastError == nil || *stored.LastError != "Messaging bridge unreachable" {
		t.Errorf("item lastError = %v, want the bridge failure message", stored.LastError)
	}
	if stored.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", stored.Attempts)
	}

	sgStored := env.store.suggestions[sg.ID]
	if sgStored.Status != domain.SuggestionFailed {
		t.Errorf("suggestion status = %s, want failed", sgStored.Status)
	}
	if sgStored.LastError == nil || *sgStored.LastError != "Messaging bridge unreachable" {
		t.Errorf("suggestion lastError = %v, want the bridge failure message", sgStored.LastError)
	}
	if len(env.store.history) != 0 {
		t.Errorf("history rows = %d, failed sends must not be recorded", len(env.store.history))
	}
}

func TestRunSchedulerTick_UncodedSendErrorKeepsRawReason(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.wa.sendErr = errors.New("read tcp 10.0.0.5:443: connection reset by peer")

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	// The operator-facing lastError keeps the raw failure text; only the
	// HTTP envelope masks uncoded errors.
	stored := env.store.findQueueItem(item.ID)
	if stored.LastError == nil || *stored.LastError != "read tcp 10.0.0.5:443: connection reset by peer" {
		t.Errorf("item lastError = %v, want the raw send error text", stored.LastError)
	}
	sgStored := env.store.suggestions[sg.ID]
	if sgStored.LastError == nil || *sgStored.LastError != "read tcp 10.0.0.5:443: connection reset by peer" {
		t.Errorf("suggestion lastError = %v, want the raw send error text", sgStored.LastError)
	}
}

func TestRunSchedulerTick_MissingSuggestionFailsItemOnly(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)

	ghost := env.seedSuggestion(domain.SuggestionQueued)
	orphan := env.seedQueueItem(ghost, env.now.Add(-10*time.Minute), "orphan")
	delete(env.store.suggestions, ghost.ID)

	healthy := env.seedSuggestion(domain.SuggestionQueued)
	ok := env.seedQueueItem(healthy, env.now.Add(-5*time.Minute), "healthy")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedProcessed != 2 || tick.QueuedFailed != 1 || tick.QueuedSent != 1 {
		t.Errorf("tick = %+v, want 2 processed / 1 failed / 1 sent", tick)
	}

	failed := env.store.findQueueItem(orphan.ID)
	if failed.Status != domain.QueueFailed {
		t.Errorf("orphan status = %s, want failed", failed.Status)
	}
	if failed.LastError == nil || *failed.LastError != "Suggestion not found" {
		t.Errorf("orphan lastError = %v", failed.LastError)
	}
	if env.store.findQueueItem(ok.ID).Status != domain.QueueSent {
		t.Error("the healthy item behind the orphan should still go out")
	}
}

func TestRunSchedulerTick_OutsideWindowReschedules(t *testing.T) {
	env := newTestEnv(t)
	env.now = localTime(t, "2026-03-10 23:30:00")
	disableAutoGeneration(env)

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, localTime(t, "2026-03-10 22:45:00"), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedSent != 0 || tick.QueuedFailed != 0 || len(env.wa.sent) != 0 {
		t.Errorf("tick = %+v with %d sends, want a pure reschedule", tick, len(env.wa.sent))
	}

	stored := env.store.findQueueItem(item.ID)
	if stored.Status != domain.QueueQueued {
		t.Errorf("item status = %s, want still queued", stored.Status)
	}
	wantAt := localTime(t, "2026-03-11 09:00:00")
	if !stored.ScheduledAt.Equal(wantAt) {
		t.Errorf("rescheduled to %v, want next window opening %v", stored.ScheduledAt, wantAt)
	}
}

func TestRunSchedulerTick_CapReachedReschedulesNextDay(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.store.settings.DailyPostLimit = 2

	env.seedHistory(9001, localTime(t, "2026-03-10 09:15:00"))
	env.seedHistory(9002, localTime(t, "2026-03-10 09:30:00"))

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedSent != 0 || len(env.wa.sent) != 0 {
		t.Error("cap-reached item must not be sent")
	}
	stored := env.store.findQueueItem(item.ID)
	if stored.Status != domain.QueueQueued {
		t.Errorf("item status = %s, want still queued", stored.Status)
	}
	// Next day, same local clock time: 10:00 falls inside the window, so
	// the reschedule lands exactly 24h out.
	wantAt := env.now.Add(24 * time.Hour)
	if !stored.ScheduledAt.Equal(wantAt) {
		t.Errorf("rescheduled to %v, want %v", stored.ScheduledAt, wantAt)
	}
}

func TestRunSchedulerTick_ReservedSlotsDoNotBlockDispatch(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.store.settings.DailyPostLimit = 1

	// A later reservation exists, but nothing was delivered today, so the
	// due item still goes out: only sent posts count at dispatch time.
	later := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(later, localTime(t, "2026-03-10 18:00:00"), "tonight")

	sg := env.seedSuggestion(domain.SuggestionQueued)
	item := env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "now")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedSent != 1 {
		t.Errorf("sent = %d, want the due item dispatched despite the reservation", tick.QueuedSent)
	}
	if env.store.findQueueItem(item.ID).Status != domain.QueueSent {
		t.Error("due item should be sent")
	}
}

func TestRunSchedulerTick_DisabledSkipsDispatchButMarksRun(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)
	env.store.settings.AutomationEnabled = false

	sg := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}

	if tick.QueuedProcessed != 0 || len(env.wa.sent) != 0 {
		t.Error("disabled automation must not dispatch")
	}
	if env.wa.statusCalls != 0 {
		t.Error("disabled automation must not consult the bridge")
	}
	if env.store.settings.LastSchedulerRunAt == nil || !env.store.settings.LastSchedulerRunAt.Equal(env.now) {
		t.Errorf("lastSchedulerRunAt = %v, want %v even when disabled", env.store.settings.LastSchedulerRunAt, env.now)
	}
}

func TestRunSchedulerTick_MarksSchedulerRun(t *testing.T) {
	env := newTestEnv(t)
	disableAutoGeneration(env)

	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}
	if env.store.settings.LastSchedulerRunAt == nil || !env.store.settings.LastSchedulerRunAt.Equal(env.now) {
		t.Errorf("lastSchedulerRunAt = %v, want %v", env.store.settings.LastSchedulerRunAt, env.now)
	}
}

func TestRunSchedulerTick_AutoGenerationCadence(t *testing.T) {
	env := newTestEnv(t)

	// First tick: no previous run recorded, generation fires for the
	// active themes.
	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}
	if len(env.catalog.searches) != 2 {
		t.Fatalf("searches after first tick = %v, want both active themes", env.catalog.searches)
	}
	if env.store.settings.LastSuggestionGenerationAt == nil {
		t.Fatal("lastSuggestionGenerationAt not recorded")
	}

	// Within the cadence: no generation.
	env.catalog.searches = nil
	env.now = env.now.Add(10 * time.Minute)
	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}
	if len(env.catalog.searches) != 0 {
		t.Errorf("searches inside the cadence = %v, want none", env.catalog.searches)
	}

	// Past the cadence: generation fires again.
	env.now = env.now.Add(25 * time.Minute)
	if _, err := env.eng.RunSchedulerTick(context.Background()); err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}
	if len(env.catalog.searches) != 2 {
		t.Errorf("searches past the cadence = %v, want both active themes", env.catalog.searches)
	}
}

func TestRunSchedulerTick_GenerationFailureDoesNotBlockDispatch(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.searchErr["iphone"] = apierr.Upstream(http.StatusBadGateway, apierr.CodeShopeeUnreachable, "Catalog API unreachable")
	env.catalog.searchErr["notebook"] = apierr.Upstream(http.StatusBadGateway, apierr.CodeShopeeUnreachable, "Catalog API unreachable")

	sg := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(sg, env.now.Add(-5*time.Minute), "msg")

	tick, err := env.eng.RunSchedulerTick(context.Background())
	if err != nil {
		t.Fatalf("RunSchedulerTick() error: %v", err)
	}
	if tick.Generated != 0 {
		t.Errorf("generated = %d, want 0", tick.Generated)
	}
	if tick.QueuedSent != 1 {
		t.Errorf("sent = %d, dispatch must run even when generation fails", tick.QueuedSent)
	}
}
