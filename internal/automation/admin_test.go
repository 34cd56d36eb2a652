package automation

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/domain"
)

func TestUpdateSettings_AppliesPatch(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.eng.UpdateSettings(context.Background(), SettingsPatch{
		AutomationEnabled: boolPtr(false),
		DailyPostTarget:   intPtr(8),
		PricePrefix:       strPtr("Por apenas R$ "),
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error: %v", err)
	}

	if s.AutomationEnabled {
		t.Error("automationEnabled should be false after patch")
	}
	if s.DailyPostTarget != 8 {
		t.Errorf("dailyPostTarget = %d, want 8", s.DailyPostTarget)
	}
	if s.PricePrefix != "Por apenas R$ " {
		t.Errorf("pricePrefix = %q", s.PricePrefix)
	}
	// Untouched fields survive.
	if s.DailyPostLimit != 15 {
		t.Errorf("dailyPostLimit = %d, want unchanged 15", s.DailyPostLimit)
	}
	if s.Timezone != "America/Sao_Paulo" {
		t.Errorf("timezone = %q, want unchanged", s.Timezone)
	}

	// And the patch is persisted, not just echoed.
	if env.store.settings.DailyPostTarget != 8 {
		t.Errorf("stored dailyPostTarget = %d, want 8", env.store.settings.DailyPostTarget)
	}
}

func TestUpdateSettings_ClearsGroupWithEmptyString(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.eng.UpdateSettings(context.Background(), SettingsPatch{
		TargetGroupID:   strPtr("   "),
		TargetGroupName: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error: %v", err)
	}
	if s.TargetGroupID != nil {
		t.Errorf("targetGroupId = %v, want cleared", *s.TargetGroupID)
	}
	if s.TargetGroupName != nil {
		t.Errorf("targetGroupName = %v, want cleared", *s.TargetGroupName)
	}
}

func TestUpdateSettings_InvalidTimezone(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.UpdateSettings(context.Background(), SettingsPatch{
		Timezone: strPtr("Mars/Olympus"),
	})
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)

	// The bad patch must not leave partial writes behind.
	if env.store.settings.Timezone != "America/Sao_Paulo" {
		t.Errorf("stored timezone = %q, want untouched", env.store.settings.Timezone)
	}
}

func TestUpdateSettings_RejectsNonPositiveCaps(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.UpdateSettings(context.Background(), SettingsPatch{DailyPostTarget: intPtr(0)})
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)

	_, err = env.eng.UpdateSettings(context.Background(), SettingsPatch{DailyPostLimit: intPtr(-3)})
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)
}

func TestUpdateWindow_ReplacesEdges(t *testing.T) {
	env := newTestEnv(t)

	w, err := env.eng.UpdateWindow(context.Background(), "10:30", "23:00", false)
	if err != nil {
		t.Fatalf("UpdateWindow() error: %v", err)
	}
	if w.ID != domain.PostingWindowID {
		t.Errorf("window id = %d, want the singleton id", w.ID)
	}
	if w.StartTime != "10:30" || w.EndTime != "23:00" || w.IsActive {
		t.Errorf("window = %s-%s active=%v", w.StartTime, w.EndTime, w.IsActive)
	}
	if env.store.window.StartTime != "10:30" {
		t.Errorf("stored startTime = %q, want 10:30", env.store.window.StartTime)
	}
}

func TestUpdateWindow_ValidatesHHMM(t *testing.T) {
	env := newTestEnv(t)

	for _, c := range []struct{ start, end string }{
		{"25:00", "22:00"},
		{"09:00", "22:75"},
		{"morning", "22:00"},
		{"09:00", ""},
	} {
		_, err := env.eng.UpdateWindow(context.Background(), c.start, c.end, true)
		assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)
	}
}

func TestCreateTheme(t *testing.T) {
	env := newTestEnv(t)

	theme, err := env.eng.CreateTheme(context.Background(), "  cadeira gamer  ", true)
	if err != nil {
		t.Fatalf("CreateTheme() error: %v", err)
	}
	if theme.Keyword != "cadeira gamer" {
		t.Errorf("keyword = %q, want trimmed", theme.Keyword)
	}
	if theme.ID == "" {
		t.Error("theme id not assigned")
	}
	if len(env.store.themes) != 3 {
		t.Errorf("themes = %d, want bootstrap pair plus one", len(env.store.themes))
	}
}

func TestCreateTheme_DuplicateIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.CreateTheme(context.Background(), "IPHONE", true)
	assertAPIError(t, err, http.StatusConflict, apierr.CodeThemeExists)

	if len(env.store.themes) != 2 {
		t.Errorf("themes = %d, duplicate must not be inserted", len(env.store.themes))
	}
}

func TestCreateTheme_EmptyKeyword(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.CreateTheme(context.Background(), "   ", true)
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)
}

func TestUpdateTheme(t *testing.T) {
	env := newTestEnv(t)
	id := env.store.themes[0].ID

	theme, err := env.eng.UpdateTheme(context.Background(), id, ThemePatch{
		Keyword:  strPtr("iphone 15"),
		IsActive: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateTheme() error: %v", err)
	}
	if theme.Keyword != "iphone 15" || theme.IsActive {
		t.Errorf("theme = %q active=%v, want renamed and retired", theme.Keyword, theme.IsActive)
	}
	if env.store.themes[0].Keyword != "iphone 15" {
		t.Errorf("stored keyword = %q", env.store.themes[0].Keyword)
	}
}

func TestUpdateTheme_SameKeywordIsNotAConflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.store.themes[0].ID

	// Renaming a theme to its own keyword (case change only) must pass.
	theme, err := env.eng.UpdateTheme(context.Background(), id, ThemePatch{Keyword: strPtr("iPhone")})
	if err != nil {
		t.Fatalf("UpdateTheme() error: %v", err)
	}
	if theme.Keyword != "iPhone" {
		t.Errorf("keyword = %q, want iPhone", theme.Keyword)
	}
}

func TestUpdateTheme_Conflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.store.themes[0].ID

	_, err := env.eng.UpdateTheme(context.Background(), id, ThemePatch{Keyword: strPtr("NOTEBOOK")})
	assertAPIError(t, err, http.StatusConflict, apierr.CodeThemeExists)
}

func TestUpdateTheme_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.eng.UpdateTheme(context.Background(), "missing-id", ThemePatch{IsActive: boolPtr(false)})
	assertAPIError(t, err, http.StatusNotFound, apierr.CodeThemeNotFound)
}

func TestListThemes_IncludesRetired(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.eng.UpdateTheme(context.Background(), env.store.themes[0].ID, ThemePatch{IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateTheme() error: %v", err)
	}

	themes, total, err := env.eng.ListThemes(context.Background())
	if err != nil {
		t.Fatalf("ListThemes() error: %v", err)
	}
	if total != 2 || len(themes) != 2 {
		t.Errorf("themes = %d (total %d), retired themes must stay listed", len(themes), total)
	}
}

func TestListSuggestions_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedSuggestion(domain.SuggestionPending)
	env.seedSuggestion(domain.SuggestionPending)
	env.seedSuggestion(domain.SuggestionRejected)

	items, total, err := env.eng.ListSuggestions(context.Background(), "pending", 50)
	if err != nil {
		t.Fatalf("ListSuggestions() error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("pending = %d (total %d), want 2", len(items), total)
	}

	_, _, err = env.eng.ListSuggestions(context.Background(), "bogus", 50)
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)
}

func TestListQueue_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	sg := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(sg, env.now.Add(time.Hour), "msg")

	items, total, err := env.eng.ListQueue(context.Background(), "queued", 50)
	if err != nil {
		t.Fatalf("ListQueue() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("queued = %d (total %d), want 1", len(items), total)
	}
	if items[0].ProductName == nil || *items[0].ProductName != sg.ProductName {
		t.Errorf("productName = %v, want joined from the suggestion", items[0].ProductName)
	}

	_, _, err = env.eng.ListQueue(context.Background(), "bogus", 50)
	assertAPIError(t, err, http.StatusBadRequest, apierr.CodeValidationError)
}

func TestStatus_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	env.seedSuggestion(domain.SuggestionPending)
	env.seedSuggestion(domain.SuggestionRejected)
	sg := env.seedSuggestion(domain.SuggestionQueued)
	env.seedQueueItem(sg, env.now.Add(time.Hour), "msg")
	gen := env.now.Add(-10 * time.Minute)
	env.store.settings.LastSuggestionGenerationAt = &gen

	snap, err := env.eng.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}

	if snap.Suggestions.Pending != 1 || snap.Suggestions.Rejected != 1 || snap.Suggestions.Queued != 1 {
		t.Errorf("suggestion counters = %+v", snap.Suggestions)
	}
	if snap.Queue.Queued != 1 {
		t.Errorf("queue counters = %+v", snap.Queue)
	}
	if snap.PostingWindow == nil || snap.PostingWindow.StartTime != "09:00" {
		t.Errorf("postingWindow = %+v", snap.PostingWindow)
	}
	if snap.WASession.Status != "connected" || snap.WASession.IsReady == nil || !*snap.WASession.IsReady {
		t.Errorf("waSession = %+v, want connected/ready", snap.WASession)
	}
	if snap.Scheduler.TickSeconds != 30 {
		t.Errorf("tickSeconds = %d, want 30", snap.Scheduler.TickSeconds)
	}
	wantNext := gen.Add(30 * time.Minute)
	if snap.Scheduler.NextSuggestedGenerationAt == nil || !snap.Scheduler.NextSuggestedGenerationAt.Equal(wantNext) {
		t.Errorf("nextSuggestedGenerationAt = %v, want %v", snap.Scheduler.NextSuggestedGenerationAt, wantNext)
	}
}

func TestStatus_BridgeFailureDegradesSessionBlock(t *testing.T) {
	env := newTestEnv(t)
	env.wa.sessionErr = apierr.Upstream(http.StatusBadGateway, apierr.CodeWAUnreachable, "Messaging bridge unreachable")

	snap, err := env.eng.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() must not fail on a bridge outage: %v", err)
	}
	if snap.WASession.Status != "unavailable" {
		t.Errorf("waSession.status = %q, want unavailable", snap.WASession.Status)
	}
	if snap.WASession.Code != apierr.CodeWAUnreachable {
		t.Errorf("waSession.code = %q", snap.WASession.Code)
	}
	if snap.WASession.IsReady != nil {
		t.Error("isReady must be omitted when the bridge is unreachable")
	}
}
