package automation

import (
	"context"
	"time"

	"github.com/Leo190198/promoShare/internal/domain"
)

// SettingsStore persists the singleton settings row and the posting window.
type SettingsStore interface {
	// EnsureDefaults inserts the settings row, the posting window and the
	// seed themes when they do not exist yet. Existing rows are left alone.
	EnsureDefaults(ctx context.Context, s domain.AutomationSettings, w domain.PostingWindow, keywords []string) error

	// Settings returns the singleton settings row. Returns ErrNotFound
	// before bootstrap has run.
	Settings(ctx context.Context) (*domain.AutomationSettings, error)

	// SaveSettings persists the mutable settings fields.
	SaveSettings(ctx context.Context, s *domain.AutomationSettings) error

	// MarkGenerationRun records when suggestion generation last completed.
	MarkGenerationRun(ctx context.Context, at time.Time) error

	// MarkSchedulerRun records when a scheduler tick last completed.
	MarkSchedulerRun(ctx context.Context, at time.Time) error

	// Window returns the singleton posting window. Returns ErrNotFound
	// before bootstrap has run.
	Window(ctx context.Context) (*domain.PostingWindow, error)

	// SaveWindow upserts the posting window row.
	SaveWindow(ctx context.Context, w *domain.PostingWindow) error
}

// ThemeStore persists search themes. Keywords are unique case-insensitively.
type ThemeStore interface {
	// ListThemes returns themes in creation order. When activeOnly is set,
	// deactivated themes are excluded.
	ListThemes(ctx context.Context, activeOnly bool) ([]domain.Theme, error)

	// GetTheme returns one theme by id. Returns ErrNotFound.
	GetTheme(ctx context.Context, id string) (*domain.Theme, error)

	// ThemeByKeyword looks a theme up by keyword, case-insensitively.
	// Returns ErrNotFound when no theme carries the keyword.
	ThemeByKeyword(ctx context.Context, keyword string) (*domain.Theme, error)

	// CreateTheme inserts a theme and fills its ID and timestamps.
	// Returns ErrDuplicateKeyword when the keyword is already taken.
	CreateTheme(ctx context.Context, t *domain.Theme) error

	// UpdateTheme persists keyword and active-flag changes.
	// Returns ErrDuplicateKeyword when the new keyword is already taken.
	UpdateTheme(ctx context.Context, t *domain.Theme) error
}

// SuggestionFilter controls filtering for suggestion lists.
type SuggestionFilter struct {
	Status string
	Limit  int
}

// EnqueueParams carries everything needed to approve a suggestion onto the
// queue in a single transaction.
type EnqueueParams struct {
	SuggestionID string
	ChatID       string
	ScheduledAt  time.Time
	MessageText  string
	ApprovedAt   time.Time
}

// SendNowParams finalizes a send-now approval: the history row to append
// and the delivery facts to stamp on the suggestion.
type SendNowParams struct {
	Suggestion  *domain.Suggestion
	ChatID      string
	MessageText string
	WAMessageID *string
	SentAt      time.Time
}

// SuggestionStore persists catalog suggestions and their approval
// transitions.
type SuggestionStore interface {
	// CreateSuggestion inserts a pending suggestion and fills its ID and
	// timestamps.
	CreateSuggestion(ctx context.Context, s *domain.Suggestion) error

	// GetSuggestion returns one suggestion by id. Returns ErrNotFound.
	GetSuggestion(ctx context.Context, id string) (*domain.Suggestion, error)

	// ListSuggestions returns suggestions newest first plus the total
	// count under the same filter.
	ListSuggestions(ctx context.Context, f SuggestionFilter) ([]domain.Suggestion, int, error)

	// RecentItemIDs returns the catalog item ids that block re-suggesting:
	// items sent since the cutoff plus items with an open suggestion
	// created since the cutoff.
	RecentItemIDs(ctx context.Context, cutoff time.Time) (map[int64]struct{}, error)

	// SetSuggestionShortLink persists a lazily generated short link.
	SetSuggestionShortLink(ctx context.Context, id, shortLink string) error

	// MarkSuggestionApproval stamps the approval action and time while the
	// suggestion is still pending. Returns ErrNotFound or ErrNotPending.
	MarkSuggestionApproval(ctx context.Context, id string, action domain.ApprovedAction, at time.Time) error

	// EnqueueApproved claims a pending suggestion and inserts its queue
	// item in one transaction. The claim is conditional on the pending
	// status, so concurrent approvals of the same suggestion cannot both
	// succeed. Returns ErrNotFound or ErrNotPending.
	EnqueueApproved(ctx context.Context, p EnqueueParams) (*domain.Suggestion, *domain.QueueItem, error)

	// RejectSuggestion moves a pending suggestion to rejected. Returns
	// ErrNotFound or ErrNotPending.
	RejectSuggestion(ctx context.Context, id string, reason *string) (*domain.Suggestion, error)

	// FinalizeSendNow appends the history row and marks the suggestion
	// sent in one transaction, so a delivered message is never lost
	// between the two writes.
	FinalizeSendNow(ctx context.Context, p SendNowParams) (*domain.PostHistory, error)

	// CountSuggestionsByStatus returns per-status totals.
	CountSuggestionsByStatus(ctx context.Context) (domain.SuggestionCounters, error)
}

// QueueFilter controls filtering for queue lists.
type QueueFilter struct {
	Status string
	Limit  int
}

// DispatchResult finalizes a delivered queue item: the queue row, its
// suggestion and the history row all reflect the send in one transaction.
type DispatchResult struct {
	Item        *domain.QueueItem
	Suggestion  *domain.Suggestion
	WAMessageID *string
	SentAt      time.Time
}

// QueueStore persists scheduled dispatches.
type QueueStore interface {
	// ListQueue returns queue items ordered by scheduled time plus the
	// total count under the same filter. Product names are joined in.
	ListQueue(ctx context.Context, f QueueFilter) ([]domain.QueueItem, int, error)

	// DueQueueItems returns queued items with scheduled_at <= now, oldest
	// first, capped at limit.
	DueQueueItems(ctx context.Context, now time.Time, limit int) ([]domain.QueueItem, error)

	// MarkQueueItemSending moves an item to sending and counts the
	// attempt.
	MarkQueueItemSending(ctx context.Context, id string) error

	// RescheduleQueueItem moves a queued item to a new scheduled time.
	RescheduleQueueItem(ctx context.Context, id string, at time.Time) error

	// FinalizeDispatch marks the item sent, appends the history row and
	// marks the suggestion sent in one transaction.
	FinalizeDispatch(ctx context.Context, r DispatchResult) error

	// FailQueueItem records a failure on the queue item alone, for items
	// whose suggestion row is gone.
	FailQueueItem(ctx context.Context, id, reason string) error

	// FailDispatch records a failure on both the queue item and its
	// suggestion in one transaction.
	FailDispatch(ctx context.Context, itemID, suggestionID, reason string) error

	// LatestQueueScheduledAt returns the newest scheduled_at across
	// queued, sending and sent items for the chat, or nil.
	LatestQueueScheduledAt(ctx context.Context, chatID string) (*time.Time, error)

	// CountQueueInRange counts queued and sending items for the chat with
	// scheduled_at inside [from, to], bounds inclusive.
	CountQueueInRange(ctx context.Context, chatID string, from, to time.Time) (int, error)

	// CountQueueByStatus returns per-status totals.
	CountQueueByStatus(ctx context.Context) (domain.QueueCounters, error)
}

// HistoryStore reads the append-only delivery log. Rows are written by the
// dispatch transactions on SuggestionStore and QueueStore.
type HistoryStore interface {
	// ListHistory returns history rows newest first plus the total count.
	ListHistory(ctx context.Context, limit int) ([]domain.PostHistory, int, error)

	// LatestHistorySentAt returns the newest sent_at for the chat, or nil.
	LatestHistorySentAt(ctx context.Context, chatID string) (*time.Time, error)

	// CountHistoryInRange counts sent rows for the chat with sent_at
	// inside [from, to], bounds inclusive.
	CountHistoryInRange(ctx context.Context, chatID string, from, to time.Time) (int, error)
}

// Store is the full data access contract for the automation engine.
// Implementations must be safe for concurrent use.
type Store interface {
	SettingsStore
	ThemeStore
	SuggestionStore
	QueueStore
	HistoryStore
}
