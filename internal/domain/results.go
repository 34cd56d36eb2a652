package domain

import "time"

// GenerationParams tunes one suggestion-generation run. Nil limits fall
// back to the configured defaults.
type GenerationParams struct {
	LimitPerTheme     *int `json:"limitPerTheme"`
	MaxNewSuggestions *int `json:"maxNewSuggestions"`
	OnlyActiveThemes  bool `json:"onlyActiveThemes"`
}

// GenerationResult summarizes one generation run.
type GenerationResult struct {
	Inserted          int           `json:"inserted"`
	SkippedDuplicates int           `json:"skippedDuplicates"`
	Inspected         int           `json:"inspected"`
	Suggestions       []*Suggestion `json:"suggestions"`
}

// TickResult summarizes one pass of the automation worker.
type TickResult struct {
	Generated       int  `json:"generated"`
	QueuedProcessed int  `json:"queuedProcessed"`
	QueuedSent      int  `json:"queuedSent"`
	QueuedFailed    int  `json:"queuedFailed"`
	SkippedNotReady bool `json:"skippedNotReady"`
}

// ApproveResult is returned by the approval endpoints. Schedule approvals
// carry the queue placement; send-now approvals carry the bridge receipt.
type ApproveResult struct {
	Suggestion     *Suggestion     `json:"suggestion"`
	QueueItemID    string          `json:"queueItemId,omitempty"`
	QueueStatus    QueueItemStatus `json:"queueStatus,omitempty"`
	MessagePreview string          `json:"messagePreview"`
	WAResult       *SendReceipt    `json:"waResult,omitempty"`
}

// SuggestionCounters are the per-status suggestion totals exposed by the
// status endpoint.
type SuggestionCounters struct {
	Pending  int `json:"pending"`
	Queued   int `json:"queued"`
	Sent     int `json:"sent"`
	Rejected int `json:"rejected"`
	Failed   int `json:"failed"`
}

// QueueCounters are the per-status queue totals exposed by the status
// endpoint.
type QueueCounters struct {
	Queued  int `json:"queued"`
	Sending int `json:"sending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// WASessionInfo is the messaging-session block of the status snapshot.
// When the bridge is reachable it mirrors the session status; when it is
// not, Status is "unavailable" and Code/Message carry the failure.
type WASessionInfo struct {
	Status  string `json:"status"`
	IsReady *bool  `json:"isReady,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SchedulerInfo is the tick-driver block of the status snapshot.
type SchedulerInfo struct {
	TickSeconds                int        `json:"tickSeconds"`
	LastSuggestionGenerationAt *time.Time `json:"lastSuggestionGenerationAt"`
	LastSchedulerRunAt         *time.Time `json:"lastSchedulerRunAt"`
	NextSuggestedGenerationAt  *time.Time `json:"nextSuggestedGenerationAt"`
}

// StatusSnapshot is the point-in-time view returned by GET /automation/status.
type StatusSnapshot struct {
	Settings      *AutomationSettings `json:"settings"`
	PostingWindow *PostingWindow      `json:"postingWindow"`
	Suggestions   SuggestionCounters  `json:"suggestions"`
	Queue         QueueCounters       `json:"queue"`
	WASession     WASessionInfo       `json:"waSession"`
	Scheduler     SchedulerInfo       `json:"scheduler"`
}
