package domain

import "time"

// SettingsID is the primary key of the single automation_settings row.
// The engine never creates a second row; bootstrap upserts this one.
const SettingsID = 1

// PostingWindowID is the primary key of the single posting_windows row.
const PostingWindowID = 1

// AutomationSettings is the singleton operational configuration for the
// automation loop. Bootstrap creates it from config defaults; admins mutate
// it through the API; the tick driver updates the two last-run timestamps.
type AutomationSettings struct {
	ID                         int        `json:"id" db:"id"`
	AutomationEnabled          bool       `json:"automationEnabled" db:"automation_enabled"`
	Timezone                   string     `json:"timezone" db:"timezone"`
	TargetGroupID              *string    `json:"targetGroupId" db:"target_group_id"`
	TargetGroupName            *string    `json:"targetGroupName" db:"target_group_name"`
	DailyPostTarget            int        `json:"dailyPostTarget" db:"daily_post_target"`
	DailyPostLimit             int        `json:"dailyPostLimit" db:"daily_post_limit"`
	PricePrefix                string     `json:"pricePrefix" db:"price_prefix"`
	MessageTemplate            string     `json:"messageTemplate" db:"message_template"`
	LastSuggestionGenerationAt *time.Time `json:"lastSuggestionGenerationAt" db:"last_suggestion_generation_at"`
	LastSchedulerRunAt         *time.Time `json:"lastSchedulerRunAt" db:"last_scheduler_run_at"`
	CreatedAt                  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt                  time.Time  `json:"updatedAt" db:"updated_at"`
}

// PostingWindow is the singleton daily local-time interval during which
// sends are permitted. Times are "HH:MM" in the configured timezone; when
// EndTime <= StartTime the window wraps past local midnight.
type PostingWindow struct {
	ID        int       `json:"id" db:"id"`
	StartTime string    `json:"startTime" db:"start_time"`
	EndTime   string    `json:"endTime" db:"end_time"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Theme is a search keyword the generator mines the upstream catalog with.
// Keywords are unique case-insensitively. Themes are deactivated, never
// deleted.
type Theme struct {
	ID        string    `json:"id" db:"id"`
	Keyword   string    `json:"keyword" db:"keyword"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
