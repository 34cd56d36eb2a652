package domain

import "time"

// QueueItemStatus enumerates the lifecycle of a scheduled dispatch.
type QueueItemStatus string

const (
	QueueQueued  QueueItemStatus = "queued"
	QueueSending QueueItemStatus = "sending"
	QueueSent    QueueItemStatus = "sent"
	QueueFailed  QueueItemStatus = "failed"
)

// ValidQueueStatus reports whether s names a known queue state.
func ValidQueueStatus(s string) bool {
	switch QueueItemStatus(s) {
	case QueueQueued, QueueSending, QueueSent, QueueFailed:
		return true
	}
	return false
}

// QueueItem is one scheduled dispatch of one suggestion to one chat.
// MessageText is rendered at approval time and sent verbatim later so the
// delivered message matches the admin's preview.
type QueueItem struct {
	ID           string          `json:"id" db:"id"`
	SuggestionID string          `json:"suggestionId" db:"suggestion_id"`
	ChatID       string          `json:"chatId" db:"chat_id"`
	ScheduledAt  time.Time       `json:"scheduledAt" db:"scheduled_at"`
	Status       QueueItemStatus `json:"status" db:"status"`
	MessageText  string          `json:"messageText" db:"message_text"`
	Attempts     int             `json:"attempts" db:"attempts"`
	WAMessageID  *string         `json:"waMessageId" db:"wa_message_id"`
	LastError    *string         `json:"lastError" db:"last_error"`
	SentAt       *time.Time      `json:"sentAt" db:"sent_at"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`

	// ProductName is joined from the suggestion for list views. It is not
	// a column on the queue table.
	ProductName *string `json:"productName" db:"-"`
}

// HistoryStatusSent is the only status a history row carries.
const HistoryStatusSent = "sent"

// PostHistory is the append-only audit trail of delivered messages. It is
// the source of truth for the daily sent count and the dedup window.
type PostHistory struct {
	ID           string    `json:"id" db:"id"`
	SuggestionID *string   `json:"suggestionId" db:"suggestion_id"`
	ItemID       int64     `json:"itemId" db:"item_id"`
	ShopID       *int64    `json:"shopId" db:"shop_id"`
	ChatID       string    `json:"chatId" db:"chat_id"`
	ProductName  string    `json:"productName" db:"product_name"`
	MessageText  string    `json:"messageText" db:"message_text"`
	ShortLink    *string   `json:"shortLink" db:"short_link"`
	WAMessageID  *string   `json:"waMessageId" db:"wa_message_id"`
	Status       string    `json:"status" db:"status"`
	SentAt       time.Time `json:"sentAt" db:"sent_at"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
