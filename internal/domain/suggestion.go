package domain

import (
	"encoding/json"
	"time"
)

// SuggestionStatus enumerates the lifecycle states of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionQueued   SuggestionStatus = "queued"
	SuggestionSent     SuggestionStatus = "sent"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionFailed   SuggestionStatus = "failed"
)

// OpenSuggestionStatuses are the states that block a repeat of the same
// item id within the dedup window.
var OpenSuggestionStatuses = []SuggestionStatus{
	SuggestionPending,
	SuggestionApproved,
	SuggestionQueued,
}

// ValidSuggestionStatus reports whether s names a known lifecycle state.
func ValidSuggestionStatus(s string) bool {
	switch SuggestionStatus(s) {
	case SuggestionPending, SuggestionApproved, SuggestionQueued,
		SuggestionSent, SuggestionRejected, SuggestionFailed:
		return true
	}
	return false
}

// ApprovedAction records which approval path an admin took.
type ApprovedAction string

const (
	ActionSchedule ApprovedAction = "schedule"
	ActionSendNow  ApprovedAction = "send_now"
)

// Suggestion is a candidate product materialized from a catalog node,
// awaiting human disposition. Price fields keep the upstream string form;
// FormattedPrice is the localized rendering computed at creation.
type Suggestion struct {
	ID                string           `json:"id" db:"id"`
	SourceKeyword     string           `json:"sourceKeyword" db:"source_keyword"`
	ItemID            int64            `json:"itemId" db:"item_id"`
	ShopID            *int64           `json:"shopId" db:"shop_id"`
	ProductName       string           `json:"productName" db:"product_name"`
	ImageURL          *string          `json:"imageUrl" db:"image_url"`
	PriceMin          *string          `json:"priceMin" db:"price_min"`
	PriceMax          *string          `json:"priceMax" db:"price_max"`
	FormattedPrice    *string          `json:"formattedPrice" db:"formatted_price"`
	ProductLink       *string          `json:"productLink" db:"product_link"`
	OfferLink         *string          `json:"offerLink" db:"offer_link"`
	ShortLink         *string          `json:"shortLink" db:"short_link"`
	CommissionRate    *string          `json:"commissionRate" db:"commission_rate"`
	RatingStar        *string          `json:"ratingStar" db:"rating_star"`
	Sales             *int64           `json:"sales" db:"sales"`
	Score             float64          `json:"score" db:"score"`
	Status            SuggestionStatus `json:"status" db:"status"`
	ApprovedAction    *ApprovedAction  `json:"approvedAction" db:"approved_action"`
	RejectionReason   *string          `json:"rejectionReason" db:"rejection_reason"`
	QueueScheduledFor *time.Time       `json:"queueScheduledFor" db:"queue_scheduled_for"`
	LastError         *string          `json:"lastError" db:"last_error"`
	RawPayload        json.RawMessage  `json:"rawPayload,omitempty" db:"raw_payload"`
	ApprovedAt        *time.Time       `json:"approvedAt" db:"approved_at"`
	SentAt            *time.Time       `json:"sentAt" db:"sent_at"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
}

// IsTerminal returns true once no further transition is possible.
func (s *Suggestion) IsTerminal() bool {
	return s.Status == SuggestionSent || s.Status == SuggestionRejected || s.Status == SuggestionFailed
}

// BestLink returns the link used for short-link generation, preferring the
// product page over the offer page. ok is false when neither is set.
func (s *Suggestion) BestLink() (string, bool) {
	if s.ProductLink != nil && *s.ProductLink != "" {
		return *s.ProductLink, true
	}
	if s.OfferLink != nil && *s.OfferLink != "" {
		return *s.OfferLink, true
	}
	return "", false
}
