package domain

import "encoding/json"

// CatalogProduct is one node returned by the upstream affiliate catalog.
// Everything except ItemID and ProductName is optional; numeric-looking
// fields arrive as strings with either comma or dot decimals and are kept
// verbatim. Raw holds the node exactly as received for auditing.
type CatalogProduct struct {
	ItemID            int64           `json:"itemId"`
	ShopID            *int64          `json:"shopId"`
	ProductName       string          `json:"productName"`
	ImageURL          *string         `json:"imageUrl"`
	PriceMin          *string         `json:"priceMin"`
	PriceMax          *string         `json:"priceMax"`
	ProductLink       *string         `json:"productLink"`
	OfferLink         *string         `json:"offerLink"`
	ShopName          *string         `json:"shopName"`
	CommissionRate    *string         `json:"commissionRate"`
	RatingStar        *string         `json:"ratingStar"`
	Sales             *int64          `json:"sales"`
	PriceDiscountRate *int64          `json:"priceDiscountRate"`
	Raw               json.RawMessage `json:"-"`
}

// SessionStatus is the messaging bridge's session state.
type SessionStatus struct {
	Status  string `json:"status"`
	IsReady bool   `json:"isReady"`
}

// SendReceipt is returned by the messaging bridge after a successful send.
type SendReceipt struct {
	MessageID *string `json:"messageId"`
}
