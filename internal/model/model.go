// Package model defines the marketplace entities the gateway and its data
// layer operate on: sellers, products, purchases and ratings.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller is the owner of zero or more products, identified by a unique
// wallet address.
type Seller struct {
	ID        int64     `json:"id"`
	Wallet    string    `json:"wallet"`
	FID       *int64    `json:"fid,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a priced, sellable unit of text content owned by one seller.
// Content is the gated payload and is opaque to the gateway.
type Product struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Purchase records a completed sale of a product to a buyer wallet.
type Purchase struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	BuyerWallet string          `json:"buyer_wallet"`
	BuyerFID    *int64          `json:"buyer_fid,omitempty"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	CreatedAt   time.Time       `json:"created_at"`
}

// PurchaseWithProduct joins a purchase with the product it bought, as shown
// on the recent-activity feed.
type PurchaseWithProduct struct {
	Purchase
	Product *Product `json:"product,omitempty"`
}

// Rating is a 1-5 star review of a seller left by a buyer.
type Rating struct {
	ID          int64     `json:"id"`
	SellerID    int64     `json:"seller_id"`
	BuyerWallet string    `json:"buyer_wallet"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SellerStats aggregates a seller's sales and ratings for their profile.
type SellerStats struct {
	TotalEarned decimal.Decimal `json:"total_earned"`
	Pending     decimal.Decimal `json:"pending"`
	Buyers      int             `json:"buyers"`
	AvgStars    float64         `json:"avg_stars"`
	TrustTags   []string        `json:"trust_tags"`
}

// DefaultTrustTags are shown on every profile until earned tags exist.
var DefaultTrustTags = []string{"fast replies", "deep research", "base native"}

// CanonicalAmount renders a decimal amount at its stored scale: no
// scientific notation, no rounding, trailing zeros preserved. A price
// stored as 12.50 renders as "12.50"; one stored as 50 renders as "50".
func CanonicalAmount(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}
