// Package store is the data-access layer over the marketplace tables.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/alpha-markets/dropgate/internal/model"
)

// ErrNotFound is returned when a lookup succeeds but matches no record.
// Callers must treat it differently from a transport or storage failure.
var ErrNotFound = errors.New("record not found")

// NewSeller carries the fields needed to register a seller.
type NewSeller struct {
	Wallet string
	FID    *int64
}

// NewProduct carries the fields needed to publish a product.
type NewProduct struct {
	SellerID    int64
	Title       string
	Description string
	Content     string
	PriceUSD    decimal.Decimal
}

// NewPurchase carries the fields needed to record a completed sale.
type NewPurchase struct {
	ProductID   int64
	BuyerWallet string
	BuyerFID    *int64
	AmountUSD   decimal.Decimal
}

// NewRating carries the fields needed to review a seller.
type NewRating struct {
	SellerID    int64
	BuyerWallet string
	Rating      int
	Comment     *string
}

// Store is the interface the gateway and REST handlers depend on. Absence
// is reported with ErrNotFound; any other error is a storage failure.
type Store interface {
	CreateSeller(ctx context.Context, s NewSeller) (*model.Seller, error)
	SellerByWallet(ctx context.Context, wallet string) (*model.Seller, error)
	SellerByFID(ctx context.Context, fid int64) (*model.Seller, error)

	CreateProduct(ctx context.Context, p NewProduct) (*model.Product, error)
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	ProductsBySeller(ctx context.Context, sellerID int64) ([]model.Product, error)

	CreatePurchase(ctx context.Context, p NewPurchase) (*model.Purchase, error)
	PurchasesByBuyer(ctx context.Context, buyerWallet string) ([]model.PurchaseWithProduct, error)
	PurchasesByProduct(ctx context.Context, productID int64) ([]model.Purchase, error)
	RecentPurchases(ctx context.Context, limit int) ([]model.PurchaseWithProduct, error)

	CreateRating(ctx context.Context, r NewRating) (*model.Rating, error)
	RatingsBySeller(ctx context.Context, sellerID int64) ([]model.Rating, error)

	SellerStats(ctx context.Context, sellerID int64) (*model.SellerStats, error)
}
