package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func seedSeller(t *testing.T, m *Memory, wallet string) int64 {
	t.Helper()
	seller, err := m.CreateSeller(context.Background(), NewSeller{Wallet: wallet})
	if err != nil {
		t.Fatalf("CreateSeller: %v", err)
	}
	return seller.ID
}

func seedProduct(t *testing.T, m *Memory, sellerID int64, title, price string) int64 {
	t.Helper()
	product, err := m.CreateProduct(context.Background(), NewProduct{
		SellerID:    sellerID,
		Title:       title,
		Description: "desc",
		Content:     "content of " + title,
		PriceUSD:    decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return product.ID
}

func TestSellerLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id := seedSeller(t, m, "0xabc")

	seller, err := m.SellerByWallet(ctx, "0xabc")
	if err != nil {
		t.Fatalf("SellerByWallet: %v", err)
	}
	if seller.ID != id {
		t.Errorf("id = %d, want %d", seller.ID, id)
	}

	if _, err := m.SellerByWallet(ctx, "0xmissing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing seller: got %v, want ErrNotFound", err)
	}

	// Wallet uniqueness.
	if _, err := m.CreateSeller(ctx, NewSeller{Wallet: "0xabc"}); err == nil {
		t.Error("duplicate wallet accepted")
	}
}

func TestSellerByFID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	fid := int64(42)
	if _, err := m.CreateSeller(ctx, NewSeller{Wallet: "0xabc", FID: &fid}); err != nil {
		t.Fatalf("CreateSeller: %v", err)
	}

	seller, err := m.SellerByFID(ctx, 42)
	if err != nil {
		t.Fatalf("SellerByFID: %v", err)
	}
	if seller.Wallet != "0xabc" {
		t.Errorf("wallet = %q", seller.Wallet)
	}

	if _, err := m.SellerByFID(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing fid: got %v, want ErrNotFound", err)
	}
}

func TestProductLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sellerID := seedSeller(t, m, "0xabc")
	productID := seedProduct(t, m, sellerID, "Alpha Report", "12.50")

	product, err := m.ProductByID(ctx, productID)
	if err != nil {
		t.Fatalf("ProductByID: %v", err)
	}
	if product.Title != "Alpha Report" || !product.PriceUSD.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("unexpected product: %+v", product)
	}

	if _, err := m.ProductByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing product: got %v, want ErrNotFound", err)
	}

	// Products need an existing seller.
	if _, err := m.CreateProduct(ctx, NewProduct{SellerID: 999, Title: "x"}); err == nil {
		t.Error("orphan product accepted")
	}

	products, err := m.ProductsBySeller(ctx, sellerID)
	if err != nil {
		t.Fatalf("ProductsBySeller: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("len = %d, want 1", len(products))
	}
}

func TestPurchasesAndRecentFeed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sellerID := seedSeller(t, m, "0xseller")
	productID := seedProduct(t, m, sellerID, "Weekly Alpha", "50")

	for i := 0; i < 3; i++ {
		_, err := m.CreatePurchase(ctx, NewPurchase{
			ProductID:   productID,
			BuyerWallet: "0xbuyer",
			AmountUSD:   decimal.RequireFromString("50"),
		})
		if err != nil {
			t.Fatalf("CreatePurchase: %v", err)
		}
	}

	byBuyer, err := m.PurchasesByBuyer(ctx, "0xbuyer")
	if err != nil {
		t.Fatalf("PurchasesByBuyer: %v", err)
	}
	if len(byBuyer) != 3 {
		t.Errorf("buyer purchases = %d, want 3", len(byBuyer))
	}
	if byBuyer[0].Product == nil || byBuyer[0].Product.Title != "Weekly Alpha" {
		t.Error("purchase not joined with product")
	}

	recent, err := m.RecentPurchases(ctx, 2)
	if err != nil {
		t.Fatalf("RecentPurchases: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("recent = %d, want limit 2", len(recent))
	}

	byProduct, err := m.PurchasesByProduct(ctx, productID)
	if err != nil {
		t.Fatalf("PurchasesByProduct: %v", err)
	}
	if len(byProduct) != 3 {
		t.Errorf("product purchases = %d, want 3", len(byProduct))
	}
}

func TestRatings(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sellerID := seedSeller(t, m, "0xseller")

	if _, err := m.CreateRating(ctx, NewRating{SellerID: sellerID, BuyerWallet: "0xb", Rating: 6}); err == nil {
		t.Error("out-of-range rating accepted")
	}

	for _, stars := range []int{5, 3} {
		if _, err := m.CreateRating(ctx, NewRating{SellerID: sellerID, BuyerWallet: "0xb", Rating: stars}); err != nil {
			t.Fatalf("CreateRating: %v", err)
		}
	}

	ratings, err := m.RatingsBySeller(ctx, sellerID)
	if err != nil {
		t.Fatalf("RatingsBySeller: %v", err)
	}
	if len(ratings) != 2 {
		t.Errorf("ratings = %d, want 2", len(ratings))
	}
}

func TestSellerStats(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	sellerID := seedSeller(t, m, "0xseller")
	productID := seedProduct(t, m, sellerID, "Weekly Alpha", "50")
	otherSeller := seedSeller(t, m, "0xother")
	otherProduct := seedProduct(t, m, otherSeller, "Other Drop", "10")

	// Two purchases from the same buyer plus one from another buyer.
	for _, buyer := range []string{"0xbuyer1", "0xbuyer1", "0xbuyer2"} {
		if _, err := m.CreatePurchase(ctx, NewPurchase{
			ProductID:   productID,
			BuyerWallet: buyer,
			AmountUSD:   decimal.RequireFromString("50"),
		}); err != nil {
			t.Fatalf("CreatePurchase: %v", err)
		}
	}
	// A sale for another seller must not count.
	if _, err := m.CreatePurchase(ctx, NewPurchase{
		ProductID:   otherProduct,
		BuyerWallet: "0xbuyer1",
		AmountUSD:   decimal.RequireFromString("10"),
	}); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	for _, stars := range []int{5, 4} {
		if _, err := m.CreateRating(ctx, NewRating{SellerID: sellerID, BuyerWallet: "0xb", Rating: stars}); err != nil {
			t.Fatalf("CreateRating: %v", err)
		}
	}

	stats, err := m.SellerStats(ctx, sellerID)
	if err != nil {
		t.Fatalf("SellerStats: %v", err)
	}
	if !stats.TotalEarned.Equal(decimal.RequireFromString("150")) {
		t.Errorf("total earned = %s, want 150", stats.TotalEarned)
	}
	if stats.Buyers != 2 {
		t.Errorf("buyers = %d, want 2", stats.Buyers)
	}
	if stats.AvgStars != 4.5 {
		t.Errorf("avg stars = %f, want 4.5", stats.AvgStars)
	}

	// The other seller sees only its own sale and no ratings.
	empty, err := m.SellerStats(ctx, otherSeller)
	if err != nil {
		t.Fatalf("SellerStats: %v", err)
	}
	if empty.AvgStars != 0 || empty.Buyers != 1 {
		t.Errorf("unexpected stats for other seller: %+v", empty)
	}
}
