package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alpha-markets/dropgate/internal/model"
)

// Memory is an in-memory Store used in development and tests. All methods
// are safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	sellers   map[int64]model.Seller
	products  map[int64]model.Product
	purchases map[int64]model.Purchase
	ratings   map[int64]model.Rating

	nextSeller   int64
	nextProduct  int64
	nextPurchase int64
	nextRating   int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sellers:   make(map[int64]model.Seller),
		products:  make(map[int64]model.Product),
		purchases: make(map[int64]model.Purchase),
		ratings:   make(map[int64]model.Rating),
	}
}

func (m *Memory) CreateSeller(_ context.Context, s NewSeller) (*model.Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sellers {
		if existing.Wallet == s.Wallet {
			return nil, fmt.Errorf("seller with wallet %s already exists", s.Wallet)
		}
	}

	m.nextSeller++
	seller := model.Seller{
		ID:        m.nextSeller,
		Wallet:    s.Wallet,
		FID:       s.FID,
		CreatedAt: time.Now().UTC(),
	}
	m.sellers[seller.ID] = seller
	return &seller, nil
}

func (m *Memory) SellerByWallet(_ context.Context, wallet string) (*model.Seller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sellers {
		if s.Wallet == wallet {
			seller := s
			return &seller, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SellerByFID(_ context.Context, fid int64) (*model.Seller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.sellers {
		if s.FID != nil && *s.FID == fid {
			seller := s
			return &seller, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateProduct(_ context.Context, p NewProduct) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sellers[p.SellerID]; !ok {
		return nil, fmt.Errorf("seller %d does not exist", p.SellerID)
	}

	m.nextProduct++
	product := model.Product{
		ID:          m.nextProduct,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		Content:     p.Content,
		PriceUSD:    p.PriceUSD,
		CreatedAt:   time.Now().UTC(),
	}
	m.products[product.ID] = product
	return &product, nil
}

func (m *Memory) ProductByID(_ context.Context, id int64) (*model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ProductsBySeller(_ context.Context, sellerID int64) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Product
	for _, p := range m.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreatePurchase(_ context.Context, p NewPurchase) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ProductID]; !ok {
		return nil, fmt.Errorf("product %d does not exist", p.ProductID)
	}

	m.nextPurchase++
	purchase := model.Purchase{
		ID:          m.nextPurchase,
		ProductID:   p.ProductID,
		BuyerWallet: p.BuyerWallet,
		BuyerFID:    p.BuyerFID,
		AmountUSD:   p.AmountUSD,
		CreatedAt:   time.Now().UTC(),
	}
	m.purchases[purchase.ID] = purchase
	return &purchase, nil
}

func (m *Memory) PurchasesByBuyer(_ context.Context, buyerWallet string) ([]model.PurchaseWithProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PurchaseWithProduct
	for _, p := range m.purchases {
		if p.BuyerWallet != buyerWallet {
			continue
		}
		out = append(out, m.withProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) PurchasesByProduct(_ context.Context, productID int64) ([]model.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Purchase
	for _, p := range m.purchases {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) RecentPurchases(_ context.Context, limit int) ([]model.PurchaseWithProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.PurchaseWithProduct, 0, len(m.purchases))
	for _, p := range m.purchases {
		out = append(out, m.withProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateRating(_ context.Context, r NewRating) (*model.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sellers[r.SellerID]; !ok {
		return nil, fmt.Errorf("seller %d does not exist", r.SellerID)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return nil, fmt.Errorf("rating %d out of range", r.Rating)
	}

	m.nextRating++
	rating := model.Rating{
		ID:          m.nextRating,
		SellerID:    r.SellerID,
		BuyerWallet: r.BuyerWallet,
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   time.Now().UTC(),
	}
	m.ratings[rating.ID] = rating
	return &rating, nil
}

func (m *Memory) RatingsBySeller(_ context.Context, sellerID int64) ([]model.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Rating
	for _, r := range m.ratings {
		if r.SellerID == sellerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SellerStats(_ context.Context, sellerID int64) (*model.SellerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	buyers := make(map[string]struct{})
	for _, p := range m.purchases {
		product, ok := m.products[p.ProductID]
		if !ok || product.SellerID != sellerID {
			continue
		}
		total = total.Add(p.AmountUSD)
		buyers[p.BuyerWallet] = struct{}{}
	}

	var stars, count int
	for _, r := range m.ratings {
		if r.SellerID == sellerID {
			stars += r.Rating
			count++
		}
	}
	avg := 0.0
	if count > 0 {
		avg = float64(stars) / float64(count)
	}

	return &model.SellerStats{
		TotalEarned: total,
		Pending:     decimal.Zero,
		Buyers:      len(buyers),
		AvgStars:    avg,
		TrustTags:   model.DefaultTrustTags,
	}, nil
}

// withProduct joins a purchase with its product. Callers must hold the lock.
func (m *Memory) withProduct(p model.Purchase) model.PurchaseWithProduct {
	joined := model.PurchaseWithProduct{Purchase: p}
	if product, ok := m.products[p.ProductID]; ok {
		joined.Product = &product
	}
	return joined
}
