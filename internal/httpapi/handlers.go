// Package httpapi exposes the marketplace REST surface and mounts the
// paywall gateway route.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/alpha-markets/dropgate/internal/model"
	"github.com/alpha-markets/dropgate/internal/paywall"
	"github.com/alpha-markets/dropgate/internal/store"
	"github.com/alpha-markets/dropgate/pkg/logx"
	"github.com/alpha-markets/dropgate/pkg/wallet"
)

// recentPurchaseLimit caps the recent-activity feed.
const recentPurchaseLimit = 10

// App wires the store and the gateway into HTTP handlers.
type App struct {
	store   store.Store
	gateway *paywall.Gateway
}

// NewApp creates the HTTP application.
func NewApp(st store.Store, gw *paywall.Gateway) *App {
	return &App{store: st, gateway: gw}
}

// SetupRoutes registers all routes on the mux. Literal segments take
// precedence over the wallet/id wildcards of the gateway route.
func (a *App) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.healthHandler)

	mux.HandleFunc("POST /api/sellers", a.createSellerHandler)
	mux.HandleFunc("GET /api/sellers/{wallet}", a.getSellerHandler)
	mux.HandleFunc("GET /api/sellers/{wallet}/products", a.sellerProductsHandler)
	mux.HandleFunc("GET /api/sellers/{wallet}/ratings", a.sellerRatingsHandler)
	mux.HandleFunc("GET /api/sellers/{wallet}/stats", a.sellerStatsHandler)

	mux.HandleFunc("POST /api/products", a.createProductHandler)
	mux.HandleFunc("GET /api/products/{id}", a.getProductHandler)

	mux.HandleFunc("POST /api/purchases", a.createPurchaseHandler)
	mux.HandleFunc("GET /api/purchases", a.purchasesByBuyerHandler)
	mux.HandleFunc("GET /api/purchases/recent", a.recentPurchasesHandler)

	mux.HandleFunc("POST /api/ratings", a.createRatingHandler)

	mux.HandleFunc("GET /api/{wallet}/{id}", a.gateway.ServeGatedContent)
}

// productView is the public shape of a product. Content is the gated
// payload and is only released through the paywall route.
type productView struct {
	ID          int64           `json:"id"`
	SellerID    int64           `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	CreatedAt   string          `json:"created_at"`
}

func viewProduct(p *model.Product) productView {
	return productView{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Title:       p.Title,
		Description: p.Description,
		PriceUSD:    p.PriceUSD,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type purchaseView struct {
	model.Purchase
	Product *productView `json:"product,omitempty"`
}

func viewPurchases(in []model.PurchaseWithProduct) []purchaseView {
	out := make([]purchaseView, 0, len(in))
	for _, p := range in {
		v := purchaseView{Purchase: p.Purchase}
		if p.Product != nil {
			pv := viewProduct(p.Product)
			v.Product = &pv
		}
		out = append(out, v)
	}
	return out
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) createSellerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet string `json:"wallet"`
		FID    *int64 `json:"fid"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !wallet.IsWellFormed(req.Wallet) {
		respondError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	seller, err := a.store.CreateSeller(r.Context(), store.NewSeller{Wallet: req.Wallet, FID: req.FID})
	if err != nil {
		logx.Error().Err(err).Str("wallet", req.Wallet).Msg("create seller failed")
		respondError(w, http.StatusConflict, "could not create seller")
		return
	}
	respondJSON(w, http.StatusCreated, seller)
}

func (a *App) getSellerHandler(w http.ResponseWriter, r *http.Request) {
	seller, ok := a.resolveSeller(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, seller)
}

func (a *App) sellerProductsHandler(w http.ResponseWriter, r *http.Request) {
	seller, ok := a.resolveSeller(w, r)
	if !ok {
		return
	}

	products, err := a.store.ProductsBySeller(r.Context(), seller.ID)
	if err != nil {
		logx.Error().Err(err).Int64("seller_id", seller.ID).Msg("product listing failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, viewProduct(&products[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

func (a *App) sellerRatingsHandler(w http.ResponseWriter, r *http.Request) {
	seller, ok := a.resolveSeller(w, r)
	if !ok {
		return
	}

	ratings, err := a.store.RatingsBySeller(r.Context(), seller.ID)
	if err != nil {
		logx.Error().Err(err).Int64("seller_id", seller.ID).Msg("rating listing failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ratings == nil {
		ratings = []model.Rating{}
	}
	respondJSON(w, http.StatusOK, ratings)
}

func (a *App) sellerStatsHandler(w http.ResponseWriter, r *http.Request) {
	seller, ok := a.resolveSeller(w, r)
	if !ok {
		return
	}

	stats, err := a.store.SellerStats(r.Context(), seller.ID)
	if err != nil {
		logx.Error().Err(err).Int64("seller_id", seller.ID).Msg("stats aggregation failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (a *App) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SellerWallet string          `json:"seller_wallet"`
		Title        string          `json:"title"`
		Description  string          `json:"description"`
		Content      string          `json:"content"`
		PriceUSD     decimal.Decimal `json:"price_usd"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}
	if !req.PriceUSD.IsPositive() {
		respondError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	seller, err := a.store.SellerByWallet(r.Context(), req.SellerWallet)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "seller not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Str("wallet", req.SellerWallet).Msg("seller lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	product, err := a.store.CreateProduct(r.Context(), store.NewProduct{
		SellerID:    seller.ID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		PriceUSD:    req.PriceUSD,
	})
	if err != nil {
		logx.Error().Err(err).Int64("seller_id", seller.ID).Msg("create product failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, viewProduct(product))
}

func (a *App) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := a.store.ProductByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Int64("product_id", id).Msg("product lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, viewProduct(product))
}

func (a *App) createPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID   int64            `json:"product_id"`
		BuyerWallet string           `json:"buyer_wallet"`
		BuyerFID    *int64           `json:"buyer_fid"`
		AmountUSD   *decimal.Decimal `json:"amount_usd"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !wallet.IsWellFormed(req.BuyerWallet) {
		respondError(w, http.StatusBadRequest, "invalid buyer wallet")
		return
	}

	product, err := a.store.ProductByID(r.Context(), req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Int64("product_id", req.ProductID).Msg("product lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Missing amount defaults to the listed price.
	amount := product.PriceUSD
	if req.AmountUSD != nil {
		amount = *req.AmountUSD
	}

	purchase, err := a.store.CreatePurchase(r.Context(), store.NewPurchase{
		ProductID:   product.ID,
		BuyerWallet: req.BuyerWallet,
		BuyerFID:    req.BuyerFID,
		AmountUSD:   amount,
	})
	if err != nil {
		logx.Error().Err(err).Int64("product_id", product.ID).Msg("create purchase failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, purchase)
}

func (a *App) purchasesByBuyerHandler(w http.ResponseWriter, r *http.Request) {
	buyer := r.URL.Query().Get("buyer")
	if !wallet.IsWellFormed(buyer) {
		respondError(w, http.StatusBadRequest, "invalid buyer wallet")
		return
	}

	purchases, err := a.store.PurchasesByBuyer(r.Context(), buyer)
	if err != nil {
		logx.Error().Err(err).Str("buyer", buyer).Msg("purchase listing failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, viewPurchases(purchases))
}

func (a *App) recentPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	purchases, err := a.store.RecentPurchases(r.Context(), recentPurchaseLimit)
	if err != nil {
		logx.Error().Err(err).Msg("recent purchase listing failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, viewPurchases(purchases))
}

func (a *App) createRatingHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SellerWallet string  `json:"seller_wallet"`
		BuyerWallet  string  `json:"buyer_wallet"`
		Rating       int     `json:"rating"`
		Comment      *string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !wallet.IsWellFormed(req.BuyerWallet) {
		respondError(w, http.StatusBadRequest, "invalid buyer wallet")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	seller, err := a.store.SellerByWallet(r.Context(), req.SellerWallet)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "seller not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Str("wallet", req.SellerWallet).Msg("seller lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rating, err := a.store.CreateRating(r.Context(), store.NewRating{
		SellerID:    seller.ID,
		BuyerWallet: req.BuyerWallet,
		Rating:      req.Rating,
		Comment:     req.Comment,
	})
	if err != nil {
		logx.Error().Err(err).Int64("seller_id", seller.ID).Msg("create rating failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, rating)
}

// resolveSeller loads the seller named by the {wallet} path segment and
// writes the error response itself when that fails.
func (a *App) resolveSeller(w http.ResponseWriter, r *http.Request) (*model.Seller, bool) {
	walletParam := r.PathValue("wallet")
	if !wallet.IsWellFormed(walletParam) {
		respondError(w, http.StatusBadRequest, "invalid wallet address")
		return nil, false
	}

	seller, err := a.store.SellerByWallet(r.Context(), walletParam)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "seller not found")
		return nil, false
	}
	if err != nil {
		logx.Error().Err(err).Str("wallet", walletParam).Msg("seller lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return seller, true
}

// decodeBody parses a JSON request body, rejecting unknown fields. It
// writes the error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
