// Package paywall implements the pay-per-access content gateway. A gated
// request names a seller wallet and a product id; the gateway resolves
// both, publishes what must be paid to whom, and releases the product
// content only after the facilitator confirms payment.
package paywall

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alpha-markets/dropgate/internal/model"
	"github.com/alpha-markets/dropgate/internal/store"
	"github.com/alpha-markets/dropgate/pkg/logx"
	"github.com/alpha-markets/dropgate/pkg/types"
	"github.com/alpha-markets/dropgate/pkg/wallet"
)

// Request headers carrying payment state, shared with the paying client.
const (
	PaymentPayloadHeader  = "X-Payment-Payload"
	PaymentRequiredHeader = "X-Payment-Required"
	PaymentResponseHeader = "X-Payment-Response"
)

// gatedOutputSchema declares the exact shape of a paid response so a payer
// can predict it before paying. Content, title and description, nothing
// else.
var gatedOutputSchema = json.RawMessage(`{"type":"object","properties":{"content":{"type":"string"},"title":{"type":"string"},"description":{"type":"string"}}}`)

// Config carries the settlement parameters injected at construction time.
type Config struct {
	Network           types.Network
	Asset             common.Address
	MaxTimeoutSeconds int
}

// Gateway gates product content behind verified payment. It holds no
// per-request state; every invocation is independent.
type Gateway struct {
	store       store.Store
	facilitator Facilitator
	cfg         Config
}

// New creates a gateway over the given store and facilitator.
func New(st store.Store, fac Facilitator, cfg Config) *Gateway {
	return &Gateway{store: st, facilitator: fac, cfg: cfg}
}

// gatedResponse is the paid response body. Exactly the three declared
// fields, with content unredacted.
type gatedResponse struct {
	Content     string `json:"content"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ServeGatedContent handles GET /api/{wallet}/{id}. Each step short-circuits
// on failure: malformed input never reaches the store, and an unknown
// seller never triggers a product lookup or payment check.
func (g *Gateway) ServeGatedContent(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	sellerWallet := r.PathValue("wallet")
	if !wallet.IsWellFormed(sellerWallet) {
		respondError(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	ctx := r.Context()

	seller, err := g.store.SellerByWallet(ctx, sellerWallet)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "seller not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Str("wallet", sellerWallet).Msg("seller lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	product, err := g.store.ProductByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		logx.Error().Err(err).Int64("product_id", productID).Msg("product lookup failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	requirements := g.Requirements(seller, product, r.URL.Path)

	paymentHeader := r.Header.Get(PaymentPayloadHeader)
	if paymentHeader == "" {
		// No proof supplied; challenge the caller.
		send402(w, &requirements, "")
		return
	}

	var payload types.PaymentPayload
	if err := json.Unmarshal([]byte(paymentHeader), &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment payload")
		return
	}

	verifyResp, err := g.facilitator.Verify(ctx, &types.VerifyRequest{
		X402Version:         1,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
	})
	if err != nil {
		logx.Error().Err(err).Int64("product_id", productID).Msg("payment verification failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !verifyResp.IsValid {
		send402(w, &requirements, verifyResp.Reason)
		return
	}

	settleResp, err := g.facilitator.Settle(ctx, &types.SettleRequest{
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
	})
	if err != nil {
		logx.Error().Err(err).Int64("product_id", productID).Msg("payment settlement failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !settleResp.Success {
		send402(w, &requirements, settleResp.Error)
		return
	}

	if settlement, err := json.Marshal(settleResp); err == nil {
		w.Header().Set(PaymentResponseHeader, string(settlement))
	}
	respondJSON(w, http.StatusOK, gatedResponse{
		Content:     product.Content,
		Title:       product.Title,
		Description: product.Description,
	})
}

// Requirements builds the payment-requirement descriptor for a product. The
// amount keeps the stored decimal precision and the payee is the seller's
// checksummed wallet.
func (g *Gateway) Requirements(seller *model.Seller, product *model.Product, resource string) types.PaymentRequirements {
	description := product.Title
	if description == "" {
		description = "Product Access"
	}
	return types.PaymentRequirements{
		Version:           types.X402VersionV1,
		Scheme:            types.SchemeExact,
		Network:           g.cfg.Network,
		PayTo:             wallet.Checksum(seller.Wallet),
		MaxAmountRequired: model.CanonicalAmount(product.PriceUSD),
		Resource:          resource,
		Description:       description,
		MimeType:          "application/json",
		MaxTimeoutSeconds: g.cfg.MaxTimeoutSeconds,
		Asset:             g.cfg.Asset,
		OutputSchema:      gatedOutputSchema,
	}
}

// send402 writes a Payment Required challenge carrying the requirements in
// both a header and the body.
func send402(w http.ResponseWriter, requirements *types.PaymentRequirements, reason string) {
	reqJSON, _ := json.Marshal(requirements)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(PaymentRequiredHeader, string(reqJSON))
	w.WriteHeader(http.StatusPaymentRequired)

	response := map[string]any{
		"error":                "payment required",
		"payment_requirements": requirements,
	}
	if reason != "" {
		response["reason"] = reason
	}
	_ = json.NewEncoder(w).Encode(response)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
