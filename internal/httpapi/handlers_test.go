package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alpha-markets/dropgate/internal/paywall"
	"github.com/alpha-markets/dropgate/internal/store"
	"github.com/alpha-markets/dropgate/pkg/types"
)

const (
	sellerWallet = "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2"
	buyerWallet  = "0x5aeda56215b167893e80b4fe645ba6d5bab767de"
)

// okFacilitator approves and settles every payment.
type okFacilitator struct{}

func (okFacilitator) Verify(_ context.Context, _ *types.VerifyRequest) (*types.VerifyResponse, error) {
	return &types.VerifyResponse{IsValid: true}, nil
}

func (okFacilitator) Settle(_ context.Context, _ *types.SettleRequest) (*types.SettleResponse, error) {
	return &types.SettleResponse{Success: true}, nil
}

func newTestMux(t *testing.T) (*http.ServeMux, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	gw := paywall.New(st, okFacilitator{}, paywall.Config{
		Network:           types.NetworkBaseSepolia,
		Asset:             common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
		MaxTimeoutSeconds: 300,
	})
	mux := http.NewServeMux()
	NewApp(st, gw).SetupRoutes(mux)
	return mux, st
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func seedCatalog(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	if w := doJSON(t, mux, http.MethodPost, "/api/sellers", `{"wallet":"`+sellerWallet+`"}`); w.Code != http.StatusCreated {
		t.Fatalf("create seller: status %d: %s", w.Code, w.Body.String())
	}
	payload := `{"seller_wallet":"` + sellerWallet + `","title":"Weekly Alpha","description":"research","content":"the gated words","price_usd":"50"}`
	if w := doJSON(t, mux, http.MethodPost, "/api/products", payload); w.Code != http.StatusCreated {
		t.Fatalf("create product: status %d: %s", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	mux, _ := newTestMux(t)
	w := doJSON(t, mux, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
}

func TestCreateSellerValidation(t *testing.T) {
	mux, _ := newTestMux(t)

	if w := doJSON(t, mux, http.MethodPost, "/api/sellers", `{"wallet":"not-a-wallet"}`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed wallet: status %d, want 400", w.Code)
	}
	if w := doJSON(t, mux, http.MethodPost, "/api/sellers", `{"wallet":"`+sellerWallet+`","bogus":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown field: status %d, want 400", w.Code)
	}

	if w := doJSON(t, mux, http.MethodPost, "/api/sellers", `{"wallet":"`+sellerWallet+`"}`); w.Code != http.StatusCreated {
		t.Fatalf("create: status %d", w.Code)
	}
	if w := doJSON(t, mux, http.MethodPost, "/api/sellers", `{"wallet":"`+sellerWallet+`"}`); w.Code != http.StatusConflict {
		t.Errorf("duplicate: status %d, want 409", w.Code)
	}

	if w := doJSON(t, mux, http.MethodGet, "/api/sellers/"+sellerWallet, ""); w.Code != http.StatusOK {
		t.Errorf("get seller: status %d, want 200", w.Code)
	}
}

func TestProductViewRedactsContent(t *testing.T) {
	mux, _ := newTestMux(t)
	seedCatalog(t, mux)

	for _, path := range []string{"/api/products/1", "/api/sellers/" + sellerWallet + "/products"} {
		w := doJSON(t, mux, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "the gated words") {
			t.Errorf("%s leaks gated content: %s", path, w.Body.String())
		}
	}
}

func TestCreateProductValidation(t *testing.T) {
	mux, _ := newTestMux(t)
	seedCatalog(t, mux)

	cases := map[string]string{
		"missing title":  `{"seller_wallet":"` + sellerWallet + `","description":"d","content":"c","price_usd":"5"}`,
		"zero price":     `{"seller_wallet":"` + sellerWallet + `","title":"t","content":"c","price_usd":"0"}`,
		"negative price": `{"seller_wallet":"` + sellerWallet + `","title":"t","content":"c","price_usd":"-1"}`,
	}
	for name, body := range cases {
		if w := doJSON(t, mux, http.MethodPost, "/api/products", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, w.Code)
		}
	}

	unknown := `{"seller_wallet":"` + buyerWallet + `","title":"t","content":"c","price_usd":"5"}`
	if w := doJSON(t, mux, http.MethodPost, "/api/products", unknown); w.Code != http.StatusNotFound {
		t.Errorf("unknown seller: status %d, want 404", w.Code)
	}
}

func TestPurchaseAndStatsFlow(t *testing.T) {
	mux, _ := newTestMux(t)
	seedCatalog(t, mux)

	purchase := `{"product_id":1,"buyer_wallet":"` + buyerWallet + `"}`
	if w := doJSON(t, mux, http.MethodPost, "/api/purchases", purchase); w.Code != http.StatusCreated {
		t.Fatalf("create purchase: status %d: %s", w.Code, w.Body.String())
	}
	rating := `{"seller_wallet":"` + sellerWallet + `","buyer_wallet":"` + buyerWallet + `","rating":5}`
	if w := doJSON(t, mux, http.MethodPost, "/api/ratings", rating); w.Code != http.StatusCreated {
		t.Fatalf("create rating: status %d: %s", w.Code, w.Body.String())
	}

	w := doJSON(t, mux, http.MethodGet, "/api/sellers/"+sellerWallet+"/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	var stats struct {
		TotalEarned string  `json:"total_earned"`
		Buyers      int     `json:"buyers"`
		AvgStars    float64 `json:"avg_stars"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.TotalEarned != "50" || stats.Buyers != 1 || stats.AvgStars != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	recent := doJSON(t, mux, http.MethodGet, "/api/purchases/recent", "")
	if recent.Code != http.StatusOK {
		t.Fatalf("recent: status %d", recent.Code)
	}
	if strings.Contains(recent.Body.String(), "the gated words") {
		t.Error("recent feed leaks gated content")
	}

	byBuyer := doJSON(t, mux, http.MethodGet, "/api/purchases?buyer="+buyerWallet, "")
	if byBuyer.Code != http.StatusOK {
		t.Fatalf("by buyer: status %d", byBuyer.Code)
	}
	if w := doJSON(t, mux, http.MethodGet, "/api/purchases?buyer=nope", ""); w.Code != http.StatusBadRequest {
		t.Errorf("invalid buyer: status %d, want 400", w.Code)
	}
}

func TestGatewayRoute(t *testing.T) {
	mux, _ := newTestMux(t)
	seedCatalog(t, mux)

	// Without proof the route challenges.
	challenge := doJSON(t, mux, http.MethodGet, "/api/"+sellerWallet+"/1", "")
	if challenge.Code != http.StatusPaymentRequired {
		t.Fatalf("challenge: status %d, want 402: %s", challenge.Code, challenge.Body.String())
	}

	// With proof the stub facilitator approves and content is released.
	req := httptest.NewRequest(http.MethodGet, "/api/"+sellerWallet+"/1", nil)
	req.Header.Set(paywall.PaymentPayloadHeader, `{"x402Version":1,"scheme":"exact","network":"base-sepolia","payload":{"signature":"0x0","authorization":{"from":"`+buyerWallet+`","to":"`+sellerWallet+`","value":"50000000","validAfter":"0","validBefore":"9999999999","nonce":"0x00"}}}`)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("paid request: status %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "the gated words") {
		t.Errorf("paid response missing content: %s", w.Body.String())
	}

	// Literal routes keep precedence over the wallet/id wildcards.
	seller := doJSON(t, mux, http.MethodGet, "/api/sellers/"+sellerWallet, "")
	if seller.Code != http.StatusOK || strings.Contains(seller.Body.String(), "payment_requirements") {
		t.Errorf("seller route shadowed by gateway: status %d: %s", seller.Code, seller.Body.String())
	}
}

func TestRatingValidation(t *testing.T) {
	mux, _ := newTestMux(t)
	seedCatalog(t, mux)

	bad := `{"seller_wallet":"` + sellerWallet + `","buyer_wallet":"` + buyerWallet + `","rating":9}`
	if w := doJSON(t, mux, http.MethodPost, "/api/ratings", bad); w.Code != http.StatusBadRequest {
		t.Errorf("out-of-range rating: status %d, want 400", w.Code)
	}
}
