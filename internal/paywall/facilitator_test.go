package paywall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alpha-markets/dropgate/pkg/types"
)

func TestClientVerify(t *testing.T) {
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")

		var req types.VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode verify request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(types.VerifyResponse{IsValid: true})
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/") // trailing slash is trimmed
	resp, err := client.Verify(context.Background(), &types.VerifyRequest{X402Version: 1})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !resp.IsValid {
		t.Error("expected valid response")
	}
	if gotPath != "/verify" {
		t.Errorf("path = %q, want /verify", gotPath)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestClientSettle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settle" {
			t.Errorf("path = %q, want /settle", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(types.SettleResponse{
			Success:         true,
			TransactionHash: &types.TransactionHash{Type: "evm", Hash: "0xabc"},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Settle(context.Background(), &types.SettleRequest{})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if !resp.Success || resp.TransactionHash == nil || resp.TransactionHash.Hash != "0xabc" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClientNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Verify(context.Background(), &types.VerifyRequest{}); err == nil {
		t.Fatal("expected error on 500")
	}
	if _, err := NewClient(srv.URL).Supported(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}
}
