package paywall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alpha-markets/dropgate/pkg/types"
)

// Facilitator adjudicates proof-of-payment and settles verified payments on
// the target network. The gateway never implements the payment protocol
// itself; any backend satisfying this interface can stand behind it.
type Facilitator interface {
	Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error)
	Settle(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error)
}

// Client talks to a remote facilitator service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a facilitator client for the given base URL.
func NewClient(facilitatorURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(facilitatorURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second, // Prevent indefinite hangs
		},
	}
}

// Verify asks the facilitator whether the payment payload satisfies the
// requirements. This is an off-chain check.
func (c *Client) Verify(ctx context.Context, req *types.VerifyRequest) (*types.VerifyResponse, error) {
	var resp types.VerifyResponse
	if err := c.post(ctx, "/verify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Settle submits the verified payment for on-chain settlement.
func (c *Client) Settle(ctx context.Context, req *types.SettleRequest) (*types.SettleResponse, error) {
	var resp types.SettleResponse
	if err := c.post(ctx, "/settle", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Supported lists the payment kinds the facilitator accepts.
func (c *Client) Supported(ctx context.Context) (*types.SupportedPaymentKindsResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("facilitator request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facilitator returned status %d", httpResp.StatusCode)
	}

	var resp types.SupportedPaymentKindsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("facilitator request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator returned status %d", httpResp.StatusCode)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
