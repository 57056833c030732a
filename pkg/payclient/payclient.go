// Package payclient is an HTTP client that transparently pays dropgate
// paywalls: on a 402 it reads the published payment requirements, signs a
// USDC transfer authorization and retries the request with proof attached.
package payclient

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/alpha-markets/dropgate/pkg/network"
	"github.com/alpha-markets/dropgate/pkg/types"
)

// Header names shared with the gateway.
const (
	paymentPayloadHeader  = "X-Payment-Payload"
	paymentRequiredHeader = "X-Payment-Required"
)

// PayingClient is an HTTP client that automatically answers payment
// challenges.
type PayingClient struct {
	client     *http.Client
	signer     *ecdsa.PrivateKey
	signerAddr common.Address
}

// New creates a client signing payments with the given private key.
func New(privateKeyHex string) (*PayingClient, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}

	return &PayingClient{
		client:     &http.Client{Timeout: 60 * time.Second},
		signer:     privateKey,
		signerAddr: crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Address returns the buyer's wallet address.
func (c *PayingClient) Address() common.Address {
	return c.signerAddr
}

// Get performs a GET request, paying the challenge if one comes back.
func (c *PayingClient) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do executes an HTTP request with automatic payment handling.
func (c *PayingClient) Do(req *http.Request) (*http.Response, error) {
	// First, try the request without payment.
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	requirements, err := parseRequirements(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment requirements: %w", err)
	}

	payload, err := c.buildPayload(requirements)
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment: %w", err)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}

	retryReq := req.Clone(req.Context())
	retryReq.Header.Set(paymentPayloadHeader, string(payloadJSON))
	return c.client.Do(retryReq)
}

// parseRequirements extracts payment requirements from a 402 response,
// preferring the header over the body.
func parseRequirements(resp *http.Response) (*types.PaymentRequirements, error) {
	if header := resp.Header.Get(paymentRequiredHeader); header != "" {
		var requirements types.PaymentRequirements
		if err := json.Unmarshal([]byte(header), &requirements); err == nil {
			return &requirements, nil
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var challenge struct {
		PaymentRequirements types.PaymentRequirements `json:"payment_requirements"`
	}
	if err := json.Unmarshal(body, &challenge); err != nil {
		return nil, err
	}
	return &challenge.PaymentRequirements, nil
}

// buildPayload signs a transfer authorization satisfying the requirements.
// The published amount is a USD decimal string; it is converted to the
// token's smallest unit before signing.
func (c *PayingClient) buildPayload(requirements *types.PaymentRequirements) (*types.PaymentPayload, error) {
	if !requirements.Network.IsEVM() {
		return nil, fmt.Errorf("unsupported network: %s", requirements.Network)
	}

	deployment, err := network.GetUSDCDeployment(requirements.Network)
	if err != nil {
		return nil, err
	}
	value, err := network.ParseAmount(requirements.MaxAmountRequired, deployment.Decimals)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Validity window of 1 hour.
	now := time.Now().Unix()
	auth := types.ExactEvmPayloadAuthorization{
		From:        c.signerAddr,
		To:          common.HexToAddress(requirements.PayTo),
		Value:       value.String(),
		ValidAfter:  fmt.Sprintf("%d", now),
		ValidBefore: fmt.Sprintf("%d", now+3600),
		Nonce:       "0x" + hex.EncodeToString(nonce),
	}

	signature, err := c.signEIP712(&auth, requirements.Asset.Hex(), requirements.Network)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	return &types.PaymentPayload{
		X402Version: 1,
		Scheme:      types.SchemeExact,
		Network:     requirements.Network,
		Payload: types.ExactEvmPayload{
			Signature:     "0x" + hex.EncodeToString(signature),
			Authorization: auth,
		},
	}, nil
}

// signEIP712 signs the authorization with EIP-712.
func (c *PayingClient) signEIP712(auth *types.ExactEvmPayloadAuthorization, tokenAddress string, net types.Network) ([]byte, error) {
	info, err := network.GetNetworkInfo(net)
	if err != nil {
		return nil, err
	}
	chainID := new(big.Int).SetUint64(uint64(info.ChainID))

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": []apitypes.Type{
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              "USD Coin",
			Version:           "2",
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: tokenAddress,
		},
		Message: apitypes.TypedDataMessage{
			"from":        auth.From.Hex(),
			"to":          auth.To.Hex(),
			"value":       auth.Value,
			"validAfter":  auth.ValidAfter,
			"validBefore": auth.ValidBefore,
			"nonce":       auth.Nonce,
		},
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	hash := crypto.Keccak256Hash(rawData)

	signature, err := crypto.Sign(hash.Bytes(), c.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// Adjust V value
	if signature[64] < 27 {
		signature[64] += 27
	}
	return signature, nil
}
