// Package wallet parses and validates the wallet-address identifiers used
// throughout the marketplace: EVM hex addresses and Solana base58 public keys.
package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	solana "github.com/gagliardetto/solana-go"

	"github.com/alpha-markets/dropgate/pkg/types"
)

// Parse validates a raw wallet address string and classifies it by chain.
// EVM addresses are returned in EIP-55 checksummed form; Solana addresses
// are returned as given after base58 validation.
func Parse(raw string) (types.MixedAddress, error) {
	if raw == "" {
		return types.MixedAddress{}, fmt.Errorf("empty wallet address")
	}

	if common.IsHexAddress(raw) {
		return types.NewEvmAddress(common.HexToAddress(raw)), nil
	}

	if pk, err := solana.PublicKeyFromBase58(raw); err == nil {
		return types.NewSolanaAddress(pk.String()), nil
	}

	return types.MixedAddress{}, fmt.Errorf("malformed wallet address %q", raw)
}

// IsWellFormed reports whether raw is a parseable wallet address on any
// supported chain.
func IsWellFormed(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// Checksum returns the canonical form of an EVM address. Non-EVM input is
// returned unchanged.
func Checksum(raw string) string {
	if common.IsHexAddress(raw) {
		return common.HexToAddress(raw).Hex()
	}
	return raw
}
