package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseEvmAddress(t *testing.T) {
	raw := "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2"
	addr, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	if addr.Type != "evm" {
		t.Errorf("type = %q, want evm", addr.Type)
	}
	if want := common.HexToAddress(raw).Hex(); addr.Address != want {
		t.Errorf("address = %q, want checksummed %q", addr.Address, want)
	}
}

func TestParseSolanaAddress(t *testing.T) {
	raw := "11111111111111111111111111111111" // system program
	addr, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	if addr.Type != "solana" {
		t.Errorf("type = %q, want solana", addr.Type)
	}
	if addr.Address != raw {
		t.Errorf("address = %q, want %q", addr.Address, raw)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "hello", "0x123", "0xZZcb81e51011b549d78bf720b0d924ac763a7c2", "!!!"} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) accepted malformed address", raw)
		}
		if IsWellFormed(raw) {
			t.Errorf("IsWellFormed(%q) = true", raw)
		}
	}
}

func TestChecksum(t *testing.T) {
	raw := "0x1b3cb81e51011b549d78bf720b0d924ac763a7c2"
	if got, want := Checksum(raw), common.HexToAddress(raw).Hex(); got != want {
		t.Errorf("Checksum(%q) = %q, want %q", raw, got, want)
	}
	// Non-EVM input passes through untouched.
	if got := Checksum("11111111111111111111111111111111"); got != "11111111111111111111111111111111" {
		t.Errorf("Checksum changed solana address: %q", got)
	}
}
