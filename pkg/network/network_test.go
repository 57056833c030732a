package network

import (
	"testing"

	"github.com/alpha-markets/dropgate/pkg/types"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"12.50", 6, "12500000"},
		{"50", 6, "50000000"},
		{"0.025", 6, "25000"},
		{"0.000001", 6, "1"},
		{"0", 6, "0"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.amount, tc.decimals)
		if err != nil {
			t.Errorf("ParseAmount(%q, %d): %v", tc.amount, tc.decimals, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("ParseAmount(%q, %d) = %s, want %s", tc.amount, tc.decimals, got, tc.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, amount := range []string{"abc", "", "-1", "0.0000001", "1e3x"} {
		if _, err := ParseAmount(amount, 6); err == nil {
			t.Errorf("ParseAmount(%q) accepted invalid amount", amount)
		}
	}
}

func TestGetUSDCDeployment(t *testing.T) {
	dep, err := GetUSDCDeployment(types.NetworkBaseSepolia)
	if err != nil {
		t.Fatalf("GetUSDCDeployment: %v", err)
	}
	if dep.TokenSymbol != "USDC" || dep.Decimals != 6 {
		t.Errorf("unexpected deployment: %+v", dep)
	}

	if _, err := GetUSDCDeployment(types.NetworkSolana); err == nil {
		t.Error("expected error for network without USDC deployment")
	}
}

func TestGetNetworkInfo(t *testing.T) {
	info, err := GetNetworkInfo(types.NetworkBase)
	if err != nil {
		t.Fatalf("GetNetworkInfo: %v", err)
	}
	if info.ChainID != ChainIDBase || !info.IsEVM {
		t.Errorf("unexpected info: %+v", info)
	}

	if _, err := GetNetworkInfo(types.Network("no-such-chain")); err == nil {
		t.Error("expected error for unknown network")
	}
}
