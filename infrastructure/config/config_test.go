package config

import "testing"

func TestResolveNetworkDefaultsToMainnet(t *testing.T) {
	var n NetworkFlags
	if err := n.ResolveNetwork(); err != nil {
		t.Fatalf("ResolveNetwork: %v", err)
	}
	if n.ActiveNetParams == nil || n.ActiveNetParams.Name != "mainnet" {
		t.Fatalf("got %v, want mainnet", n.ActiveNetParams)
	}
}

func TestResolveNetworkSelectsFlag(t *testing.T) {
	n := NetworkFlags{Regtest: true}
	if err := n.ResolveNetwork(); err != nil {
		t.Fatalf("ResolveNetwork: %v", err)
	}
	if n.ActiveNetParams.Name != "regtest" {
		t.Fatalf("got %s, want regtest", n.ActiveNetParams.Name)
	}
}

func TestResolveNetworkRejectsMultipleFlags(t *testing.T) {
	n := NetworkFlags{Testnet: true, Regtest: true}
	if err := n.ResolveNetwork(); err == nil {
		t.Fatalf("expected an error for mutually exclusive network flags")
	}
}

func TestConfigPolicy(t *testing.T) {
	cfg := &Config{
		BlockMaxWeight: 1_000_000,
		BlockMinTxFee:  5,
		BlockVersion:   3,
		PrintPriority:  true,
	}
	policy := cfg.Policy()
	if policy.BlockMaxWeight != cfg.BlockMaxWeight {
		t.Fatalf("BlockMaxWeight = %d, want %d", policy.BlockMaxWeight, cfg.BlockMaxWeight)
	}
	if policy.BlockMinTxFee != cfg.BlockMinTxFee {
		t.Fatalf("BlockMinTxFee = %d, want %d", policy.BlockMinTxFee, cfg.BlockMinTxFee)
	}
	if policy.BlockVersion != cfg.BlockVersion {
		t.Fatalf("BlockVersion = %d, want %d", policy.BlockVersion, cfg.BlockVersion)
	}
	if !policy.PrintPriority {
		t.Fatalf("PrintPriority not propagated")
	}
}
