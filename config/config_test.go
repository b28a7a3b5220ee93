package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
Owner = "0x0101010101010101010101010101010101010101"
Vault = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" || cfg.DataDir != "./market-data" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.AccountingCurrency != "WETH" || cfg.AuctionMaxDays != 7 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		t.Fatalf("owner address: %v", err)
	}
	if owner == ([20]byte{}) {
		t.Fatalf("owner parsed to zero address")
	}
	if _, ok, err := cfg.TreasuryAddress(); ok || err != nil {
		t.Fatalf("unset treasury: ok=%v err=%v", ok, err)
	}
}

func TestLoadRejectsMalformedOwner(t *testing.T) {
	path := writeConfig(t, `
Owner = "not-an-address"
Vault = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed owner")
	}
}

func TestLoadRejectsMissingVault(t *testing.T) {
	path := writeConfig(t, `
Owner = "0x0101010101010101010101010101010101010101"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing vault")
	}
}

func TestLoadRejectsMalformedRatePair(t *testing.T) {
	path := writeConfig(t, `
Owner = "0x0101010101010101010101010101010101010101"
Vault = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

[[ExchangeRates]]
Pair = "DAI-WETH"
Num = "1"
Den = "2"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed rate pair")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
RPCAddress = ":9090"
RPCAuthToken = "secret"
DataDir = "/tmp/market"
Environment = "staging"
Owner = "0x0101010101010101010101010101010101010101"
Vault = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
Treasury = "0x0202020202020202020202020202020202020202"
AccountingCurrency = "weth"
ApprovedCurrencies = ["DAI", "USDC"]
AuctionMaxDays = 3

[[ExchangeRates]]
Pair = "DAI/WETH"
Num = "1"
Den = "2"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":9090" || cfg.RPCAuthToken != "secret" || cfg.AuctionMaxDays != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.ApprovedCurrencies) != 2 || len(cfg.ExchangeRates) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, ok, err := cfg.TreasuryAddress(); !ok || err != nil {
		t.Fatalf("treasury: ok=%v err=%v", ok, err)
	}
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected default config: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}
}
