package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

type Config struct {
	RPCAddress         string   `toml:"RPCAddress"`
	RPCAuthToken       string   `toml:"RPCAuthToken,omitempty"`
	DataDir            string   `toml:"DataDir"`
	Environment        string   `toml:"Environment"`
	Owner              string   `toml:"Owner"`
	Vault              string   `toml:"Vault"`
	Treasury           string   `toml:"Treasury,omitempty"`
	AccountingCurrency string   `toml:"AccountingCurrency"`
	ApprovedCurrencies []string `toml:"ApprovedCurrencies"`
	AuctionMaxDays     uint32   `toml:"AuctionMaxDays"`
	ExchangeRates      []Rate   `toml:"ExchangeRates,omitempty"`
}

// Rate declares one fixed exchange pair, Pair as "FROM/TO" with the quoted
// price Num/Den in accounting units per currency unit.
type Rate struct {
	Pair string `toml:"Pair"`
	Num  string `toml:"Num"`
	Den  string `toml:"Den"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./market-data"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	if strings.TrimSpace(cfg.AccountingCurrency) == "" {
		cfg.AccountingCurrency = "WETH"
	}
	if cfg.AuctionMaxDays == 0 {
		cfg.AuctionMaxDays = 7
	}
	if cfg.ApprovedCurrencies == nil {
		cfg.ApprovedCurrencies = []string{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:         ":8080",
		DataDir:            "./market-data",
		Environment:        "local",
		AccountingCurrency: "WETH",
		ApprovedCurrencies: []string{},
		AuctionMaxDays:     7,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// Validate checks the fields a node cannot run without.
func (cfg *Config) Validate() error {
	if _, err := parseAddress(cfg.Owner); err != nil {
		return fmt.Errorf("config: Owner: %w", err)
	}
	if _, err := parseAddress(cfg.Vault); err != nil {
		return fmt.Errorf("config: Vault: %w", err)
	}
	if strings.TrimSpace(cfg.Treasury) != "" {
		if _, err := parseAddress(cfg.Treasury); err != nil {
			return fmt.Errorf("config: Treasury: %w", err)
		}
	}
	if cfg.AuctionMaxDays < 1 {
		return fmt.Errorf("config: AuctionMaxDays must be at least 1")
	}
	for _, rate := range cfg.ExchangeRates {
		if len(strings.Split(rate.Pair, "/")) != 2 {
			return fmt.Errorf("config: ExchangeRates: malformed pair %q", rate.Pair)
		}
	}
	return nil
}

// OwnerAddress returns the parsed marketplace owner address.
func (cfg *Config) OwnerAddress() ([20]byte, error) {
	return parseAddress(cfg.Owner)
}

// VaultAddress returns the parsed escrow vault address.
func (cfg *Config) VaultAddress() ([20]byte, error) {
	return parseAddress(cfg.Vault)
}

// TreasuryAddress returns the parsed treasury address; ok is false when the
// field is unset and the owner should receive fees.
func (cfg *Config) TreasuryAddress() (addr [20]byte, ok bool, err error) {
	if strings.TrimSpace(cfg.Treasury) == "" {
		return addr, false, nil
	}
	addr, err = parseAddress(cfg.Treasury)
	return addr, err == nil, err
}

func parseAddress(raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("address is required")
	}
	if !ethcommon.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("malformed address %q", raw)
	}
	return [20]byte(ethcommon.HexToAddress(trimmed)), nil
}
