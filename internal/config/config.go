package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment selects one of the preset network profiles.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// ParseEnvironment maps a user supplied name onto a known Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case Development, "dev", "":
		return Development, nil
	case Test:
		return Test, nil
	case Production, "prod":
		return Production, nil
	}
	return "", fmt.Errorf("unknown environment %q (use development|test|production)", s)
}

// Config holds everything the CLI needs to talk to one KYV contract.
// It is built once at startup and passed down explicitly.
type Config struct {
	Environment    Environment `yaml:"environment" validate:"required,oneof=development test production"`
	ChainID        string      `yaml:"chain_id" validate:"required"`
	Binary         string      `yaml:"binary" validate:"required"`
	HomeDir        string      `yaml:"home"`
	KeyringBackend string      `yaml:"keyring_backend" validate:"required,oneof=os file test memory kwallet pass"`
	KeyName        string      `yaml:"key_name"`
	RPC            string      `yaml:"rpc" validate:"required,url"`
	LCD            string      `yaml:"lcd" validate:"omitempty,url"`
	// ContractAddress is the bech32 address of the deployed KYV contract.
	ContractAddress string `yaml:"contract_address" validate:"required"`
	Denom           string `yaml:"denom" validate:"required"`
	// Deposit is the amount (in Denom base units) attached to add_validator.
	Deposit           string        `yaml:"deposit" validate:"required,numeric"`
	GasPrices         string        `yaml:"gas_prices"`
	GasAdjustment     string        `yaml:"gas_adjustment"`
	BroadcastMode     string        `yaml:"broadcast_mode" validate:"required,oneof=block sync"`
	FinderURL         string        `yaml:"finder_url"`
	InitialValidators []string      `yaml:"initial_validators"`
	Timeout           time.Duration `yaml:"timeout" validate:"gt=0"`
	QueryRetries      int           `yaml:"query_retries" validate:"gte=0,lte=10"`
}

// Defaults returns the preset for env. Contracts are queried through
// x/wasm (cosmwasm/wasm/v1), so the presets name Terra 2 networks:
// LocalTerra, pisco-1 and phoenix-1. No preset carries a contract address
// and only Development carries endpoints; the rest come from the config
// file, env or flags.
func Defaults(env Environment) Config {
	home, _ := os.UserHomeDir()
	base := Config{
		Environment:    env,
		Binary:         "terrad",
		HomeDir:        filepath.Join(home, ".terra"),
		KeyringBackend: "test",
		KeyName:        "kyv-manager",
		Denom:          "uluna",
		Deposit:        "10000000",
		GasPrices:      "0.15uluna",
		GasAdjustment:  "1.4",
		BroadcastMode:  "sync",
		Timeout:        60 * time.Second,
		QueryRetries:   2,
	}
	switch env {
	case Test:
		base.ChainID = "pisco-1"
		base.FinderURL = "https://finder.terra.money/testnet/tx/"
	case Production:
		base.ChainID = "phoenix-1"
		base.KeyringBackend = "os"
		base.FinderURL = "https://finder.terra.money/mainnet/tx/"
	default:
		base.Environment = Development
		base.ChainID = "localterra"
		base.RPC = "http://localhost:26657"
		base.LCD = "http://localhost:1317"
		base.FinderURL = "https://finder.terra.money/localterra/tx/"
		// LocalTerra's genesis validator.
		base.InitialValidators = []string{"terravaloper1dcegyrekltswvyy0xy69ydgxn9x8x32zdy3ua5"}
	}
	return base
}

// Load builds the config for the environment named by KYV_ENV, overlays
// the YAML file at path (if non-empty) and then the KYV_* env overrides.
// Flags are applied by the caller.
func Load(path string) (Config, error) {
	env, err := ParseEnvironment(os.Getenv("KYV_ENV"))
	if err != nil {
		return Config{}, err
	}
	cfg := Defaults(env)
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// mergeFile overlays non-zero fields from a YAML file. A file may switch the
// environment, in which case the file is applied over that preset instead.
func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var head struct {
		Environment string `yaml:"environment"`
	}
	if err := yaml.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if head.Environment != "" {
		env, err := ParseEnvironment(head.Environment)
		if err != nil {
			return err
		}
		if env != c.Environment {
			*c = Defaults(env)
		}
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"KYV_HOME":           &c.HomeDir,
		"KYV_BIN":            &c.Binary,
		"KYV_RPC":            &c.RPC,
		"KYV_LCD":            &c.LCD,
		"KYV_CONTRACT":       &c.ContractAddress,
		"KYV_KEY":            &c.KeyName,
		"KYV_KEYRING":        &c.KeyringBackend,
		"KYV_CHAIN_ID":       &c.ChainID,
		"KYV_BROADCAST_MODE": &c.BroadcastMode,
	}
	for k, dst := range overrides {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("KYV_QUERY_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueryRetries = n
		}
	}
}

var validate = validator.New()

// Validate checks the struct tags and returns a readable, field-level error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// TxURL returns the block-explorer link for a transaction hash.
func (c Config) TxURL(hash string) string {
	if c.FinderURL == "" || hash == "" {
		return ""
	}
	return strings.TrimRight(c.FinderURL, "/") + "/" + hash
}
