package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookchain/internal/models"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	DefaultRPCURL           = "http://127.0.0.1:8545"
	DefaultChainID          = 31337 // Hardhat local
	DefaultTokenDecimals    = 18
	DefaultMembershipAmount = "1"
	DefaultCurrencySymbol   = "PAS"
	DefaultPollInterval     = 4 * time.Second
	DefaultRPCRateLimit     = 20
	DefaultRPCRateBurst     = 5
	DefaultLogLevel         = "warn"
	DefaultLogFormat        = "text"
)

// Config represents the application configuration
type Config struct {
	// JSON-RPC endpoint of the chain
	RPCURL string `json:"rpc_url"`

	// Expected chain id; calls against another chain are refused
	ChainID uint64 `json:"chain_id"`

	// Deployed contract addresses
	MembershipAddress string `json:"membership_address,omitempty"`
	ListingAddress    string `json:"listing_address,omitempty"`
	BookingAddress    string `json:"booking_address,omitempty"`
	AccessNFTAddress  string `json:"access_nft_address,omitempty"`

	// ERC-20 accepted for payment; empty means the native token
	AcceptedToken string `json:"accepted_token,omitempty"`

	// Token display settings and default membership payment
	TokenDecimals    int    `json:"token_decimals"`
	MembershipAmount string `json:"membership_amount"`
	CurrencySymbol   string `json:"currency_symbol"`

	// Block polling interval, e.g. "4s"
	PollInterval string `json:"poll_interval"`

	// RPC read throttling
	RPCRateLimit float64 `json:"rpc_rate_limit"`
	RPCRateBurst int     `json:"rpc_rate_burst"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`
	LogFile   string `json:"log_file,omitempty"`

	// Keystore directory; defaults to <config dir>/keystore
	KeystoreDir string `json:"keystore_dir,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		RPCURL:           DefaultRPCURL,
		ChainID:          DefaultChainID,
		TokenDecimals:    DefaultTokenDecimals,
		MembershipAmount: DefaultMembershipAmount,
		CurrencySymbol:   DefaultCurrencySymbol,
		PollInterval:     DefaultPollInterval.String(),
		RPCRateLimit:     DefaultRPCRateLimit,
		RPCRateBurst:     DefaultRPCRateBurst,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// Load loads the configuration from the given file path
func Load(path string) (*Config, error) {
	// If config file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to the given file path
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Deployment returns the configured contract addresses
func (c *Config) Deployment() models.Deployment {
	return models.Deployment{
		Membership: c.MembershipAddress,
		Listing:    c.ListingAddress,
		Booking:    c.BookingAddress,
		AccessNFT:  c.AccessNFTAddress,
	}
}

// SetDeployment replaces the configured contract addresses
func (c *Config) SetDeployment(d models.Deployment) {
	c.MembershipAddress = d.Membership
	c.ListingAddress = d.Listing
	c.BookingAddress = d.Booking
	c.AccessNFTAddress = d.AccessNFT
}

// Poll returns the block polling interval
func (c *Config) Poll() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url not configured")
	}
	if c.TokenDecimals < 0 || c.TokenDecimals > 77 {
		return fmt.Errorf("invalid token decimals: %d", c.TokenDecimals)
	}
	if _, err := time.ParseDuration(c.PollInterval); c.PollInterval != "" && err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", c.PollInterval, err)
	}
	d := c.Deployment()
	return d.Validate()
}

// GetGlobalConfigDir returns the directory holding config, keystore and logs.
// BOOKCHAIN_HOME overrides the default ~/.bookchain.
func GetGlobalConfigDir() (string, error) {
	if dir := os.Getenv("BOOKCHAIN_HOME"); dir != "" {
		return dir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".bookchain"), nil
}

// GetGlobalConfigPath returns the path to the global configuration file
func GetGlobalConfigPath() (string, error) {
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadGlobalConfig loads the global configuration file without environment overrides
func LoadGlobalConfig() (*Config, error) {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// SaveGlobalConfig saves the global configuration file
func SaveGlobalConfig(cfg *Config) error {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return err
	}
	return cfg.Save(path)
}

// KeystorePath returns the keystore directory
func (c *Config) KeystorePath() (string, error) {
	if c.KeystoreDir != "" {
		return c.KeystoreDir, nil
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keystore"), nil
}

// envOverrides are read from the process environment
type envOverrides struct {
	RPCURL            string        `env:"BOOKCHAIN_RPC"`
	ChainID           uint64        `env:"BOOKCHAIN_CHAIN_ID"`
	MembershipAddress string        `env:"BOOKCHAIN_MEMBERSHIP_ADDRESS"`
	ListingAddress    string        `env:"BOOKCHAIN_LISTING_ADDRESS"`
	BookingAddress    string        `env:"BOOKCHAIN_BOOKING_ADDRESS"`
	AccessNFTAddress  string        `env:"BOOKCHAIN_ACCESS_NFT_ADDRESS"`
	AcceptedToken     string        `env:"BOOKCHAIN_ACCEPTED_TOKEN"`
	TokenDecimals     int           `env:"BOOKCHAIN_TOKEN_DECIMALS"`
	MembershipAmount  string        `env:"BOOKCHAIN_MEMBERSHIP_AMOUNT"`
	CurrencySymbol    string        `env:"BOOKCHAIN_CURRENCY_SYMBOL"`
	PollInterval      time.Duration `env:"BOOKCHAIN_POLL_INTERVAL"`
	RPCRateLimit      float64       `env:"BOOKCHAIN_RPC_RATE_LIMIT"`
	LogLevel          string        `env:"BOOKCHAIN_LOG_LEVEL"`
	LogFormat         string        `env:"BOOKCHAIN_LOG_FORMAT"`
	LogFile           string        `env:"BOOKCHAIN_LOG_FILE"`
	KeystoreDir       string        `env:"BOOKCHAIN_KEYSTORE"`
}

// viteOverrides accepts the frontend .env written by the deploy script
type viteOverrides struct {
	RPCURL            string `env:"VITE_RPC"`
	MembershipAddress string `env:"VITE_MEMBERSHIP_ADDRESS"`
	ListingAddress    string `env:"VITE_LISTING_ADDRESS"`
	BookingAddress    string `env:"VITE_BOOKING_ADDRESS"`
	AccessNFTAddress  string `env:"VITE_ACCESS_NFT_ADDRESS"`
	AcceptedToken     string `env:"VITE_ACCEPTED_TOKEN"`
}

// ApplyEnv loads the given .env files (missing files are skipped) and
// overlays environment variables onto the configuration.
// BOOKCHAIN_* variables win over VITE_* ones.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}

	var vite viteOverrides
	if err := decodeEnv(&vite); err != nil {
		return err
	}
	setString(&c.RPCURL, vite.RPCURL)
	setString(&c.MembershipAddress, vite.MembershipAddress)
	setString(&c.ListingAddress, vite.ListingAddress)
	setString(&c.BookingAddress, vite.BookingAddress)
	setString(&c.AccessNFTAddress, vite.AccessNFTAddress)
	setString(&c.AcceptedToken, vite.AcceptedToken)

	var env envOverrides
	if err := decodeEnv(&env); err != nil {
		return err
	}
	setString(&c.RPCURL, env.RPCURL)
	setString(&c.MembershipAddress, env.MembershipAddress)
	setString(&c.ListingAddress, env.ListingAddress)
	setString(&c.BookingAddress, env.BookingAddress)
	setString(&c.AccessNFTAddress, env.AccessNFTAddress)
	setString(&c.AcceptedToken, env.AcceptedToken)
	setString(&c.MembershipAmount, env.MembershipAmount)
	setString(&c.CurrencySymbol, env.CurrencySymbol)
	setString(&c.LogLevel, env.LogLevel)
	setString(&c.LogFormat, env.LogFormat)
	setString(&c.LogFile, env.LogFile)
	setString(&c.KeystoreDir, env.KeystoreDir)
	if env.ChainID != 0 {
		c.ChainID = env.ChainID
	}
	if env.TokenDecimals != 0 {
		c.TokenDecimals = env.TokenDecimals
	}
	if env.PollInterval > 0 {
		c.PollInterval = env.PollInterval.String()
	}
	if env.RPCRateLimit > 0 {
		c.RPCRateLimit = env.RPCRateLimit
	}

	return nil
}

func decodeEnv(target interface{}) error {
	err := envdecode.Decode(target)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("error reading environment: %w", err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
