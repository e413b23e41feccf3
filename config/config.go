package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tradehook/journal"
)

// Config is the complete bridge configuration, injected at startup. The
// core never reads ambient state: everything it needs arrives through
// the structs built here.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Auth    AuthConfig    `json:"auth" yaml:"auth"`
	Account AccountConfig `json:"account" yaml:"account"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Oanda   OandaConfig   `json:"oanda" yaml:"oanda"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Discord DiscordConfig `json:"discord" yaml:"discord"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	Mode string `json:"mode" yaml:"mode"` // gin mode: debug or release
}

// AuthConfig gates the webhook endpoint: the path token must be in
// Tokens and the caller's IP must match AllowedIPs or AllowedCIDRs.
type AuthConfig struct {
	Tokens       []string `json:"tokens" yaml:"tokens"`
	AllowedIPs   []string `json:"allowed_ips" yaml:"allowed_ips"`
	AllowedCIDRs []string `json:"allowed_cidrs" yaml:"allowed_cidrs"`
}

type AccountConfig struct {
	Currency string `json:"currency" yaml:"currency"`
}

type RiskConfig struct {
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

type OandaCredentials struct {
	APIKey    string `json:"api_key" yaml:"api_key"`
	AccountID string `json:"account_id" yaml:"account_id"`
}

type OandaConfig struct {
	Practice OandaCredentials `json:"practice" yaml:"practice"`
	Live     OandaCredentials `json:"live" yaml:"live"`
	Debug    bool             `json:"debug" yaml:"debug"`
	Timeout  string           `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ParseTimeout converts the timeout string to a duration; empty means
// the client default.
func (c OandaConfig) ParseTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

type JournalConfig struct {
	Sheets journal.SheetsConfig `json:"sheets" yaml:"sheets"`
	Local  string               `json:"local" yaml:"local"` // "sqlite" or "csv"
	DBPath string               `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	CSV    string               `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
}

type DiscordConfig struct {
	WebhookURL string `json:"webhook_url" yaml:"webhook_url"`
}

// Load reads configuration from a file (YAML, falling back to JSON) and
// applies environment overrides for secrets. A .env file is honored when
// present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv lets secrets stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("OANDA_PRACTICE_API_KEY"); v != "" {
		c.Oanda.Practice.APIKey = v
	}
	if v := os.Getenv("OANDA_PRACTICE_ACCOUNT_ID"); v != "" {
		c.Oanda.Practice.AccountID = v
	}
	if v := os.Getenv("OANDA_LIVE_API_KEY"); v != "" {
		c.Oanda.Live.APIKey = v
	}
	if v := os.Getenv("OANDA_LIVE_ACCOUNT_ID"); v != "" {
		c.Oanda.Live.AccountID = v
	}
	if v := os.Getenv("WEBHOOK_TOKENS"); v != "" {
		c.Auth.Tokens = splitList(v)
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Discord.WebhookURL = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SaveToFile writes the configuration out, format chosen by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before anything touches money.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth.tokens must list at least one webhook token")
	}
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Risk.Fraction <= 0 || c.Risk.Fraction > 0.1 {
		return fmt.Errorf("risk.fraction must be in (0, 0.1]")
	}
	practice := c.Oanda.Practice.APIKey != "" && c.Oanda.Practice.AccountID != ""
	live := c.Oanda.Live.APIKey != "" && c.Oanda.Live.AccountID != ""
	if !practice && !live {
		return fmt.Errorf("oanda credentials are required for at least one of practice or live")
	}
	if _, err := c.Oanda.ParseTimeout(); err != nil {
		return fmt.Errorf("oanda.timeout: %w", err)
	}
	switch c.Journal.Local {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite local sink")
		}
	case "csv":
		if c.Journal.CSV == "" {
			return fmt.Errorf("journal.csv_path required for csv local sink")
		}
	default:
		return fmt.Errorf("journal.local must be 'sqlite' or 'csv'")
	}
	return nil
}

// Default returns a configuration with sensible defaults. Credentials
// and tokens still have to be supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Auth: AuthConfig{
			// TradingView's published alert source addresses, plus
			// localhost for manual testing.
			AllowedIPs: []string{
				"52.89.214.238",
				"34.212.75.30",
				"54.218.53.128",
				"52.32.178.7",
				"127.0.0.1",
				"::1",
			},
		},
		Account: AccountConfig{Currency: "GBP"},
		Risk:    RiskConfig{Fraction: 0.01},
		Oanda:   OandaConfig{Debug: true},
		Journal: JournalConfig{
			Local:  "sqlite",
			DBPath: "./trades.db",
			Sheets: journal.SheetsConfig{Worksheet: "Trades"},
		},
	}
}
