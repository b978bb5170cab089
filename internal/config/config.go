package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	AFIP          AFIPConfig          `yaml:"afip"`
	Tickets       TicketsConfig       `yaml:"tickets"`
	State         StateConfig         `yaml:"state"`
	Logging       LoggingConfig       `yaml:"logging"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
	CAEA          CAEAConfig          `yaml:"caea"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`

	// RateLimitPerMinute caps relayed requests per client IP; zero disables
	// the limiter. AFIP throttles callers, so deployments shared by several
	// billing systems set this below AFIP's quota.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type AFIPConfig struct {
	WSAAProduction  bool   `yaml:"wsaa_production"`
	WSFEProduction  bool   `yaml:"wsfe_production"`
	WSPCIProduction bool   `yaml:"wspci_production"`
	NTPHost         string `yaml:"ntp_host"`
}

type TicketsConfig struct {
	CertPath    string `yaml:"cert_path"`
	KeyPath     string `yaml:"key_path"`
	P12Path     string `yaml:"p12_path"`
	P12Password string `yaml:"p12_password"`
	XMLDir      string `yaml:"xml_dir"`
	CryptoDir   string `yaml:"crypto_dir"`

	WSFERenewBeforeMinutes  int `yaml:"wsfe_renew_before_minutes"`
	WSPCIRenewBeforeMinutes int `yaml:"wspci_renew_before_minutes"`
}

type StateConfig struct {
	DBPath string `yaml:"db_path"`
}

type LoggingConfig struct {
	Dir         string `yaml:"dir"`
	File        string `yaml:"file"`
	MaxBytes    int64  `yaml:"max_bytes"`
	BackupCount int    `yaml:"backup_count"`
}

type SchedulerConfig struct {
	TokenWatchdogMinutes int `yaml:"token_watchdog_minutes"`
}

type ObservabilityConfig struct {
	MaxLogs   int `yaml:"max_logs"`
	MaxEvents int `yaml:"max_events"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type CAEAConfig struct {
	// BootstrapCuits is the raw comma-separated list; the bootstrap pass
	// parses it and warns about invalid entries.
	BootstrapCuits string `yaml:"bootstrap_cuits"`
}

// DefaultConfig returns the configuration the relay boots with when no YAML
// file and no environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Env:  "development",
		},
		AFIP: AFIPConfig{
			NTPHost: "time.afip.gov.ar",
		},
		Tickets: TicketsConfig{
			CertPath:                filepath.Join("service", "certs", "cert.pem"),
			KeyPath:                 filepath.Join("service", "certs", "private_key.pem"),
			XMLDir:                  filepath.Join("service", "xml_files"),
			CryptoDir:               filepath.Join("service", "crypto"),
			WSFERenewBeforeMinutes:  15,
			WSPCIRenewBeforeMinutes: 15,
		},
		State: StateConfig{
			DBPath: filepath.Join("service", "state", "afrelay_state.db"),
		},
		Logging: LoggingConfig{
			Dir:         "logs",
			File:        "afrelay.log",
			MaxBytes:    10 * 1024 * 1024,
			BackupCount: 5,
		},
		Scheduler: SchedulerConfig{
			TokenWatchdogMinutes: 5,
		},
		Observability: ObservabilityConfig{
			MaxLogs:   5000,
			MaxEvents: 2000,
		},
		Auth: AuthConfig{
			JWTSecret: "default-secret-change-me",
		},
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty), then
// applies environment overrides on top. Environment always wins so the same
// binary can run from a plain .env in deployments without a config file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// TicketResponsePath returns the on-disk location of the signed ticket for a
// service ("wsfe" uses the WSAA file, "wspci" its own counterpart).
func (c *Config) TicketResponsePath(service string) string {
	if service == "wspci" {
		return filepath.Join(c.Tickets.XMLDir, "wspci_loginTicketResponse.xml")
	}
	return filepath.Join(c.Tickets.XMLDir, "loginTicketResponse.xml")
}
