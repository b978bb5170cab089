package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv merges the process environment on top of the loaded config. Only
// variables that are actually set override; empty values are ignored.
func (c *Config) applyEnv() {
	envString(&c.Server.Port, "PORT")
	envString(&c.Server.Env, "SERVER_ENV")
	envInt(&c.Server.RateLimitPerMinute, "RELAY_RATE_LIMIT_PER_MINUTE")

	envBool(&c.AFIP.WSAAProduction, "WSAA_PRODUCTION")
	envBool(&c.AFIP.WSFEProduction, "WSFE_PRODUCTION")
	envBool(&c.AFIP.WSPCIProduction, "WSPCI_PRODUCTION")
	envString(&c.AFIP.NTPHost, "AFIP_NTP_HOST")

	envString(&c.Tickets.CertPath, "AFIP_CERT_PATH")
	envString(&c.Tickets.KeyPath, "AFIP_KEY_PATH")
	envString(&c.Tickets.P12Path, "AFIP_P12_PATH")
	envString(&c.Tickets.P12Password, "AFIP_P12_PASSWORD")
	envString(&c.Tickets.XMLDir, "AFRELAY_XML_DIR")
	envString(&c.Tickets.CryptoDir, "AFRELAY_CRYPTO_DIR")
	envInt(&c.Tickets.WSFERenewBeforeMinutes, "WSFE_TOKEN_RENEW_BEFORE_MINUTES")
	envInt(&c.Tickets.WSPCIRenewBeforeMinutes, "WSPCI_TOKEN_RENEW_BEFORE_MINUTES")

	envString(&c.State.DBPath, "AFRELAY_STATE_DB")

	envString(&c.Logging.Dir, "AFRELAY_LOG_DIR")
	envString(&c.Logging.File, "AFRELAY_LOG_FILE")
	envInt64(&c.Logging.MaxBytes, "AFRELAY_LOG_MAX_BYTES")
	envInt(&c.Logging.BackupCount, "AFRELAY_LOG_BACKUP_COUNT")

	envInt(&c.Scheduler.TokenWatchdogMinutes, "AFIP_TOKEN_WATCHDOG_MINUTES")

	envInt(&c.Observability.MaxLogs, "OBS_MAX_LOGS")
	envInt(&c.Observability.MaxEvents, "OBS_MAX_EVENTS")

	envString(&c.Auth.JWTSecret, "JWT_SECRET_KEY")

	envString(&c.CAEA.BootstrapCuits, "CAEA_BOOTSTRAP_CUITS")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.EqualFold(strings.TrimSpace(v), "true")
	}
}

func envInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}
