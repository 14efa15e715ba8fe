package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CJSFLAT_[SECTION]_[KEY] (e.g., CJSFLAT_HISTORY_PATH).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.ProjectRoot, "CJSFLAT_PROJECT_ROOT")
	setEnvString(&cfg.Output, "CJSFLAT_OUTPUT")
	setEnvString(&cfg.WarningLevel, "CJSFLAT_WARNING_LEVEL")
	setEnvBool(&cfg.CheckTypes, "CJSFLAT_CHECK_TYPES")
	setEnvInt(&cfg.Workers, "CJSFLAT_WORKERS")

	setEnvString(&cfg.Report.Format, "CJSFLAT_REPORT_FORMAT")

	setEnvBool(&cfg.History.Enabled, "CJSFLAT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "CJSFLAT_HISTORY_PATH")

	setEnvDuration(&cfg.Watch.Debounce, "CJSFLAT_WATCH_DEBOUNCE")

	setEnvString(&cfg.Observability.MetricsAddress, "CJSFLAT_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CJSFLAT_OBSERVABILITY_OTLP_ENDPOINT")
	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
