package config

import (
	"os"
	"strings"
	"time"

	"cjsflat/internal/core/errors"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults and validates a TOML document.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid config")
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateInputs(&cfg); err != nil {
		return nil, err
	}
	if err := validateCompiler(&cfg); err != nil {
		return nil, err
	}
	if err := validateReport(&cfg); err != nil {
		return nil, err
	}
	if err := validateHistory(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []string{"**/*.js"}
	}
	if len(cfg.Exclude) == 0 {
		cfg.Exclude = []string{"**/node_modules/**", "**/.git/**"}
	}
	if strings.TrimSpace(cfg.LanguageIn) == "" {
		cfg.LanguageIn = languageDefault
	}
	if strings.TrimSpace(cfg.ModuleResolution) == "" {
		cfg.ModuleResolution = resolutionDefault
	}
	if strings.TrimSpace(cfg.WarningLevel) == "" {
		cfg.WarningLevel = "DEFAULT"
	}
	if strings.TrimSpace(cfg.Report.Format) == "" {
		cfg.Report.Format = reportFormatText
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = historyPathDefault
	}
	if cfg.History.BusyTimeout <= 0 {
		cfg.History.BusyTimeout = 5 * time.Second
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRebuildsPerSecond == 0 {
		cfg.Watch.MaxRebuildsPerSecond = 2
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "cjsflat"
	}
}

func normalize(cfg *Config) {
	cfg.ProjectRoot = strings.TrimSpace(cfg.ProjectRoot)
	cfg.Output = strings.TrimSpace(cfg.Output)
	cfg.LanguageIn = strings.ToUpper(strings.TrimSpace(cfg.LanguageIn))
	cfg.ModuleResolution = strings.ToUpper(strings.TrimSpace(cfg.ModuleResolution))
	cfg.WarningLevel = strings.ToUpper(strings.TrimSpace(cfg.WarningLevel))
	cfg.Report.Format = strings.ToLower(strings.TrimSpace(cfg.Report.Format))
	cfg.Inputs = trimAll(cfg.Inputs)
	cfg.Exclude = trimAll(cfg.Exclude)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
