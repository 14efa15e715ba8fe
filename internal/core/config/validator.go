package config

import (
	"fmt"
	"slices"
	"strings"

	"cjsflat/internal/core/errors"
	"cjsflat/internal/shared/util"
)

func invalid(format string, args ...any) error {
	return errors.New(errors.CodeValidationError, fmt.Sprintf(format, args...))
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateInputs(cfg *Config) error {
	if len(cfg.Inputs) == 0 {
		return invalid("inputs must list at least one pattern")
	}
	for _, pattern := range append(append([]string(nil), cfg.Inputs...), cfg.Exclude...) {
		if _, err := util.NewMatcher([]string{pattern}); err != nil {
			return invalid("invalid glob %q: %v", pattern, err)
		}
	}
	return nil
}

func validateCompiler(cfg *Config) error {
	if !slices.Contains(supportedLanguages, cfg.LanguageIn) {
		return invalid("language_in must be one of: %s", strings.Join(supportedLanguages, ", "))
	}
	if !slices.Contains(supportedResolutions, cfg.ModuleResolution) {
		return errors.New(errors.CodeNotSupported, fmt.Sprintf("module_resolution %q is not supported", cfg.ModuleResolution))
	}
	if !slices.Contains(supportedLevels, cfg.WarningLevel) {
		return invalid("warning_level must be one of: %s", strings.Join(supportedLevels, ", "))
	}
	if cfg.Workers < 0 {
		return invalid("workers must be >= 0, got %d", cfg.Workers)
	}
	return nil
}

func validateReport(cfg *Config) error {
	if !slices.Contains(supportedFormats, cfg.Report.Format) {
		return invalid("report.format must be one of: %s", strings.Join(supportedFormats, ", "))
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return invalid("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	if cfg.Watch.MaxRebuildsPerSecond < 0 {
		return invalid("watch.max_rebuilds_per_second must not be negative")
	}
	return nil
}
