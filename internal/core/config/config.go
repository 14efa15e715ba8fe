package config

import (
	"time"
)

// Config is the cjsflat.toml project file.
type Config struct {
	Version          int           `toml:"version"`
	ProjectRoot      string        `toml:"project_root"`
	Inputs           []string      `toml:"inputs"`
	Exclude          []string      `toml:"exclude"`
	Output           string        `toml:"output"`
	LanguageIn       string        `toml:"language_in"`
	ModuleResolution string        `toml:"module_resolution"`
	WarningLevel     string        `toml:"warning_level"`
	CheckTypes       bool          `toml:"check_types"`
	Workers          int           `toml:"workers"`
	KeepJSDoc        *bool         `toml:"keep_jsdoc"`
	Report           Report        `toml:"report"`
	History          History       `toml:"history"`
	Watch            Watch         `toml:"watch"`
	Observability    Observability `toml:"observability"`
}

type Report struct {
	Format string `toml:"format"`
	Color  *bool  `toml:"color"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
	// ReloadConfig rebuilds with the new settings when the config file changes.
	ReloadConfig bool `toml:"reload_config"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
	ServiceName    string `toml:"service_name"`
}

const (
	DefaultFile        = "cjsflat.toml"
	StdoutOutput       = "-"
	languageDefault    = "ECMASCRIPT3"
	resolutionDefault  = "NODE"
	reportFormatText   = "text"
	historyPathDefault = "data/history.db"
)

var (
	supportedLanguages   = []string{"ECMASCRIPT3", "ECMASCRIPT5", "ECMASCRIPT5_STRICT", "ECMASCRIPT_2015", "ECMASCRIPT_NEXT"}
	supportedResolutions = []string{"NODE"}
	supportedLevels      = []string{"QUIET", "DEFAULT", "VERBOSE"}
	supportedFormats     = []string{"text", "json", "yaml"}
)

// DefaultConfig is what Load yields for an empty file.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// KeepDocs reports whether the emitted program keeps its JSDoc comments.
func (c *Config) KeepDocs() bool {
	return c.KeepJSDoc == nil || *c.KeepJSDoc
}

// ColorEnabled reports whether the text report may use terminal styling.
func (r Report) ColorEnabled() bool {
	return r.Color == nil || *r.Color
}

// WritesStdout reports whether the program goes to standard output.
func (c *Config) WritesStdout() bool {
	return c.Output == "" || c.Output == StdoutOutput
}
