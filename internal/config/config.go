package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AsOfLayout is the accepted AS_OF_DATE format.
const AsOfLayout = "2006-01-02"

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	CreatinineFile string `mapstructure:"CREATININE_FILE"`
	CKDCheckFile   string `mapstructure:"CKD_CHECK_FILE"`
	ReferenceDir   string `mapstructure:"REFERENCE_DIR"`
	GuidanceFile   string `mapstructure:"GUIDANCE_FILE"`
	OutputDir      string `mapstructure:"OUTPUT_DIR"`
	MergeMode      string `mapstructure:"MERGE_MODE"`
	Workers        int    `mapstructure:"WORKERS"`
	AsOfDate       string `mapstructure:"AS_OF_DATE"`

	MatchWindowDays     int     `mapstructure:"MATCH_WINDOW_DAYS"`
	ACRZeroSubstitute   float64 `mapstructure:"ACR_ZERO_SUBSTITUTE"`
	TriageACRInclusive  bool    `mapstructure:"TRIAGE_ACR_INCLUSIVE"`
	TriageFallbackLabel string  `mapstructure:"TRIAGE_FALLBACK_LABEL"`

	XLSXExport  bool   `mapstructure:"XLSX_EXPORT"`
	PublishDB   bool   `mapstructure:"PUBLISH_DB"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`

	WatchDir      string        `mapstructure:"WATCH_DIR"`
	WatchDebounce time.Duration `mapstructure:"WATCH_DEBOUNCE"`
}

var keys = []string{
	"ENV", "LOG_LEVEL",
	"CREATININE_FILE", "CKD_CHECK_FILE", "REFERENCE_DIR", "GUIDANCE_FILE", "OUTPUT_DIR",
	"MERGE_MODE", "WORKERS", "AS_OF_DATE",
	"MATCH_WINDOW_DAYS", "ACR_ZERO_SUBSTITUTE", "TRIAGE_ACR_INCLUSIVE", "TRIAGE_FALLBACK_LABEL",
	"XLSX_EXPORT", "PUBLISH_DB", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"WATCH_DIR", "WATCH_DEBOUNCE",
}

// Load reads .env and the environment. Flags that were set on the command
// line take precedence; a flag binds to the key named by its upper-cased,
// underscored name ("output-dir" binds OUTPUT_DIR).
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CREATININE_FILE", "Creatinine.csv")
	v.SetDefault("CKD_CHECK_FILE", "CKD_check.csv")
	v.SetDefault("REFERENCE_DIR", ".")
	v.SetDefault("OUTPUT_DIR", ".")
	v.SetDefault("MERGE_MODE", "merged")
	v.SetDefault("WORKERS", 4)
	v.SetDefault("MATCH_WINDOW_DAYS", 90)
	v.SetDefault("ACR_ZERO_SUBSTITUTE", 0.019)
	v.SetDefault("TRIAGE_ACR_INCLUSIVE", false)
	v.SetDefault("XLSX_EXPORT", false)
	v.SetDefault("PUBLISH_DB", false)
	v.SetDefault("DB_MAX_CONNS", 4)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_SCHEMA", "ckd_review")
	v.SetDefault("WATCH_DEBOUNCE", "2s")

	for _, k := range keys {
		v.BindEnv(k)
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if bindErr == nil && isKey(key) {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func isKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// AsOf parses AS_OF_DATE. The zero time means "today".
func (c *Config) AsOf() (time.Time, error) {
	if c.AsOfDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(AsOfLayout, c.AsOfDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("AS_OF_DATE must be YYYY-MM-DD, got %q", c.AsOfDate)
	}
	return t, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.MergeMode) {
	case "", "merged", "ckd_check", "creatinine":
	default:
		return fmt.Errorf("MERGE_MODE must be \"merged\", \"ckd_check\" or \"creatinine\", got %q", c.MergeMode)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers)
	}
	if _, err := c.AsOf(); err != nil {
		return err
	}
	if c.MatchWindowDays < 1 {
		return fmt.Errorf("MATCH_WINDOW_DAYS must be positive, got %d", c.MatchWindowDays)
	}
	if c.ACRZeroSubstitute <= 0 {
		return fmt.Errorf("ACR_ZERO_SUBSTITUTE must be positive, got %v", c.ACRZeroSubstitute)
	}
	if c.PublishDB && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when PUBLISH_DB is true")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
