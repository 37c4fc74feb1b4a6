package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func validConfig() *Config {
	return &Config{
		MergeMode:         "merged",
		Workers:           4,
		MatchWindowDays:   90,
		ACRZeroSubstitute: 0.019,
		DBMaxConns:        4,
		DBMinConns:        1,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CreatinineFile != "Creatinine.csv" {
		t.Errorf("expected Creatinine.csv, got %s", cfg.CreatinineFile)
	}
	if cfg.CKDCheckFile != "CKD_check.csv" {
		t.Errorf("expected CKD_check.csv, got %s", cfg.CKDCheckFile)
	}
	if cfg.MergeMode != "merged" {
		t.Errorf("expected merged, got %s", cfg.MergeMode)
	}
	if cfg.MatchWindowDays != 90 {
		t.Errorf("expected 90 day window, got %d", cfg.MatchWindowDays)
	}
	if cfg.ACRZeroSubstitute != 0.019 {
		t.Errorf("expected ACR substitute 0.019, got %v", cfg.ACRZeroSubstitute)
	}
	if cfg.WatchDebounce != 2*time.Second {
		t.Errorf("expected 2s debounce, got %v", cfg.WatchDebounce)
	}
	if cfg.DBSchema != "ckd_review" {
		t.Errorf("expected ckd_review schema, got %s", cfg.DBSchema)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MERGE_MODE", "creatinine")
	t.Setenv("WORKERS", "8")
	t.Setenv("TRIAGE_ACR_INCLUSIVE", "true")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MergeMode != "creatinine" {
		t.Errorf("expected creatinine, got %s", cfg.MergeMode)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", cfg.Workers)
	}
	if !cfg.TriageACRInclusive {
		t.Error("expected TRIAGE_ACR_INCLUSIVE to be true")
	}
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	flags.String("unrelated", "", "")
	if err := flags.Parse([]string{"--output-dir", "/from/flag"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDir != "/from/flag" {
		t.Errorf("expected /from/flag, got %s", cfg.OutputDir)
	}
}

func TestLoad_UnsetFlagKeepsEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/from/env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output-dir", "", "")
	if err := flags.Parse(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OutputDir != "/from/env" {
		t.Errorf("expected /from/env, got %s", cfg.OutputDir)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		c := &Config{LogLevel: tt.in}
		if got := c.Level(); got != tt.want {
			t.Errorf("Level(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestConfig_AsOf(t *testing.T) {
	c := &Config{}
	asOf, err := c.AsOf()
	if err != nil || !asOf.IsZero() {
		t.Errorf("expected zero time for empty AS_OF_DATE, got %v, %v", asOf, err)
	}

	c.AsOfDate = "2024-06-01"
	asOf, err = c.AsOf()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !asOf.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected 2024-06-01, got %v", asOf)
	}

	c.AsOfDate = "01/06/2024"
	if _, err := c.AsOf(); err == nil {
		t.Error("expected error for dd/mm/YYYY AS_OF_DATE")
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad merge mode", func(c *Config) { c.MergeMode = "both" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"bad as-of", func(c *Config) { c.AsOfDate = "yesterday" }},
		{"zero window", func(c *Config) { c.MatchWindowDays = 0 }},
		{"zero ACR substitute", func(c *Config) { c.ACRZeroSubstitute = 0 }},
		{"publish without url", func(c *Config) { c.PublishDB = true }},
		{"min over max conns", func(c *Config) { c.DBMinConns = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
