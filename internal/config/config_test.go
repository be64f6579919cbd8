package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIRADOR_CONTEXT_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Signals.MinSignalsRequired != 2 {
		t.Fatalf("expected min signals 2, got %d", cfg.Signals.MinSignalsRequired)
	}
	th := cfg.Signals.Thresholds()
	if th[models.SignalSpatial] != 0.7 || th[models.SignalTemporal] != 0.3 {
		t.Fatalf("unexpected default thresholds: %v", th)
	}
	if cfg.Influence.DecayLambda != 0.02 || cfg.Influence.ConfidenceFloor != 0.3 {
		t.Fatalf("unexpected influence defaults: %+v", cfg.Influence)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`signals:
  semantic: 0.75
  minSignalsRequired: 3
patterns:
  minRSquared: 0.9
  includeClosingRatio: true
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MIRADOR_CONTEXT_DECAY_LAMBDA", "0.05")
	t.Setenv("MIRADOR_CONTEXT_ANALYZER_TIMEOUT", "750ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Signals.Semantic != 0.75 || cfg.Signals.MinSignalsRequired != 3 {
		t.Fatalf("file values not applied: %+v", cfg.Signals)
	}
	if cfg.Signals.Statistical != 0.4 {
		t.Fatalf("expected untouched default statistical threshold, got %f", cfg.Signals.Statistical)
	}
	if cfg.Patterns.MinRSquared != 0.9 {
		t.Fatalf("expected minRSquared 0.9, got %f", cfg.Patterns.MinRSquared)
	}
	if !cfg.Patterns.IncludeClosingRatio {
		t.Fatalf("expected includeClosingRatio from file")
	}
	if cfg.Influence.DecayLambda != 0.05 {
		t.Fatalf("expected env decay lambda, got %f", cfg.Influence.DecayLambda)
	}
	if cfg.Signals.AnalyzerTimeout != 750*time.Millisecond {
		t.Fatalf("expected env timeout, got %v", cfg.Signals.AnalyzerTimeout)
	}
}

func TestLoadClosingRatioEnvOverride(t *testing.T) {
	t.Setenv("MIRADOR_CONTEXT_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Patterns.IncludeClosingRatio {
		t.Fatalf("expected closing ratio off by default")
	}
	t.Setenv("MIRADOR_CONTEXT_PHI_CLOSING_RATIO", "true")
	if cfg, err = Load(""); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Patterns.IncludeClosingRatio {
		t.Fatalf("expected env to enable closing ratio")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidateRejectsProgrammingMistakes(t *testing.T) {
	cases := map[string]func(*Config){
		"min signals above five": func(c *Config) { c.Signals.MinSignalsRequired = 6 },
		"min signals zero":       func(c *Config) { c.Signals.MinSignalsRequired = 0 },
		"negative lambda":        func(c *Config) { c.Influence.DecayLambda = -0.1 },
		"threshold above one":    func(c *Config) { c.Signals.Spatial = 1.2 },
		"floor above one":        func(c *Config) { c.Influence.ConfidenceFloor = 1.5 },
		"short spiral paths":     func(c *Config) { c.Patterns.MaxPathNodes = 3 },
		"zero interval":          func(c *Config) { c.Patterns.Interval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, utils.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
