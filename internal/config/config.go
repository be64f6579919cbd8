package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-context/internal/models"
	"github.com/miradorstack/mirador-context/internal/utils"
)

// Config captures the settings required to boot the context engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Store     StoreConfig     `yaml:"store"`
	Signals   SignalsConfig   `yaml:"signals"`
	Patterns  PatternsConfig  `yaml:"patterns"`
	Influence InfluenceConfig `yaml:"influence"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Rules     RulesConfig     `yaml:"rules"`
	Cache     CacheConfig     `yaml:"cache"`
}

// ServerConfig controls the metrics listener and shutdown behaviour.
type ServerConfig struct {
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// StoreConfig points at the SQLite graph store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SignalsConfig holds the promotion thresholds.
type SignalsConfig struct {
	Semantic           float64       `yaml:"semantic"`
	Statistical        float64       `yaml:"statistical"`
	Structural         float64       `yaml:"structural"`
	Temporal           float64       `yaml:"temporal"`
	Spatial            float64       `yaml:"spatial"`
	MinSignalsRequired int           `yaml:"minSignalsRequired"`
	AnalyzerTimeout    time.Duration `yaml:"analyzerTimeout"`
	DefaultConfidence  float64       `yaml:"defaultConfidence"`
}

// Thresholds returns the per-family threshold table.
func (s SignalsConfig) Thresholds() models.Thresholds {
	return models.Thresholds{
		models.SignalSemantic:    s.Semantic,
		models.SignalStatistical: s.Statistical,
		models.SignalStructural:  s.Structural,
		models.SignalTemporal:    s.Temporal,
		models.SignalSpatial:     s.Spatial,
	}
}

// PatternsConfig tunes motif detection.
type PatternsConfig struct {
	PhiTolerance float64 `yaml:"phiTolerance"`
	MinPhiScore  float64 `yaml:"minPhiScore"`
	// IncludeClosingRatio also scores the weakest-to-strongest wrap ratio of a pentagon.
	IncludeClosingRatio bool          `yaml:"includeClosingRatio"`
	MinRSquared         float64       `yaml:"minRSquared"`
	MaxPathNodes        int           `yaml:"maxPathNodes"`
	MaxPaths            int           `yaml:"maxPaths"`
	MaxNodes            int           `yaml:"maxNodes"`
	Interval            time.Duration `yaml:"interval"`
	PositionsPath       string        `yaml:"positionsPath"`
	TriangleListAt      int           `yaml:"triangleListAt"`
}

// InfluenceConfig tunes edge influence and decay.
type InfluenceConfig struct {
	DecayLambda     float64 `yaml:"decayLambda"`
	ConfidenceFloor float64 `yaml:"confidenceFloor"`
}

// PipelineConfig bounds pairwise promotion concurrency.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
}

// RulesConfig controls edge-type rule loading.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls in-process caching of pattern reports.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Size       int           `yaml:"size"`
	PatternTTL time.Duration `yaml:"patternTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides,
// then validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("MIRADOR_CONTEXT_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	thresholds := models.DefaultThresholds()
	return Config{
		Server: ServerConfig{
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Store:   StoreConfig{Path: "data/context.db"},
		Signals: SignalsConfig{
			Semantic:           thresholds[models.SignalSemantic],
			Statistical:        thresholds[models.SignalStatistical],
			Structural:         thresholds[models.SignalStructural],
			Temporal:           thresholds[models.SignalTemporal],
			Spatial:            thresholds[models.SignalSpatial],
			MinSignalsRequired: 2,
			AnalyzerTimeout:    2 * time.Second,
			DefaultConfidence:  0.8,
		},
		Patterns: PatternsConfig{
			PhiTolerance:   0.05,
			MinPhiScore:    0.6,
			MinRSquared:    0.8,
			MaxPathNodes:   9,
			MaxPaths:       10000,
			MaxNodes:       2000,
			Interval:       15 * time.Minute,
			TriangleListAt: 200,
		},
		Influence: InfluenceConfig{
			DecayLambda:     0.02,
			ConfidenceFloor: 0.3,
		},
		Pipeline: PipelineConfig{Workers: 8},
		Rules:    RulesConfig{Path: "configs/rules/edge_types.yaml"},
		Cache: CacheConfig{
			Enabled:    true,
			Size:       64,
			PatternTTL: 10 * time.Minute,
		},
	}
}

// Validate rejects settings that indicate a deployment mistake.
func (c *Config) Validate() error {
	for sig, v := range c.Signals.Thresholds() {
		if v < 0 || v > 1 {
			return utils.ConfigError("config.signals", "%s threshold %.3f outside [0,1]", sig, v)
		}
	}
	if c.Signals.MinSignalsRequired < 1 || c.Signals.MinSignalsRequired > len(models.AllSignals) {
		return utils.ConfigError("config.signals", "minSignalsRequired %d outside [1,%d]", c.Signals.MinSignalsRequired, len(models.AllSignals))
	}
	if c.Signals.AnalyzerTimeout < 0 {
		return utils.ConfigError("config.signals", "analyzerTimeout must not be negative")
	}
	if c.Influence.DecayLambda < 0 {
		return utils.ConfigError("config.influence", "decayLambda %.4f must not be negative", c.Influence.DecayLambda)
	}
	if c.Influence.ConfidenceFloor < 0 || c.Influence.ConfidenceFloor > 1 {
		return utils.ConfigError("config.influence", "confidenceFloor %.3f outside [0,1]", c.Influence.ConfidenceFloor)
	}
	if c.Patterns.PhiTolerance <= 0 || c.Patterns.PhiTolerance >= 1 {
		return utils.ConfigError("config.patterns", "phiTolerance %.3f outside (0,1)", c.Patterns.PhiTolerance)
	}
	if c.Patterns.MinPhiScore < 0 || c.Patterns.MinPhiScore > 1 {
		return utils.ConfigError("config.patterns", "minPhiScore %.3f outside [0,1]", c.Patterns.MinPhiScore)
	}
	if c.Patterns.MinRSquared < 0 || c.Patterns.MinRSquared > 1 {
		return utils.ConfigError("config.patterns", "minRSquared %.3f outside [0,1]", c.Patterns.MinRSquared)
	}
	if c.Patterns.MaxPathNodes < 4 {
		return utils.ConfigError("config.patterns", "maxPathNodes %d below 4", c.Patterns.MaxPathNodes)
	}
	if c.Patterns.Interval <= 0 {
		return utils.ConfigError("config.patterns", "interval must be positive")
	}
	if c.Pipeline.Workers < 0 {
		return utils.ConfigError("config.pipeline", "workers must not be negative")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MIRADOR_CONTEXT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("MIRADOR_CONTEXT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MIRADOR_CONTEXT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("MIRADOR_CONTEXT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("MIRADOR_CONTEXT_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
	if v := os.Getenv("MIRADOR_CONTEXT_MIN_SIGNALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Signals.MinSignalsRequired = n
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_ANALYZER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Signals.AnalyzerTimeout = d
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_DECAY_LAMBDA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Influence.DecayLambda = f
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_CONFIDENCE_FLOOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Influence.ConfidenceFloor = f
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_PATTERN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Patterns.Interval = d
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_PHI_CLOSING_RATIO"); v != "" {
		cfg.Patterns.IncludeClosingRatio = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MIRADOR_CONTEXT_POSITIONS_PATH"); v != "" {
		cfg.Patterns.PositionsPath = v
	}
	if v := os.Getenv("MIRADOR_CONTEXT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("MIRADOR_CONTEXT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("MIRADOR_CONTEXT_CACHE_PATTERN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.PatternTTL = d
		}
	}
}
