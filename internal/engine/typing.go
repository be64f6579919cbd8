package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-context/internal/models"
)

// TypeRuleEngine picks an edge type for a promoted pair from the pattern of
// signals that passed.
type TypeRuleEngine struct {
	rules  []TypeRule
	logger *slog.Logger
}

// TypeRule maps a pass pattern to an edge type.
type TypeRule struct {
	ID    string        `yaml:"id"`
	Type  string        `yaml:"type"`
	Match TypeRuleMatch `yaml:"match"`
}

// TypeRuleMatch lists the conditions of a rule. Empty fields match anything.
type TypeRuleMatch struct {
	Require     []string `yaml:"require"`
	Forbid      []string `yaml:"forbid"`
	MinStrength float64  `yaml:"min_strength"`
}

// TypeRuleFile is the YAML root structure.
type TypeRuleFile struct {
	Rules []TypeRule `yaml:"rules"`
}

// NewTypeRuleEngine loads rules from path. An empty path or a missing file
// yields a nil engine, which classifies everything as related_to.
func NewTypeRuleEngine(path string, logger *slog.Logger) (*TypeRuleEngine, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseTypeRules(data, logger)
}

// ParseTypeRules decodes and validates a YAML rule pack.
func ParseTypeRules(data []byte, logger *slog.Logger) (*TypeRuleEngine, error) {
	var file TypeRuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse edge type rules: %w", err)
	}
	for _, rule := range file.Rules {
		if !models.EdgeType(rule.Type).Valid() {
			return nil, fmt.Errorf("rule %q: unknown edge type %q", rule.ID, rule.Type)
		}
		for _, name := range append(append([]string{}, rule.Match.Require...), rule.Match.Forbid...) {
			if _, ok := models.ParseSignal(name); !ok {
				return nil, fmt.Errorf("rule %q: unknown signal %q", rule.ID, name)
			}
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TypeRuleEngine{rules: file.Rules, logger: logger}, nil
}

// Len reports the number of loaded rules.
func (e *TypeRuleEngine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}

// Classify returns the type of the first rule matching passed and strength.
func (e *TypeRuleEngine) Classify(passed map[models.Signal]bool, strength float64) (models.EdgeType, string, bool) {
	if e == nil {
		return models.EdgeRelatedTo, "", false
	}
	for _, rule := range e.rules {
		if strength < rule.Match.MinStrength {
			continue
		}
		if !allPassed(rule.Match.Require, passed) || anyPassed(rule.Match.Forbid, passed) {
			continue
		}
		return models.EdgeType(rule.Type), rule.ID, true
	}
	return models.EdgeRelatedTo, "", false
}

func allPassed(names []string, passed map[models.Signal]bool) bool {
	for _, name := range names {
		if !passed[models.Signal(name)] {
			return false
		}
	}
	return true
}

func anyPassed(names []string, passed map[models.Signal]bool) bool {
	for _, name := range names {
		if passed[models.Signal(name)] {
			return true
		}
	}
	return false
}
