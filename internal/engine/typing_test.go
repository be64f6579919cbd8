package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miradorstack/mirador-context/internal/models"
)

func TestTypeRuleEngineClassify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := []byte(`rules:
  - id: lead-lag
    type: depends_on
    match:
      require: [temporal, statistical]
      min_strength: 0.5
  - id: co-located
    type: conflicts_with
    match:
      require: [spatial]
      forbid: [semantic]
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	engine, err := NewTypeRuleEngine(path, nil)
	if err != nil {
		t.Fatalf("NewTypeRuleEngine: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", engine.Len())
	}

	passed := map[models.Signal]bool{models.SignalTemporal: true, models.SignalStatistical: true}
	if typ, id, ok := engine.Classify(passed, 0.6); !ok || typ != models.EdgeDependsOn || id != "lead-lag" {
		t.Fatalf("expected lead-lag match, got %s %s %v", typ, id, ok)
	}
	if _, _, ok := engine.Classify(passed, 0.4); ok {
		t.Fatalf("expected min_strength to block the match")
	}

	passed = map[models.Signal]bool{models.SignalSpatial: true, models.SignalSemantic: true}
	if typ, _, ok := engine.Classify(passed, 0.9); ok || typ != models.EdgeRelatedTo {
		t.Fatalf("expected forbid to block the match, got %s", typ)
	}
}

func TestTypeRuleEngineMissingFile(t *testing.T) {
	engine, err := NewTypeRuleEngine(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if engine != nil {
		t.Fatalf("expected nil engine")
	}
	if typ, _, ok := engine.Classify(map[models.Signal]bool{models.SignalSemantic: true}, 1); ok || typ != models.EdgeRelatedTo {
		t.Fatalf("nil engine should classify as related_to")
	}
}

func TestParseTypeRulesValidates(t *testing.T) {
	if _, err := ParseTypeRules([]byte("rules:\n  - id: x\n    type: befriends\n"), nil); err == nil {
		t.Fatalf("expected unknown edge type error")
	}
	if _, err := ParseTypeRules([]byte("rules:\n  - id: x\n    type: supports\n    match:\n      require: [vibes]\n"), nil); err == nil {
		t.Fatalf("expected unknown signal error")
	}
}
