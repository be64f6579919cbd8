package patterns

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte("positions:\n  a: {x: 1.5, y: -2}\n  b: {x: 0, y: 3}\n"), 0o644); err != nil {
		t.Fatalf("write positions: %v", err)
	}
	positions, err := LoadPositions(path)
	if err != nil {
		t.Fatalf("LoadPositions: %v", err)
	}
	if len(positions) != 2 || positions["a"].X != 1.5 || positions["a"].Y != -2 {
		t.Fatalf("unexpected positions: %+v", positions)
	}

	missing, err := LoadPositions(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil || missing != nil {
		t.Fatalf("expected nil positions for missing file, got %v, %v", missing, err)
	}
}
