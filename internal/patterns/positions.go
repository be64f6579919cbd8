package patterns

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/mirador-context/internal/models"
)

type positionsFile struct {
	Positions map[string]models.Point `yaml:"positions"`
}

// LoadPositions reads a 2D layout keyed by node id:
//
//	positions:
//	  node-a: {x: 1.0, y: 0.5}
//
// An empty path or a missing file returns nil, which disables spiral detection.
func LoadPositions(path string) (map[string]models.Point, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var file positionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}
	if file.Positions == nil {
		file.Positions = map[string]models.Point{}
	}
	return file.Positions, nil
}
