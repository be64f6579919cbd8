package patterns

import (
	"context"

	"github.com/miradorstack/mirador-context/internal/models"
)

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, report models.PatternReport) error

// StoreReport implements Store.
func (f StoreFunc) StoreReport(ctx context.Context, report models.PatternReport) error {
	return f(ctx, report)
}
