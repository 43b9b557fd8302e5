// Package methods implements the three mutually-independent strategies for
// taking over the platform boot path. Each pairs an Enable operation with an
// idempotent Disable; Disable never requires state Enable might not have
// produced. The strategies do not enforce exclusivity: enabling one does not
// disable another.
package methods

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
)

// ProductLabel is the signature string used for firmware entries, BCD entry
// descriptions, and BCD body matching.
const ProductLabel = "BootGlyph"

// Method is one installation strategy.
type Method interface {
	Name() string
	Enable(ctx context.Context) error
	// Disable rolls the strategy back. It must be safe to call even when
	// the strategy was never enabled.
	Disable(ctx context.Context) error
	// IsActive reports whether the strategy currently holds the boot path.
	IsActive(ctx context.Context) (bool, error)
}

// deviceSpec renders the ESP root in the partition syntax the boot stores
// expect: `S:\` becomes `partition=S:`.
func deviceSpec(e *esp.ESP) string {
	return "partition=" + strings.TrimSuffix(e.Root, `\`)
}
