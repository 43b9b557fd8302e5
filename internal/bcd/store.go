// Package bcd adapts the platform boot-configuration store. All bcdedit
// invocation and GUID scraping lives here so installation logic only ever
// sees entry identifiers and opaque bodies.
package bcd

import "context"

// Inherited value names stripped from a cloned boot-manager object so the
// new entry does not leak unrelated boot configuration.
const (
	ValueLocale       = "locale"
	ValueInherit      = "inherit"
	ValueDefault      = "default"
	ValueDisplayOrder = "displayorder"
	ValueTimeout      = "timeout"
)

// StrippedValues is the full set removed after cloning.
var StrippedValues = []string{ValueLocale, ValueInherit, ValueDefault, ValueDisplayOrder, ValueTimeout}

// Entry is one boot-configuration object: its identifier in standard GUID
// textual form plus the raw dump of its body.
type Entry struct {
	ID   string
	Body string
}

// Store is the narrow port over the boot-configuration store.
type Store interface {
	// CloneDefault copies the firmware boot manager's default object and
	// returns the new object's identifier.
	CloneDefault(ctx context.Context, description string) (string, error)
	// CreateFirmwareEntry creates a fresh firmware boot application object.
	CreateFirmwareEntry(ctx context.Context, label string) (string, error)
	// SetDevice points the object at a partition (e.g. "partition=S:").
	SetDevice(ctx context.Context, id, device string) error
	// SetPath sets the object's loader path in EFI boot-path form.
	SetPath(ctx context.Context, id, path string) error
	// DeleteValue removes a named value from the object. Removing a value
	// the object never had is not an error.
	DeleteValue(ctx context.Context, id, name string) error
	// AddFirstDisplayOrder inserts the object at the front of the firmware
	// display order.
	AddFirstDisplayOrder(ctx context.Context, id string) error
	// Enumerate lists every firmware boot-configuration object.
	Enumerate(ctx context.Context) ([]Entry, error)
	// Delete removes the object entirely.
	Delete(ctx context.Context, id string) error
}
