// Package firmware is the capability port over the machine's NVRAM boot
// configuration: boot entries, the Secure Boot state, and the reboot-to-
// firmware-setup request. The orchestration core only ever talks to the
// VarStore interface.
package firmware

import "context"

// SecureBootState reflects the platform's Secure Boot configuration.
type SecureBootState int

const (
	// SecureBootUnknown means the state could not be read; treated as
	// conservatively as SecureBootEnabled by the pipeline.
	SecureBootUnknown SecureBootState = iota
	// SecureBootDisabled allows foreign loaders to boot.
	SecureBootDisabled
	// SecureBootEnabled will reject an unsigned loader at boot.
	SecureBootEnabled
)

func (s SecureBootState) String() string {
	switch s {
	case SecureBootDisabled:
		return "disabled"
	case SecureBootEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// VarStore abstracts firmware NVRAM boot state.
type VarStore interface {
	// CreateBootEntry adds a firmware boot entry with the given label,
	// pointing at an EFI boot path on the given device, and puts it first
	// in the boot order. Entries are additive; creating one never touches
	// existing entries.
	CreateBootEntry(ctx context.Context, label, device, path string) error
	// DeleteBootEntries removes every firmware entry carrying the label or
	// the path. Removing entries that do not exist is a no-op.
	DeleteBootEntries(ctx context.Context, label, path string) error
	// HasBootEntry reports whether any firmware entry carries the label.
	HasBootEntry(ctx context.Context, label string) (bool, error)
	// SecureBoot reads the current Secure Boot state.
	SecureBoot(ctx context.Context) SecureBootState
	// BootToFirmwareSetup asks the firmware to open its setup UI on the
	// next boot and reboots the machine. It does not return on success
	// paths that complete the reboot synchronously.
	BootToFirmwareSetup(ctx context.Context) error
}
