// Package loader inspects boot-loader binaries: it classifies who a binary
// belongs to and detects which CPU architecture it targets.
package loader

import (
	"bytes"
	"os"
)

// Identity is the result of content-signature classification of a
// boot-loader binary.
type Identity string

const (
	// IdentityAbsent means the file could not be read at all.
	IdentityAbsent Identity = "absent"
	// IdentityOwn means the binary is this product's loader.
	IdentityOwn Identity = "own"
	// IdentityVendor means the binary is the platform vendor's boot manager.
	IdentityVendor Identity = "vendor"
	// IdentityOther means the binary is readable but carries neither marker.
	IdentityOther Identity = "other"
)

const (
	ownMarker    = "bootglyph"
	vendorMarker = "microsoft"
)

// Classify reads the binary at path and scans its content for brand markers.
// The scan is case-insensitive and deliberately coarse: any readable file
// containing the own-loader marker classifies as IdentityOwn, any containing
// the vendor marker as IdentityVendor. Binary structure is never validated;
// the consumers only ever ask "is this mine", "is this still the vendor's"
// or "is this neither", and a marker scan stays correct across loader
// versions. Every read failure, including permission errors, degrades to
// IdentityAbsent.
func Classify(path string) Identity {
	data, err := os.ReadFile(path)
	if err != nil {
		return IdentityAbsent
	}

	content := bytes.ToLower(data)
	if bytes.Contains(content, []byte(ownMarker)) {
		return IdentityOwn
	}
	if bytes.Contains(content, []byte(vendorMarker)) {
		return IdentityVendor
	}
	return IdentityOther
}
