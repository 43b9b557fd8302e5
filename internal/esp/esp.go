// Package esp resolves and models the EFI System Partition the firmware
// reads at boot.
package esp

import (
	"os"
	"path/filepath"
	"strings"
)

// Well-known locations inside the ESP. Paths are stored slash-separated and
// converted to native separators when joined onto the resolved root.
const (
	vendorLoaderRel = "EFI/Microsoft/Boot/bootmgfw.efi"
	backupLoaderRel = "EFI/Microsoft/Boot/bootmgfw-original.efi"
	installDirRel   = "EFI/bootglyph"
	loaderFileName  = "loader.efi"
)

// ESP is a resolved EFI System Partition: a filesystem root plus the
// locations of the platform's native boot loader within it.
type ESP struct {
	Root string
}

// VendorLoaderPath returns the live path of the vendor boot manager.
func (e ESP) VendorLoaderPath() string {
	return filepath.Join(e.Root, filepath.FromSlash(vendorLoaderRel))
}

// BackupLoaderPath returns the side-car backup location for the vendor
// loader, a fixed sibling filename next to the live loader.
func (e ESP) BackupLoaderPath() string {
	return filepath.Join(e.Root, filepath.FromSlash(backupLoaderRel))
}

// InstallDir returns the product's install directory on this ESP.
func (e ESP) InstallDir() string {
	return filepath.Join(e.Root, filepath.FromSlash(installDirRel))
}

// LoaderPath returns the full filesystem path of the installed loader.
func (e ESP) LoaderPath() string {
	return filepath.Join(e.InstallDir(), loaderFileName)
}

// LoaderBootPath returns the installed loader location in EFI boot-path
// form, the backslash-separated ESP-relative path firmware and BCD use.
func (e ESP) LoaderBootPath() string {
	return `\` + strings.ReplaceAll(installDirRel, "/", `\`) + `\` + loaderFileName
}

// FilesystemPath converts an EFI boot path such as `\EFI\Vendor\loader.efi`
// into a filesystem path under this ESP's root.
func (e ESP) FilesystemPath(bootPath string) string {
	rel := strings.TrimPrefix(bootPath, `\`)
	rel = strings.ReplaceAll(rel, `\`, "/")
	return filepath.Join(e.Root, filepath.FromSlash(rel))
}

// Valid reports whether Root actually looks like an ESP: the EFI directory
// must exist beneath it.
func (e ESP) Valid() bool {
	info, err := os.Stat(filepath.Join(e.Root, "EFI"))
	return err == nil && info.IsDir()
}
