package loader

import (
	"encoding/binary"
	"fmt"
	"os"
)

// EFI loader architecture names as they appear in boot file names.
const (
	ArchIA32 = "ia32"
	ArchIA64 = "ia64"
	ArchX64  = "x64"
	ArchAA64 = "aa64"
)

// PE machine-type values for the supported architectures.
const (
	machineI386  = 0x014c
	machineIA64  = 0x0200
	machineAMD64 = 0x8664
	machineARM64 = 0xaa64
)

const peHeaderOffsetLocation = 0x3c

// DetectArchitecture reads the PE machine-type field of the executable at
// path and maps it to an EFI architecture name. Unmapped machine values
// yield an "unknown-<hex>" placeholder so diagnostics can show the raw
// value. Any I/O, bounds, or signature failure yields the empty string,
// meaning "no architecture detected"; callers treat that as "skip the
// architecture check", never as an error.
func DetectArchitecture(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	if len(data) < peHeaderOffsetLocation+4 {
		return ""
	}
	if data[0] != 'M' || data[1] != 'Z' {
		return ""
	}

	peOffset := binary.LittleEndian.Uint32(data[peHeaderOffsetLocation:])
	// Machine type is two bytes past the 4-byte "PE\0\0" signature.
	if uint64(peOffset)+6 > uint64(len(data)) {
		return ""
	}
	if data[peOffset] != 'P' || data[peOffset+1] != 'E' || data[peOffset+2] != 0 || data[peOffset+3] != 0 {
		return ""
	}

	machine := binary.LittleEndian.Uint16(data[peOffset+4:])
	switch machine {
	case machineI386:
		return ArchIA32
	case machineIA64:
		return ArchIA64
	case machineAMD64:
		return ArchX64
	case machineARM64:
		return ArchAA64
	default:
		return fmt.Sprintf("unknown-%04x", machine)
	}
}
