//go:build windows

package firmware

import (
	"fmt"
	"syscall"
	"unsafe"
)

// EFI global variable vendor GUID, the namespace of SecureBoot and
// OsIndications.
const efiGlobalGUID = "{8BE4DF61-93CA-11D2-AA0D-00E098032B8C}"

// Variable attributes: non-volatile, boot-service and runtime access.
const efiVariableAttributes = 0x00000007

// OsIndications bit asking the firmware to open its setup UI on next boot.
const bootToFirmwareUI = 0x0000000000000001

var (
	libKernel32 = syscall.NewLazyDLL("kernel32.dll")

	procGetFirmwareEnvironmentVariableExW = libKernel32.NewProc("GetFirmwareEnvironmentVariableExW")
	procSetFirmwareEnvironmentVariableExW = libKernel32.NewProc("SetFirmwareEnvironmentVariableExW")
)

func readFirmwareVariable(name string) ([]byte, error) {
	bName, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	bGUID, err := syscall.UTF16PtrFromString(efiGlobalGUID)
	if err != nil {
		return nil, err
	}

	var attrs uint32
	buf := make([]byte, 4096)

	// err is never nil from Proc.Call; r1 == 0 signals failure.
	r1, _, callErr := procGetFirmwareEnvironmentVariableExW.Call(
		uintptr(unsafe.Pointer(bName)),
		uintptr(unsafe.Pointer(bGUID)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&attrs)),
	)
	if r1 == 0 {
		return nil, fmt.Errorf("read firmware variable %s: %w", name, callErr)
	}
	return buf[:uint32(r1)], nil
}

func writeFirmwareVariable(name string, value []byte) error {
	bName, err := syscall.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	bGUID, err := syscall.UTF16PtrFromString(efiGlobalGUID)
	if err != nil {
		return err
	}

	r1, _, callErr := procSetFirmwareEnvironmentVariableExW.Call(
		uintptr(unsafe.Pointer(bName)),
		uintptr(unsafe.Pointer(bGUID)),
		uintptr(unsafe.Pointer(&value[0])),
		uintptr(len(value)),
		uintptr(efiVariableAttributes),
	)
	if r1 == 0 {
		return fmt.Errorf("write firmware variable %s: %w", name, callErr)
	}
	return nil
}

func readSecureBootState() (SecureBootState, error) {
	data, err := readFirmwareVariable("SecureBoot")
	if err != nil {
		return SecureBootUnknown, err
	}
	if len(data) < 1 {
		return SecureBootUnknown, fmt.Errorf("secure boot variable is empty")
	}
	if data[0] == 1 {
		return SecureBootEnabled, nil
	}
	return SecureBootDisabled, nil
}

func requestFirmwareSetup() error {
	supported, err := readFirmwareVariable("OsIndicationsSupported")
	if err != nil {
		return err
	}
	if len(supported) < 8 || le64(supported)&bootToFirmwareUI == 0 {
		return fmt.Errorf("firmware does not support booting to its setup UI")
	}

	var indications uint64
	if current, err := readFirmwareVariable("OsIndications"); err == nil && len(current) >= 8 {
		indications = le64(current)
	}
	indications |= bootToFirmwareUI

	value := make([]byte, 8)
	for i := 0; i < 8; i++ {
		value[i] = byte(indications >> (8 * i))
	}
	return writeFirmwareVariable("OsIndications", value)
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
