//go:build !windows

package firmware

import "errors"

func readSecureBootState() (SecureBootState, error) {
	return SecureBootUnknown, errors.New("secure boot state is only readable on windows")
}

func requestFirmwareSetup() error {
	return errors.New("boot-to-firmware is only supported on windows")
}
