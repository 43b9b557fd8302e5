// Package config parses the loader's plain-text configuration file. The
// file is consumed, not owned: the boot-time loader reads the same file, so
// unknown lines are preserved semantics-wise by ignoring them here.
package config

import (
	"bufio"
	"os"
	"strings"

	bgerrors "github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// BootTargetVendor is the sentinel boot target meaning "fall back to the
// vendor boot loader".
const BootTargetVendor = "MS"

// FileName is the configuration file's name, both next to the executable
// and inside the install directory on the ESP.
const FileName = "config.txt"

// Image is one image declaration from the config file.
type Image struct {
	// Path is the ESP-relative EFI boot path of the installed image.
	Path string `validate:"required,startswith=\\"`
	// Options carries the raw option text preceding the path (placement,
	// weights); it is interpreted by the boot-time loader, not here.
	Options string
}

// Config is the parsed loader configuration.
type Config struct {
	// Images lists the picture files the loader may display.
	Images []Image `validate:"dive"`
	// BootTarget is the declared boot target: BootTargetVendor or an
	// absolute in-ESP path. Empty when no boot= line is present; the
	// verifier treats that as a hard failure, so parsing accepts it.
	BootTarget string `validate:"omitempty,boottarget"`
}

// Parse loads and parses the configuration file at path.
func Parse(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bgerrors.NewParseError(path, 0, err)
	}
	defer f.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(text, "image="):
			if img, ok := parseImage(strings.TrimPrefix(text, "image=")); ok {
				cfg.Images = append(cfg.Images, img)
			}
		case strings.HasPrefix(text, "boot="):
			// The last boot= line wins.
			cfg.BootTarget = strings.TrimSpace(strings.TrimPrefix(text, "boot="))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, bgerrors.NewParseError(path, line, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseImage extracts the path= component from an image declaration such as
// "x=10,y=20,path=\EFI\bootglyph\splash.bmp".
func parseImage(value string) (Image, bool) {
	idx := strings.Index(value, "path=")
	if idx < 0 {
		return Image{}, false
	}
	return Image{
		Path:    strings.TrimSpace(value[idx+len("path="):]),
		Options: strings.TrimSuffix(strings.TrimSpace(value[:idx]), ","),
	}, true
}
