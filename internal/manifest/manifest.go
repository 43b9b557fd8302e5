// Package manifest records what an install run put on the system
// partition, so later status and uninstall runs know what they are
// looking at without re-deriving it.
package manifest

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// FileName is the manifest's location inside the install directory.
const FileName = "manifest.yaml"

// Manifest describes one completed install.
type Manifest struct {
	Version     string    `yaml:"version"`
	Arch        string    `yaml:"arch"`
	InstalledAt time.Time `yaml:"installed_at"`
	Methods     []string  `yaml:"methods,omitempty"`
}

// Write persists m into the given install directory.
func Write(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}

// Read loads the manifest from the given install directory. A missing file
// returns (nil, nil): the product may have been installed by an older
// version or not at all.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.NewParseError(path, 0, err)
	}
	return &m, nil
}
