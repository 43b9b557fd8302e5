package esp

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/shell"
)

// DriveScanner discovers an already-mounted ESP by probing drive roots for
// the vendor boot directory. The probe list defaults to every drive letter.
type DriveScanner struct {
	Roots []string
}

var _ Discoverer = (*DriveScanner)(nil)

// Discover returns the first probed root that holds the vendor boot
// manager, or the empty string when none does.
func (s *DriveScanner) Discover(_ context.Context) (string, error) {
	roots := s.Roots
	if len(roots) == 0 {
		for c := 'A'; c <= 'Z'; c++ {
			roots = append(roots, string(c)+`:\`)
		}
	}

	for _, root := range roots {
		loader := ESP{Root: root}.VendorLoaderPath()
		if _, err := os.Stat(loader); err == nil {
			return root, nil
		}
	}
	return "", nil
}

// MountvolMounter mounts the unmounted ESP onto a free drive letter using
// the platform mount tool (mountvol <letter> /S).
type MountvolMounter struct {
	Runner shell.Runner
	Log    *logger.Logger
}

var _ Mounter = (*MountvolMounter)(nil)

// Mount walks candidate drive letters from Z: downward and returns the
// first root the tool accepts.
func (m *MountvolMounter) Mount(ctx context.Context) (string, error) {
	for c := 'Z'; c >= 'N'; c-- {
		letter := string(c) + ":"
		if driveInUse(letter) {
			continue
		}

		out, err := m.Runner.Run(ctx, "mountvol", letter, "/S")
		if err != nil {
			m.Log.WithFields(map[string]any{"letter": letter, "output": out}).Debug("mountvol rejected drive letter")
			continue
		}
		return letter + `\`, nil
	}
	return "", errors.New("no drive letter accepted the esp mount")
}

func driveInUse(letter string) bool {
	_, err := os.Stat(filepath.FromSlash(letter + `\`))
	return err == nil
}
