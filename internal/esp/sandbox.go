package esp

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// Placeholder written when no real vendor loader can be copied into the
// sandbox. It carries the vendor marker, and only the vendor marker, so
// classification behaves the same as against a real ESP.
const sandboxVendorLoader = "Microsoft Windows Boot Manager (dry-run placeholder)\n"

// sandbox synthesizes a throwaway ESP layout for dry-run mode. Detection
// logic still prefers real state: when a real ESP is discoverable its vendor
// loader is copied into the sandbox so classification and architecture
// detection see genuine bytes.
func (l *Locator) sandbox(ctx context.Context) (*ESP, error) {
	root := l.SandboxRoot
	if root == "" {
		dir, err := os.MkdirTemp("", "bootglyph-dryrun-")
		if err != nil {
			return nil, err
		}
		root = dir
	}

	e := ESP{Root: root}
	if err := os.MkdirAll(filepath.Dir(e.VendorLoaderPath()), 0o755); err != nil {
		return nil, err
	}

	if _, err := os.Stat(e.VendorLoaderPath()); err == nil {
		l.Log.WithFields(map[string]any{"root": root}).Info("dry-run sandbox reused")
		return &e, nil
	}

	if l.Discoverer != nil {
		if realRoot, err := l.Discoverer.Discover(ctx); err == nil && realRoot != "" {
			real := ESP{Root: realRoot}
			if err := copySandboxFile(real.VendorLoaderPath(), e.VendorLoaderPath()); err == nil {
				l.Log.WithFields(map[string]any{"root": root, "from": realRoot}).Info("dry-run sandbox seeded from real esp")
				return &e, nil
			}
		}
	}

	if err := os.WriteFile(e.VendorLoaderPath(), []byte(sandboxVendorLoader), 0o644); err != nil {
		return nil, err
	}
	l.Log.WithFields(map[string]any{"root": root}).Info("dry-run sandbox created")
	return &e, nil
}

func copySandboxFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
