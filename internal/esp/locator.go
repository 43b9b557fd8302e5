package esp

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	bgerrors "github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// Discoverer finds an ESP that is already reachable through the filesystem.
// It returns the empty string when nothing was found; errors are reserved
// for genuine failures of the discovery mechanism itself.
type Discoverer interface {
	Discover(ctx context.Context) (string, error)
}

// Mounter attempts to mount an unmounted ESP and returns its new root.
type Mounter interface {
	Mount(ctx context.Context) (string, error)
}

// PathPrompter asks the user for a manual ESP path. Implementations may
// return pkg/errors.ErrCancelled when the user backs out.
type PathPrompter interface {
	AskESPPath(ctx context.Context) (string, error)
}

// Locator resolves the EFI System Partition once per run. Resolution order:
// dry-run sandbox, cached result, auto-discovery, mount attempt, one
// interactive prompt (skipped in batch mode). Failing all of these is a
// terminal configuration error; there is no degraded mode.
type Locator struct {
	Discoverer Discoverer
	Mounter    Mounter
	Prompter   PathPrompter
	Log        *logger.Logger

	// DryRun redirects the whole run into a sandbox directory.
	DryRun bool
	// SandboxRoot overrides the sandbox location in dry-run mode. When
	// empty a directory is created under the system temp dir.
	SandboxRoot string
	// Batch suppresses the interactive prompt fallback.
	Batch bool

	cached *ESP
}

// Resolve returns the ESP for this run, locating it on first use.
func (l *Locator) Resolve(ctx context.Context) (*ESP, error) {
	if l.cached != nil {
		return l.cached, nil
	}

	if l.DryRun {
		e, err := l.sandbox(ctx)
		if err != nil {
			return nil, err
		}
		l.cached = e
		return e, nil
	}

	if l.Discoverer != nil {
		root, err := l.Discoverer.Discover(ctx)
		if err != nil {
			l.Log.Error(err, "esp auto-discovery failed")
		} else if root != "" {
			l.Log.WithFields(map[string]any{"root": root}).Info("found mounted esp")
			l.cached = &ESP{Root: root}
			return l.cached, nil
		}
	}

	if l.Mounter != nil {
		root, err := l.Mounter.Mount(ctx)
		if err != nil {
			l.Log.Error(err, "esp mount attempt failed")
		} else if root != "" {
			e := ESP{Root: root}
			if e.Valid() {
				l.Log.WithFields(map[string]any{"root": root}).Info("mounted esp")
				l.cached = &e
				return l.cached, nil
			}
			l.Log.WithFields(map[string]any{"root": root}).Warn("mounted volume is not an esp")
		}
	}

	if !l.Batch && l.Prompter != nil {
		path, err := l.Prompter.AskESPPath(ctx)
		if err != nil {
			return nil, err
		}
		e := ESP{Root: NormalizeRoot(path)}
		if e.Valid() {
			l.cached = &e
			return l.cached, nil
		}
		return nil, bgerrors.NewValidationError("esp", "path "+e.Root+" does not resolve to an EFI system partition", nil)
	}

	return nil, bgerrors.NewValidationError("esp", "could not locate the EFI system partition", nil)
}

// NormalizeRoot turns user input into a usable root path; a bare drive
// letter such as "S:" becomes the drive-root form "S:\".
func NormalizeRoot(path string) string {
	path = strings.TrimSpace(path)
	if len(path) == 2 && path[1] == ':' {
		return path + `\`
	}
	return path
}
