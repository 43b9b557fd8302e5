// Package verify checks that the boot configuration left behind by an
// enable operation is self-consistent before the process declares success.
// Its single job is to keep the machine out of a boot loop: the declared
// fallback target must exist and must not point back at the installed
// loader.
package verify

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/config"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/loader"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// Verifier validates the boot target declared in the loader configuration
// against the state of the resolved system partition.
type Verifier struct {
	ESP *esp.ESP
	Log *logger.Logger

	// AllowBadLoader downgrades verification failures to warnings and
	// suppresses the rollback. Set by the allow-bad-loader action.
	AllowBadLoader bool
}

// Rollback undoes the enable operation that triggered verification. It is
// invoked at most once, only on a hard verification failure.
type Rollback func(ctx context.Context) error

// Verify checks the declared boot target. On failure it runs the supplied
// rollback and returns a configuration error; with AllowBadLoader set it
// logs a warning instead and leaves the new configuration in place.
func (v *Verifier) Verify(ctx context.Context, bootTarget string, rollback Rollback) error {
	reason := v.check(bootTarget)
	if reason == "" {
		v.Log.WithFields(map[string]any{"target": bootTarget}).Debug("boot target verified")
		return nil
	}

	if v.AllowBadLoader {
		v.Log.WithFields(map[string]any{"target": bootTarget}).Warn("boot target verification skipped: " + reason)
		return nil
	}

	v.Log.WithFields(map[string]any{"target": bootTarget}).Error(nil, "boot target verification failed, rolling back")
	if rollback != nil {
		if rbErr := rollback(ctx); rbErr != nil {
			v.Log.Error(rbErr, "rollback after failed verification did not complete")
		}
	}
	return errors.NewValidationError("boot", reason, nil)
}

// check returns an empty string when the target is acceptable, otherwise a
// human-readable reason for rejection.
func (v *Verifier) check(bootTarget string) string {
	switch {
	case bootTarget == "":
		return "no boot target configured; add a boot= line to config.txt"

	case bootTarget == config.BootTargetVendor:
		backup := loader.Classify(v.ESP.BackupLoaderPath())
		if backup == loader.IdentityOwn {
			return "boot target MS would chain back into the installed loader: the vendor loader backup is a copy of it"
		}
		if backup == loader.IdentityAbsent && loader.Classify(v.ESP.VendorLoaderPath()) != loader.IdentityVendor {
			return "boot target MS has no vendor loader to fall back to"
		}
		return ""

	case !strings.HasPrefix(bootTarget, `\`):
		return "boot target must be MS or an absolute path starting with \\"

	default:
		switch loader.Classify(v.ESP.FilesystemPath(bootTarget)) {
		case loader.IdentityOwn:
			return "boot target points back at the installed loader"
		case loader.IdentityAbsent:
			return "boot target does not exist on the system partition"
		}
		return ""
	}
}
