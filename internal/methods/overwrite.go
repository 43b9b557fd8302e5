package methods

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/loader"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	bgerrors "github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// Overwrite takes over the boot path by replacing the vendor boot manager
// with the installed loader, keeping a verified side-car backup of the
// original. This is the only strategy that can leave the machine unbootable
// when it goes wrong, so every step re-classifies what is actually on disk
// before touching it.
type Overwrite struct {
	ESP *esp.ESP
	Log *logger.Logger
}

var _ Method = (*Overwrite)(nil)

// copyFn is swapped by tests to inject copy failures.
var copyFn = CopyFile

func (m *Overwrite) Name() string { return "overwrite" }

func (m *Overwrite) Enable(ctx context.Context) error {
	live := m.ESP.VendorLoaderPath()
	backup := m.ESP.BackupLoaderPath()

	// Snapshot only while the live path still holds the vendor loader;
	// a repeated run must not clobber the existing backup with a copy of
	// our own loader.
	if loader.Classify(live) == loader.IdentityVendor {
		if err := copyFn(live, backup); err != nil {
			return fmt.Errorf("back up vendor loader: %w", err)
		}
		m.Log.WithFields(map[string]any{"backup": backup}).Info("vendor loader backed up")
	}

	// Never overwrite the only vendor copy without a verified backup.
	if id := loader.Classify(backup); id != loader.IdentityVendor {
		return bgerrors.NewValidationError("backup",
			fmt.Sprintf("vendor loader backup at %s classifies as %s; refusing to overwrite without a verified backup", backup, id), nil)
	}

	if err := copyFn(m.ESP.LoaderPath(), live); err != nil {
		return m.rollbackEnable(live, backup, err)
	}
	m.Log.WithFields(map[string]any{"live": live}).Info("vendor loader replaced")
	return nil
}

// rollbackEnable attempts the single automatic rollback after a failed
// overwrite. The restore is skipped when the live path still classifies as
// the vendor loader: a partial failure may have left it valid, and
// clobbering it again only adds risk.
func (m *Overwrite) rollbackEnable(live, backup string, cause error) error {
	if loader.Classify(live) == loader.IdentityVendor {
		return fmt.Errorf("replace vendor loader (live path left intact): %w", cause)
	}

	if rerr := copyFn(backup, live); rerr != nil {
		return bgerrors.NewRecoveryError(
			"the vendor boot loader could not be restored after a failed overwrite; the machine may not boot. Prepare recovery media before rebooting",
			errors.Join(cause, rerr))
	}
	m.Log.Warn("overwrite failed; vendor loader restored from backup")
	return fmt.Errorf("replace vendor loader (restored from backup): %w", cause)
}

func (m *Overwrite) Disable(_ context.Context) error {
	live := m.ESP.VendorLoaderPath()
	backup := m.ESP.BackupLoaderPath()

	backupID := loader.Classify(backup)
	if backupID == loader.IdentityOwn {
		// A backup holding our own loader is useless and dangerous; the
		// only safe move is removing it so it can never be "restored".
		// The live path still needs inspecting below: if our loader also
		// holds it, there is now nothing left to restore from.
		if err := os.Remove(backup); err != nil {
			return fmt.Errorf("remove corrupted backup: %w", err)
		}
		m.Log.Warn("backup classified as own loader; removed")
		backupID = loader.IdentityAbsent
	}

	// Restore only what we installed. A vendor or third-party loader on
	// the live path is left alone.
	if loader.Classify(live) != loader.IdentityOwn {
		return nil
	}

	if backupID != loader.IdentityVendor {
		return bgerrors.NewRecoveryError(
			fmt.Sprintf("the live boot loader is this product's but the backup at %s classifies as %s; restore the vendor loader manually", backup, backupID), nil)
	}

	if err := copyFn(backup, live); err != nil {
		return fmt.Errorf("restore vendor loader: %w", err)
	}
	if err := os.Remove(backup); err != nil {
		m.Log.Error(err, "backup removal failed after restore")
	}
	m.Log.Info("vendor loader restored")
	return nil
}

func (m *Overwrite) IsActive(_ context.Context) (bool, error) {
	return loader.Classify(m.ESP.VendorLoaderPath()) == loader.IdentityOwn, nil
}
