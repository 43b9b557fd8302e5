package methods

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/bcd"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
)

// BCDEntry takes over the boot path through the boot-configuration store:
// the firmware boot manager's default object is cloned, repointed at the
// installed loader, stripped of inherited values that would leak unrelated
// boot configuration, and inserted at the front of the firmware display
// order.
type BCDEntry struct {
	Store bcd.Store
	ESP   *esp.ESP
	Log   *logger.Logger
}

var _ Method = (*BCDEntry)(nil)

func (m *BCDEntry) Name() string { return "bcd-entry" }

func (m *BCDEntry) Enable(ctx context.Context) error {
	id, err := m.Store.CloneDefault(ctx, ProductLabel)
	if err != nil {
		return err
	}
	m.Log.WithFields(map[string]any{"id": id}).Info("cloned boot manager entry")

	if err := m.Store.SetDevice(ctx, id, deviceSpec(m.ESP)); err != nil {
		return fmt.Errorf("repoint entry device: %w", err)
	}
	if err := m.Store.SetPath(ctx, id, m.ESP.LoaderBootPath()); err != nil {
		return fmt.Errorf("repoint entry path: %w", err)
	}
	for _, name := range bcd.StrippedValues {
		if err := m.Store.DeleteValue(ctx, id, name); err != nil {
			return fmt.Errorf("strip inherited value %s: %w", name, err)
		}
	}
	if err := m.Store.AddFirstDisplayOrder(ctx, id); err != nil {
		return fmt.Errorf("insert entry into display order: %w", err)
	}
	return nil
}

// Disable deletes every store object whose body carries the product
// signature. This is all-or-nothing in its reporting: when matches exist
// and any deletion fails, the whole operation fails, signalling an
// inconsistent store that needs manual cleanup.
func (m *BCDEntry) Disable(ctx context.Context) error {
	entries, err := m.Store.Enumerate(ctx)
	if err != nil {
		return err
	}

	var failed []string
	for _, e := range bcd.EntriesMatching(entries, ProductLabel) {
		if bcd.IsWellKnown(e.ID) {
			continue
		}
		if err := m.Store.Delete(ctx, e.ID); err != nil {
			m.Log.WithFields(map[string]any{"id": e.ID}).Error(err, "boot entry deletion failed")
			failed = append(failed, e.ID)
			continue
		}
		m.Log.WithFields(map[string]any{"id": e.ID}).Info("deleted boot entry")
	}

	if len(failed) > 0 {
		return fmt.Errorf("boot configuration store is inconsistent, entries %s could not be deleted; clean up manually with bcdedit", strings.Join(failed, ", "))
	}
	return nil
}

func (m *BCDEntry) IsActive(ctx context.Context) (bool, error) {
	entries, err := m.Store.Enumerate(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range bcd.EntriesMatching(entries, ProductLabel) {
		if !bcd.IsWellKnown(e.ID) {
			return true, nil
		}
	}
	return false, nil
}
