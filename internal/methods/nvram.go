package methods

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/firmware"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
)

// NVRAMEntry takes over the boot path with an additive firmware boot entry.
// No backup step is needed: firmware entries are independently removable.
type NVRAMEntry struct {
	Vars firmware.VarStore
	ESP  *esp.ESP
	Log  *logger.Logger
}

var _ Method = (*NVRAMEntry)(nil)

func (m *NVRAMEntry) Name() string { return "nvram-entry" }

func (m *NVRAMEntry) Enable(ctx context.Context) error {
	if err := m.Vars.CreateBootEntry(ctx, ProductLabel, deviceSpec(m.ESP), m.ESP.LoaderBootPath()); err != nil {
		return fmt.Errorf("create firmware boot entry: %w", err)
	}
	return nil
}

func (m *NVRAMEntry) Disable(ctx context.Context) error {
	if err := m.Vars.DeleteBootEntries(ctx, ProductLabel, m.ESP.LoaderBootPath()); err != nil {
		return fmt.Errorf("remove firmware boot entries: %w", err)
	}
	return nil
}

func (m *NVRAMEntry) IsActive(ctx context.Context) (bool, error) {
	return m.Vars.HasBootEntry(ctx, ProductLabel)
}
