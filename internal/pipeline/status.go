package pipeline

import (
	"context"

	"github.com/alexisbeaulieu97/bootglyph/internal/loader"
	"github.com/alexisbeaulieu97/bootglyph/internal/manifest"
)

// Status is a read-only snapshot of what is currently on the machine,
// shown before the interactive menu and by status output.
type Status struct {
	ESPRoot        string
	LiveIdentity   loader.Identity
	BackupIdentity loader.Identity
	Manifest       *manifest.Manifest

	NVRAMActive     bool
	BCDActive       bool
	OverwriteActive bool
}

// Status inspects the resolved ESP and the boot stores. Store probes that
// fail are reported as inactive; classification never fails.
func (p *Pipeline) Status(ctx context.Context) (*Status, error) {
	e, err := p.Locator.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		ESPRoot:        e.Root,
		LiveIdentity:   loader.Classify(e.VendorLoaderPath()),
		BackupIdentity: loader.Classify(e.BackupLoaderPath()),
	}

	if m, err := manifest.Read(e.InstallDir()); err == nil {
		st.Manifest = m
	} else {
		p.Log.Error(err, "install manifest not readable")
	}

	st.NVRAMActive, _ = p.nvram(e).IsActive(ctx)
	st.BCDActive, _ = p.bcdEntry(e).IsActive(ctx)
	st.OverwriteActive, _ = p.overwrite(e).IsActive(ctx)
	return st, nil
}
