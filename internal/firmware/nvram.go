package firmware

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/bootglyph/internal/bcd"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/shell"
)

// NVRAMStore is the production VarStore. Boot entries are managed through
// the boot-configuration tool's firmware namespace; the Secure Boot state
// and the setup-UI request go through firmware environment variables.
type NVRAMStore struct {
	Store  bcd.Store
	Runner shell.Runner
	Log    *logger.Logger
}

var _ VarStore = (*NVRAMStore)(nil)

// NewNVRAMStore creates the production store.
func NewNVRAMStore(store bcd.Store, runner shell.Runner, log *logger.Logger) *NVRAMStore {
	return &NVRAMStore{Store: store, Runner: runner, Log: log}
}

func (s *NVRAMStore) CreateBootEntry(ctx context.Context, label, device, path string) error {
	id, err := s.Store.CreateFirmwareEntry(ctx, label)
	if err != nil {
		return err
	}
	if err := s.Store.SetDevice(ctx, id, device); err != nil {
		return fmt.Errorf("set entry device: %w", err)
	}
	if err := s.Store.SetPath(ctx, id, path); err != nil {
		return fmt.Errorf("set entry path: %w", err)
	}
	if err := s.Store.AddFirstDisplayOrder(ctx, id); err != nil {
		return fmt.Errorf("add entry to boot order: %w", err)
	}
	s.Log.WithFields(map[string]any{"id": id, "label": label, "path": path}).Info("created firmware boot entry")
	return nil
}

func (s *NVRAMStore) DeleteBootEntries(ctx context.Context, label, path string) error {
	entries, err := s.Store.Enumerate(ctx)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	var errs []error
	for _, e := range append(bcd.EntriesMatching(entries, label), bcd.EntriesMatching(entries, path)...) {
		if seen[e.ID] || bcd.IsWellKnown(e.ID) {
			continue
		}
		seen[e.ID] = true
		if err := s.Store.Delete(ctx, e.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", e.ID, err))
			continue
		}
		s.Log.WithFields(map[string]any{"id": e.ID}).Info("deleted firmware boot entry")
	}
	return errors.Join(errs...)
}

func (s *NVRAMStore) HasBootEntry(ctx context.Context, label string) (bool, error) {
	entries, err := s.Store.Enumerate(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range bcd.EntriesMatching(entries, label) {
		if !bcd.IsWellKnown(e.ID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *NVRAMStore) SecureBoot(_ context.Context) SecureBootState {
	state, err := readSecureBootState()
	if err != nil {
		s.Log.Error(err, "secure boot state could not be read")
		return SecureBootUnknown
	}
	return state
}

func (s *NVRAMStore) BootToFirmwareSetup(ctx context.Context) error {
	if err := requestFirmwareSetup(); err != nil {
		return fmt.Errorf("request firmware setup: %w", err)
	}
	if _, err := s.Runner.Run(ctx, "shutdown", "/r", "/t", "0"); err != nil {
		return fmt.Errorf("reboot request failed: %w", err)
	}
	return nil
}
