package firmware

import (
	"context"
	"strings"
)

// BootEntry is one recorded firmware entry in a MemVarStore.
type BootEntry struct {
	Label  string
	Device string
	Path   string
}

// MemVarStore records firmware mutations in memory. It backs dry-run mode
// and tests; detection reads behave like a machine whose state is whatever
// the test (or earlier dry-run actions) put there.
type MemVarStore struct {
	Entries         []BootEntry
	SecureBootState SecureBootState
	FirmwareSetup   bool
}

var _ VarStore = (*MemVarStore)(nil)

// NewMemVarStore creates a store with Secure Boot disabled.
func NewMemVarStore() *MemVarStore {
	return &MemVarStore{SecureBootState: SecureBootDisabled}
}

func (s *MemVarStore) CreateBootEntry(_ context.Context, label, device, path string) error {
	s.Entries = append([]BootEntry{{Label: label, Device: device, Path: path}}, s.Entries...)
	return nil
}

func (s *MemVarStore) DeleteBootEntries(_ context.Context, label, path string) error {
	kept := s.Entries[:0]
	for _, e := range s.Entries {
		if strings.EqualFold(e.Label, label) || strings.EqualFold(e.Path, path) {
			continue
		}
		kept = append(kept, e)
	}
	s.Entries = kept
	return nil
}

func (s *MemVarStore) HasBootEntry(_ context.Context, label string) (bool, error) {
	for _, e := range s.Entries {
		if strings.EqualFold(e.Label, label) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemVarStore) SecureBoot(_ context.Context) SecureBootState {
	return s.SecureBootState
}

func (s *MemVarStore) BootToFirmwareSetup(_ context.Context) error {
	s.FirmwareSetup = true
	return nil
}
