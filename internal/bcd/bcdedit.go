package bcd

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/shell"
)

// guidPattern matches the standard textual GUID form bcdedit prints.
// Identifiers are matched case-insensitively.
var guidPattern = regexp.MustCompile(`(?i)\{[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}`)

// EditStore is the production Store backed by the bcdedit tool.
type EditStore struct {
	Runner shell.Runner
	Log    *logger.Logger
}

var _ Store = (*EditStore)(nil)

// NewEditStore creates a bcdedit-backed store.
func NewEditStore(runner shell.Runner, log *logger.Logger) *EditStore {
	return &EditStore{Runner: runner, Log: log}
}

func (s *EditStore) CloneDefault(ctx context.Context, description string) (string, error) {
	out, err := s.Runner.Run(ctx, "bcdedit", "/copy", "{bootmgr}", "/d", description)
	if err != nil {
		return "", fmt.Errorf("clone boot manager entry: %w", err)
	}
	return extractIdentifier(out)
}

func (s *EditStore) CreateFirmwareEntry(ctx context.Context, label string) (string, error) {
	out, err := s.Runner.Run(ctx, "bcdedit", "/create", "/d", label, "/application", "bootapp")
	if err != nil {
		return "", fmt.Errorf("create firmware entry: %w", err)
	}
	return extractIdentifier(out)
}

func (s *EditStore) SetDevice(ctx context.Context, id, device string) error {
	_, err := s.Runner.Run(ctx, "bcdedit", "/set", id, "device", device)
	return err
}

func (s *EditStore) SetPath(ctx context.Context, id, path string) error {
	_, err := s.Runner.Run(ctx, "bcdedit", "/set", id, "path", path)
	return err
}

func (s *EditStore) DeleteValue(ctx context.Context, id, name string) error {
	out, err := s.Runner.Run(ctx, "bcdedit", "/deletevalue", id, name)
	if err == nil {
		return nil
	}
	// The value not existing is the common case on a fresh clone and is
	// not a failure. Anything else means the inherited value is still in
	// the entry and must stop the caller's strip step.
	if strings.Contains(strings.ToLower(out), "not found") {
		s.Log.WithFields(map[string]any{"id": id, "value": name}).Debug("value already absent")
		return nil
	}
	return fmt.Errorf("delete value %s from %s: %w", name, id, err)
}

func (s *EditStore) AddFirstDisplayOrder(ctx context.Context, id string) error {
	_, err := s.Runner.Run(ctx, "bcdedit", "/set", "{fwbootmgr}", "displayorder", id, "/addfirst")
	return err
}

func (s *EditStore) Enumerate(ctx context.Context) ([]Entry, error) {
	out, err := s.Runner.Run(ctx, "bcdedit", "/enum", "firmware")
	if err != nil {
		return nil, fmt.Errorf("enumerate firmware entries: %w", err)
	}
	return parseEntries(out), nil
}

func (s *EditStore) Delete(ctx context.Context, id string) error {
	_, err := s.Runner.Run(ctx, "bcdedit", "/delete", id, "/f")
	return err
}

// extractIdentifier pulls the first GUID out of tool output.
func extractIdentifier(out string) (string, error) {
	id := guidPattern.FindString(out)
	if id == "" {
		return "", fmt.Errorf("no entry identifier in output: %q", out)
	}
	return strings.ToLower(id), nil
}

// parseEntries splits an enumeration dump into per-object entries. Objects
// are separated by blank lines; the identifier line names the object, which
// may be a well-known alias (e.g. {fwbootmgr}) rather than a GUID.
func parseEntries(out string) []Entry {
	var entries []Entry

	blocks := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		id := ""
		for _, line := range strings.Split(block, "\n") {
			fields := strings.Fields(line)
			if len(fields) >= 2 && strings.EqualFold(fields[0], "identifier") {
				id = strings.ToLower(fields[1])
				break
			}
		}
		if id == "" {
			continue
		}
		entries = append(entries, Entry{ID: id, Body: block})
	}
	return entries
}

// IsWellKnown reports whether id names one of the manager objects that are
// never product entries, even if their body happens to reference one.
func IsWellKnown(id string) bool {
	return strings.EqualFold(id, "{fwbootmgr}") || strings.EqualFold(id, "{bootmgr}")
}

// EntriesMatching filters entries whose body contains the signature,
// compared case-insensitively.
func EntriesMatching(entries []Entry, signature string) []Entry {
	var matched []Entry
	needle := strings.ToLower(signature)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Body), needle) {
			matched = append(matched, e)
		}
	}
	return matched
}
