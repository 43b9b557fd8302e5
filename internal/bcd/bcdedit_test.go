package bcd

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string
	fail    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{outputs: map[string]string{}, fail: map[string]error{}}
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	key := name + " " + strings.Join(args, " ")
	// The real runner hands back the tool's combined output even when the
	// tool exits non-zero, so failures carry any configured output too.
	var output string
	for prefix, out := range r.outputs {
		if strings.HasPrefix(key, prefix) {
			output = out
		}
	}
	for prefix, err := range r.fail {
		if strings.HasPrefix(key, prefix) {
			return output, err
		}
	}
	return output, nil
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error", Writer: os.Stderr})
	require.NoError(t, err)
	return log
}

const enumOutput = "Firmware Boot Manager\r\n" +
	"---------------------\r\n" +
	"identifier              {fwbootmgr}\r\n" +
	"displayorder            {bootmgr}\r\n" +
	"                        {9DEA862C-5CDD-4E70-ACC1-F32B344D4795}\r\n" +
	"\r\n" +
	"Windows Boot Manager\r\n" +
	"--------------------\r\n" +
	"identifier              {bootmgr}\r\n" +
	"device                  partition=\\Device\\HarddiskVolume1\r\n" +
	"path                    \\EFI\\Microsoft\\Boot\\bootmgfw.efi\r\n" +
	"description             Windows Boot Manager\r\n" +
	"\r\n" +
	"Firmware Application (101fffff)\r\n" +
	"-------------------------------\r\n" +
	"identifier              {9DEA862C-5CDD-4E70-ACC1-F32B344D4795}\r\n" +
	"description             BootGlyph\r\n" +
	"path                    \\EFI\\bootglyph\\loader.efi\r\n"

func TestCloneDefaultExtractsIdentifier(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs["bcdedit /copy"] = "The entry was successfully copied to {9dea862c-5cdd-4e70-acc1-f32b344d4795}."
	store := NewEditStore(runner, testLog(t))

	id, err := store.CloneDefault(context.Background(), "BootGlyph")
	require.NoError(t, err)
	require.Equal(t, "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", id)
	require.Equal(t, []string{"/copy", "{bootmgr}", "/d", "BootGlyph"}, runner.calls[0].args)
}

func TestCloneDefaultFailsWithoutIdentifier(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs["bcdedit /copy"] = "The boot configuration data store could not be opened."
	store := NewEditStore(runner, testLog(t))

	_, err := store.CloneDefault(context.Background(), "BootGlyph")
	require.Error(t, err)
}

func TestCreateFirmwareEntryUppercaseGUIDNormalized(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs["bcdedit /create"] = "The entry {9DEA862C-5CDD-4E70-ACC1-F32B344D4795} was successfully created."
	store := NewEditStore(runner, testLog(t))

	id, err := store.CreateFirmwareEntry(context.Background(), "BootGlyph")
	require.NoError(t, err)
	require.Equal(t, "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", id)
}

func TestDeleteValueAbsorbsMissingValue(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs["bcdedit /deletevalue"] = "The specified element data type was not found."
	runner.fail["bcdedit /deletevalue"] = errors.New("exit status 1")
	store := NewEditStore(runner, testLog(t))

	require.NoError(t, store.DeleteValue(context.Background(), "{bootmgr}", ValueTimeout))
}

func TestDeleteValuePropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	// Any failure other than the value being absent means the inherited
	// value is still in the entry; the strip step must see it.
	runner := newFakeRunner()
	runner.outputs["bcdedit /deletevalue"] = "Access is denied."
	runner.fail["bcdedit /deletevalue"] = errors.New("exit status 1")
	store := NewEditStore(runner, testLog(t))

	err := store.DeleteValue(context.Background(), "{bootmgr}", ValueDisplayOrder)
	require.Error(t, err)
	require.Contains(t, err.Error(), ValueDisplayOrder)
}

func TestEnumerateParsesBlocks(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	runner.outputs["bcdedit /enum firmware"] = enumOutput
	store := NewEditStore(runner, testLog(t))

	entries, err := store.Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "{fwbootmgr}", entries[0].ID)
	require.Equal(t, "{bootmgr}", entries[1].ID)
	require.Equal(t, "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", entries[2].ID)
	require.Contains(t, entries[2].Body, "BootGlyph")
}

func TestEntriesMatchingIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	entries := parseEntries(enumOutput)
	matched := EntriesMatching(entries, "BOOTGLYPH")
	require.Len(t, matched, 1)
	require.Equal(t, "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", matched[0].ID)
}

func TestAddFirstDisplayOrderTargetsFirmwareManager(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	store := NewEditStore(runner, testLog(t))

	require.NoError(t, store.AddFirstDisplayOrder(context.Background(), "{9dea862c-5cdd-4e70-acc1-f32b344d4795}"))
	require.Equal(t, []string{"/set", "{fwbootmgr}", "displayorder", "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", "/addfirst"}, runner.calls[0].args)
}

func TestDeleteForcesRemoval(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner()
	store := NewEditStore(runner, testLog(t))

	require.NoError(t, store.Delete(context.Background(), "{9dea862c-5cdd-4e70-acc1-f32b344d4795}"))
	require.Equal(t, []string{"/delete", "{9dea862c-5cdd-4e70-acc1-f32b344d4795}", "/f"}, runner.calls[0].args)
}
