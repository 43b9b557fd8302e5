package pipeline

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/bootglyph/internal/bcd"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/firmware"
	"github.com/alexisbeaulieu97/bootglyph/internal/loader"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/manifest"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Options{Level: "error", Writer: os.Stderr})
	require.NoError(t, err)
	return log
}

// vendorImage builds a minimal x64 PE image carrying the vendor marker, so
// it both classifies as the vendor loader and yields an architecture.
func vendorImage() []byte {
	data := make([]byte, 0x80)
	data[0] = 'M'
	data[1] = 'Z'
	binary.LittleEndian.PutUint32(data[0x3c:], 0x40)
	copy(data[0x40:], []byte{'P', 'E', 0, 0})
	binary.LittleEndian.PutUint16(data[0x44:], 0x8664)
	return append(data, []byte("Microsoft Boot Manager")...)
}

type fakeDiscoverer struct{ root string }

func (d fakeDiscoverer) Discover(context.Context) (string, error) { return d.root, nil }

type fakePrivilege struct {
	elevated  bool
	exitCode  int
	relaunces [][]string
}

func (f *fakePrivilege) IsElevated() bool { return f.elevated }

func (f *fakePrivilege) RelaunchElevated(_ context.Context, args []string) (int, error) {
	f.relaunces = append(f.relaunces, args)
	return f.exitCode, nil
}

type fakePrompter struct {
	decision Decision
	calls    int
}

func (f *fakePrompter) ConfirmInsecureBoot(context.Context, firmware.SecureBootState) (Decision, error) {
	f.calls++
	return f.decision, nil
}

type testEnv struct {
	pipeline *Pipeline
	esp      *esp.ESP
	vars     *firmware.MemVarStore
	store    *bcd.MemStore
}

// newEnv lays out an ESP with a real-looking vendor loader, a source
// directory with the shipped files, and a pipeline wired to in-memory boot
// stores. The config declares the given boot target.
func newEnv(t *testing.T, bootTarget string) *testEnv {
	t.Helper()

	root := t.TempDir()
	e := &esp.ESP{Root: root}
	require.NoError(t, os.MkdirAll(filepath.Dir(e.VendorLoaderPath()), 0o755))
	require.NoError(t, os.WriteFile(e.VendorLoaderPath(), vendorImage(), 0o644))

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "config.txt"), []byte("boot="+bootTarget+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bootglyph-x64.efi"), []byte("BootGlyph loader binary"), 0o644))

	vars := firmware.NewMemVarStore()
	store := bcd.NewMemStore()
	p := &Pipeline{
		Session:   &Session{Batch: true, SourceDir: src},
		Locator:   &esp.Locator{Discoverer: fakeDiscoverer{root: root}, Log: testLog(t), Batch: true},
		Store:     store,
		Vars:      vars,
		Privilege: &fakePrivilege{elevated: true},
		Log:       testLog(t),
		Version:   "test",
	}
	return &testEnv{pipeline: p, esp: e, vars: vars, store: store}
}

func TestRunRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	err := env.pipeline.Run(context.Background(), []string{"install", "self-destruct"})
	require.Error(t, err)

	var vErr *errors.ValidationError
	require.ErrorAs(t, err, &vErr)
	// Nothing ran: the list is rejected as a whole.
	require.NoDirExists(t, env.esp.InstallDir())
}

func TestRunRejectsEmptyActionList(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.Error(t, env.pipeline.Run(context.Background(), nil))
}

func TestElevationHopForwardsExplicitArgsOnly(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	priv := &fakePrivilege{elevated: false}
	env.pipeline.Privilege = priv
	env.pipeline.Session.ArchOverridden = true
	env.pipeline.Session.Arch = "x64"

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-entry"}))

	require.Len(t, priv.relaunces, 1)
	require.Equal(t,
		[]string{"--is-elevated", "--batch", "--arch", "x64", "install", "enable-entry"},
		priv.relaunces[0])
	// The parent does not execute anything itself.
	require.NoDirExists(t, env.esp.InstallDir())
}

func TestElevationChildFailurePropagates(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.pipeline.Privilege = &fakePrivilege{elevated: false, exitCode: 1}

	err := env.pipeline.Run(context.Background(), []string{"install"})
	var pErr *errors.PrivilegeError
	require.ErrorAs(t, err, &pErr)
}

func TestFlagOnlyListNeedsNoElevation(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	priv := &fakePrivilege{elevated: false}
	env.pipeline.Privilege = priv

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"allow-secure-boot", "allow-bad-loader"}))
	require.Empty(t, priv.relaunces)
	require.True(t, env.pipeline.Session.AllowSecureBoot)
	require.True(t, env.pipeline.Session.AllowBadLoader)
}

func TestDryRunSkipsElevation(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	priv := &fakePrivilege{elevated: false}
	env.pipeline.Privilege = priv
	env.pipeline.Session.DryRun = true
	env.pipeline.Locator.DryRun = true
	env.pipeline.Locator.SandboxRoot = env.esp.Root

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install"}))
	require.Empty(t, priv.relaunces)
}

func TestInstallThenEnableEntry(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-entry"}))

	// Files landed on the ESP.
	require.FileExists(t, filepath.Join(env.esp.InstallDir(), "config.txt"))
	require.Equal(t, loader.IdentityOwn, loader.Classify(env.esp.LoaderPath()))

	m, err := manifest.Read(env.esp.InstallDir())
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "x64", m.Arch)

	// The NVRAM method is additive: no vendor-loader backup is made.
	require.Equal(t, loader.IdentityAbsent, loader.Classify(env.esp.BackupLoaderPath()))

	require.Len(t, env.vars.Entries, 1)
	require.Equal(t, "BootGlyph", env.vars.Entries[0].Label)
}

func TestInstallFailsWithoutArchDetectionOrOverride(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	// Replace the vendor loader with something that is not a PE image.
	require.NoError(t, os.WriteFile(env.esp.VendorLoaderPath(), []byte("Microsoft placeholder"), 0o644))

	err := env.pipeline.Run(context.Background(), []string{"install"})
	require.Error(t, err)

	var eErr *errors.ExecutionError
	require.ErrorAs(t, err, &eErr)
	require.Equal(t, "install", eErr.Action)
}

func TestSecureBootBatchRequiresAllowFlag(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.vars.SecureBootState = firmware.SecureBootEnabled

	err := env.pipeline.Run(context.Background(), []string{"install", "enable-entry"})
	require.Error(t, err)

	var eErr *errors.ExecutionError
	require.ErrorAs(t, err, &eErr)
	require.Equal(t, "enable-entry", eErr.Action)
	require.Empty(t, env.vars.Entries)
}

func TestSecureBootAllowFlagMustPrecedeTheEnable(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.vars.SecureBootState = firmware.SecureBootUnknown

	require.NoError(t, env.pipeline.Run(context.Background(),
		[]string{"allow-secure-boot", "install", "enable-entry"}))
	require.Len(t, env.vars.Entries, 1)
}

func TestSecureBootPromptContinue(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.vars.SecureBootState = firmware.SecureBootEnabled
	env.pipeline.Session.Batch = false
	prompter := &fakePrompter{decision: DecisionContinue}
	env.pipeline.Prompter = prompter

	require.NoError(t, env.pipeline.Run(context.Background(),
		[]string{"install", "enable-entry", "enable-bcdedit"}))
	// The decision sticks for the rest of the run.
	require.Equal(t, 1, prompter.calls)
}

func TestSecureBootPromptReboot(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.vars.SecureBootState = firmware.SecureBootEnabled
	env.pipeline.Session.Batch = false
	env.pipeline.Prompter = &fakePrompter{decision: DecisionReboot}

	err := env.pipeline.Run(context.Background(), []string{"install", "enable-entry"})
	require.True(t, errors.IsCancel(err))
	require.Zero(t, errors.ExitCode(err))
	require.True(t, env.vars.FirmwareSetup)
	require.Empty(t, env.vars.Entries)
}

func TestSecureBootPromptCancelIsFailure(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	env.vars.SecureBootState = firmware.SecureBootEnabled
	env.pipeline.Session.Batch = false
	env.pipeline.Prompter = &fakePrompter{decision: DecisionCancel}

	err := env.pipeline.Run(context.Background(), []string{"install", "enable-entry"})
	require.Error(t, err)
	require.False(t, errors.IsCancel(err))
	require.Equal(t, 1, errors.ExitCode(err))
}

func TestFailedVerificationRollsBackTheEnable(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `\EFI\gone\loader.efi`)

	err := env.pipeline.Run(context.Background(), []string{"install", "enable-entry"})
	require.Error(t, err)

	var eErr *errors.ExecutionError
	require.ErrorAs(t, err, &eErr)
	require.Equal(t, "enable-entry", eErr.Action)
	require.Empty(t, env.vars.Entries)
}

func TestAllowBadLoaderSkipsVerificationRollback(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `\EFI\gone\loader.efi`)

	require.NoError(t, env.pipeline.Run(context.Background(),
		[]string{"allow-bad-loader", "install", "enable-entry"}))
	require.Len(t, env.vars.Entries, 1)
}

func TestDryRunFreshSandboxSupportsOverwrite(t *testing.T) {
	t.Parallel()

	// With no real ESP to seed from, the sandbox's synthesized vendor
	// loader must classify as the vendor's so the backup snapshot and the
	// MS fallback verification behave exactly like a real run.
	env := newEnv(t, "MS")
	sandbox := t.TempDir()
	env.pipeline.Session.DryRun = true
	env.pipeline.Session.Arch = "x64"
	env.pipeline.Session.ArchOverridden = true
	env.pipeline.Locator = &esp.Locator{DryRun: true, SandboxRoot: sandbox, Log: testLog(t)}

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-overwrite"}))

	e := &esp.ESP{Root: sandbox}
	require.Equal(t, loader.IdentityOwn, loader.Classify(e.VendorLoaderPath()))
	require.Equal(t, loader.IdentityVendor, loader.Classify(e.BackupLoaderPath()))
}

func TestOverwriteEnableThenDisableRoundTrips(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	vendor := readFile(t, env.esp.VendorLoaderPath())

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-overwrite"}))
	require.Equal(t, loader.IdentityOwn, loader.Classify(env.esp.VendorLoaderPath()))
	require.Equal(t, vendor, readFile(t, env.esp.BackupLoaderPath()))

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"disable-overwrite"}))
	require.Equal(t, vendor, readFile(t, env.esp.VendorLoaderPath()))
	require.NoFileExists(t, env.esp.BackupLoaderPath())
}

func TestDisableComposesAllMethods(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.NoError(t, env.pipeline.Run(context.Background(),
		[]string{"install", "enable-entry", "enable-bcdedit", "enable-overwrite"}))

	require.NoError(t, env.pipeline.Run(context.Background(), []string{"disable"}))

	require.Empty(t, env.vars.Entries)
	entries, err := env.store.Enumerate(context.Background())
	require.NoError(t, err)
	require.Empty(t, bcd.EntriesMatching(entries, "BootGlyph"))
	require.Equal(t, loader.IdentityVendor, loader.Classify(env.esp.VendorLoaderPath()))
	// The install directory is left in place; only uninstall removes it.
	require.DirExists(t, env.esp.InstallDir())
}

func TestUninstallRemovesInstallDirectory(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-entry"}))
	require.NoError(t, env.pipeline.Run(context.Background(), []string{"uninstall"}))

	require.Empty(t, env.vars.Entries)
	require.NoDirExists(t, env.esp.InstallDir())
}

func TestBootToFirmwareIsTerminal(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.NoError(t, env.pipeline.Run(context.Background(), []string{"boot-to-fw", "install"}))
	require.True(t, env.vars.FirmwareSetup)
	// Actions after the reboot request never run.
	require.NoDirExists(t, env.esp.InstallDir())
}

func TestStatusReflectsMachineState(t *testing.T) {
	t.Parallel()

	env := newEnv(t, "MS")
	require.NoError(t, env.pipeline.Run(context.Background(), []string{"install", "enable-entry"}))

	st, err := env.pipeline.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, env.esp.Root, st.ESPRoot)
	require.Equal(t, loader.IdentityVendor, st.LiveIdentity)
	require.Equal(t, loader.IdentityAbsent, st.BackupIdentity)
	require.True(t, st.NVRAMActive)
	require.False(t, st.BCDActive)
	require.False(t, st.OverwriteActive)
	require.NotNil(t, st.Manifest)
	require.Equal(t, "x64", st.Manifest.Arch)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
