package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/bootglyph/internal/bcd"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/firmware"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/pipeline"
	"github.com/alexisbeaulieu97/bootglyph/internal/privilege"
	"github.com/alexisbeaulieu97/bootglyph/internal/shell"
	"github.com/alexisbeaulieu97/bootglyph/internal/tui"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

type rootFlags struct {
	dryRun     bool
	batch      bool
	arch       string
	isElevated bool
}

// runPipeline is replaced in tests.
var runPipeline = func(ctx context.Context, p *pipeline.Pipeline, actions []string) error {
	return p.Run(ctx, actions)
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "bootglyph [action ...]",
		Short: "bootglyph installs a custom UEFI boot loader alongside or in place of the Windows boot manager",
		Long: `bootglyph installs a custom UEFI boot loader on the EFI system partition
and points the firmware at it. Actions run left to right:

  ` + strings.Join(pipeline.Actions, "\n  ") + `

Without actions, an interactive menu opens.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), log, flags, args)
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Run against a sandbox instead of the real EFI system partition")
	cmd.PersistentFlags().BoolVar(&flags.batch, "batch", false, "Never prompt; fail where a prompt would be needed")
	cmd.PersistentFlags().StringVar(&flags.arch, "arch", "", "EFI architecture override (ia32, ia64, x64, aa64); empty autodetects")
	cmd.PersistentFlags().BoolVar(&flags.isElevated, "is-elevated", false, "Marks a relaunched elevated child")
	_ = cmd.PersistentFlags().MarkHidden("is-elevated")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

func run(ctx context.Context, log *logger.Logger, flags *rootFlags, actions []string) error {
	interactive := !flags.batch && isTerminal()

	session := &pipeline.Session{
		Arch:           flags.arch,
		ArchOverridden: flags.arch != "",
		DryRun:         flags.dryRun,
		Batch:          flags.batch,
		Elevated:       flags.isElevated,
		SourceDir:      executableDir(),
	}
	p := newPipeline(session, log, interactive)

	if len(actions) == 0 {
		if !interactive {
			return errors.NewValidationError("actions", "batch mode needs at least one action", nil)
		}
		st, err := p.Status(ctx)
		if err != nil {
			log.Error(err, "machine state could not be inspected")
		}
		actions, err = tui.ChooseActions(st)
		if err != nil {
			return err
		}
	}

	return runPipeline(ctx, p, actions)
}

// newPipeline wires the run's capabilities. Dry-run swaps the boot stores
// for in-memory recorders; the locator handles the filesystem sandbox.
func newPipeline(session *pipeline.Session, log *logger.Logger, interactive bool) *pipeline.Pipeline {
	runner := shell.NewExecRunner(log)

	locator := &esp.Locator{
		Discoverer: &esp.DriveScanner{},
		Mounter:    &esp.MountvolMounter{Runner: runner, Log: log},
		Log:        log,
		DryRun:     session.DryRun,
		Batch:      session.Batch,
	}
	if interactive {
		locator.Prompter = tui.ESPPathPrompt{}
	}

	var store bcd.Store
	var vars firmware.VarStore
	if session.DryRun {
		store = bcd.NewMemStore()
		vars = firmware.NewMemVarStore()
	} else {
		store = bcd.NewEditStore(runner, log)
		vars = firmware.NewNVRAMStore(store, runner, log)
	}

	p := &pipeline.Pipeline{
		Session:   session,
		Locator:   locator,
		Store:     store,
		Vars:      vars,
		Privilege: &privilege.OSProvider{Log: log},
		Log:       log,
		Version:   version,
	}
	if interactive {
		p.Prompter = tui.SecureBootPrompt{}
	}
	return p
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
