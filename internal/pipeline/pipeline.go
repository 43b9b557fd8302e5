// Package pipeline sequences the named actions of a run: elevation, ESP
// resolution, Secure Boot gating, installation-method dispatch and the
// post-enable verification, strictly left to right and stopping at the
// first failure.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alexisbeaulieu97/bootglyph/internal/bcd"
	"github.com/alexisbeaulieu97/bootglyph/internal/config"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/firmware"
	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/methods"
	"github.com/alexisbeaulieu97/bootglyph/internal/privilege"
	"github.com/alexisbeaulieu97/bootglyph/internal/verify"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// Decision is the user's answer to the Secure Boot prompt.
type Decision int

const (
	// DecisionCancel aborts the run.
	DecisionCancel Decision = iota
	// DecisionContinue proceeds despite Secure Boot.
	DecisionContinue
	// DecisionReboot reboots into firmware setup instead of continuing.
	DecisionReboot
)

// Prompter asks the user for Secure Boot decisions in interactive runs.
type Prompter interface {
	ConfirmInsecureBoot(ctx context.Context, state firmware.SecureBootState) (Decision, error)
}

// Pipeline wires the run's capabilities together and executes action lists.
type Pipeline struct {
	Session   *Session
	Locator   *esp.Locator
	Store     bcd.Store
	Vars      firmware.VarStore
	Privilege privilege.Provider
	Prompter  Prompter
	Log       *logger.Logger
	Version   string
}

// Run executes the action list in order. It returns the first action's
// error, already labelled with the action name; a nil return means every
// action completed.
func (p *Pipeline) Run(ctx context.Context, actions []string) error {
	if len(actions) == 0 {
		return errors.NewValidationError("actions", "no actions given", nil)
	}
	for _, a := range actions {
		if !KnownAction(a) {
			return errors.NewValidationError("actions", fmt.Sprintf("unknown action %q", a), nil)
		}
	}

	if p.needsElevation(actions) {
		code, err := p.Privilege.RelaunchElevated(ctx, p.Session.ForwardArgs(actions))
		if err != nil {
			return err
		}
		if code != 0 {
			return errors.NewPrivilegeError(fmt.Sprintf("privileged action failed (exit code %d)", code), nil)
		}
		return nil
	}

	for _, action := range actions {
		p.Log.WithFields(map[string]any{"action": action}).Debug("running action")
		if err := p.dispatch(ctx, action); err != nil {
			if errors.IsCancel(err) {
				return err
			}
			return errors.NewExecutionError(action, err)
		}
		if action == ActionBootToFirmware {
			// The machine is rebooting; nothing after this can run.
			return nil
		}
	}
	return nil
}

// needsElevation reports whether this process must hop across the
// elevation boundary before executing: at least one non-flag action, not a
// dry run, not already hopped, and not already privileged.
func (p *Pipeline) needsElevation(actions []string) bool {
	privileged := false
	for _, a := range actions {
		if !sessionFlags[a] {
			privileged = true
			break
		}
	}
	return privileged && !p.Session.DryRun && !p.Session.Elevated && !p.Privilege.IsElevated()
}

func (p *Pipeline) dispatch(ctx context.Context, action string) error {
	switch action {
	case ActionAllowSecureBoot:
		p.Session.AllowSecureBoot = true
		return nil
	case ActionAllowBadLoader:
		p.Session.AllowBadLoader = true
		return nil
	case ActionBootToFirmware:
		return p.Vars.BootToFirmwareSetup(ctx)
	}

	e, err := p.Locator.Resolve(ctx)
	if err != nil {
		return err
	}

	switch action {
	case ActionInstall:
		return p.install(ctx, e)
	case ActionEnableEntry:
		return p.enable(ctx, e, p.nvram(e))
	case ActionDisableEntry:
		return p.nvram(e).Disable(ctx)
	case ActionEnableBCDEdit:
		return p.enable(ctx, e, p.bcdEntry(e))
	case ActionDisableBCDEdit:
		return p.bcdEntry(e).Disable(ctx)
	case ActionEnableOverwrite:
		return p.enable(ctx, e, p.overwrite(e))
	case ActionDisableOverwrite:
		return p.overwrite(e).Disable(ctx)
	case ActionDisable:
		return p.disableAll(ctx, e)
	case ActionUninstall:
		return p.uninstall(ctx, e)
	default:
		return fmt.Errorf("unhandled action %q", action)
	}
}

// enable runs one installation method's Enable behind the Secure Boot gate
// and verifies the resulting configuration, rolling the method back on a
// failed verification.
func (p *Pipeline) enable(ctx context.Context, e *esp.ESP, m methods.Method) error {
	if err := p.gateSecureBoot(ctx); err != nil {
		return err
	}
	if err := m.Enable(ctx); err != nil {
		return err
	}
	return p.verifyEnable(ctx, e, m)
}

// verifyEnable checks the boot target declared in the installed config
// file. An unreadable or unparseable config is treated like a failed
// verification: the method is rolled back unless the bad-loader override
// is set.
func (p *Pipeline) verifyEnable(ctx context.Context, e *esp.ESP, m methods.Method) error {
	v := &verify.Verifier{ESP: e, Log: p.Log, AllowBadLoader: p.Session.AllowBadLoader}
	rollback := func(ctx context.Context) error { return m.Disable(ctx) }

	cfg, err := config.Parse(filepath.Join(e.InstallDir(), config.FileName))
	if err != nil {
		if p.Session.AllowBadLoader {
			p.Log.Error(err, "loader config unreadable, verification skipped on request")
			return nil
		}
		p.Log.Error(err, "loader config unreadable, rolling back")
		if rbErr := rollback(ctx); rbErr != nil {
			p.Log.Error(rbErr, "rollback after unreadable config did not complete")
		}
		return errors.NewValidationError("config", "loader config could not be read", err)
	}
	return v.Verify(ctx, cfg.BootTarget, rollback)
}

// gateSecureBoot enforces the Secure Boot state machine before an enable:
// disabled proceeds, enabled or unknown needs the allow flag in batch mode
// or an explicit user decision interactively.
func (p *Pipeline) gateSecureBoot(ctx context.Context) error {
	state := p.Vars.SecureBoot(ctx)
	if state == firmware.SecureBootDisabled {
		return nil
	}
	if p.Session.AllowSecureBoot {
		p.Log.Warn("secure boot is " + state.String() + ", continuing on request")
		return nil
	}
	if p.Session.Batch || p.Prompter == nil {
		return errors.NewValidationError("secure-boot",
			"secure boot is "+state.String()+"; disable it in firmware setup or pass allow-secure-boot", nil)
	}

	decision, err := p.Prompter.ConfirmInsecureBoot(ctx, state)
	if err != nil {
		return err
	}
	switch decision {
	case DecisionContinue:
		p.Session.AllowSecureBoot = true
		return nil
	case DecisionReboot:
		if err := p.Vars.BootToFirmwareSetup(ctx); err != nil {
			return err
		}
		return errors.ErrCancelled
	default:
		return errors.NewValidationError("secure-boot", "cancelled at the secure boot check", nil)
	}
}

func (p *Pipeline) nvram(e *esp.ESP) *methods.NVRAMEntry {
	return &methods.NVRAMEntry{Vars: p.Vars, ESP: e, Log: p.Log}
}

func (p *Pipeline) bcdEntry(e *esp.ESP) *methods.BCDEntry {
	return &methods.BCDEntry{Store: p.Store, ESP: e, Log: p.Log}
}

func (p *Pipeline) overwrite(e *esp.ESP) *methods.Overwrite {
	return &methods.Overwrite{ESP: e, Log: p.Log}
}
