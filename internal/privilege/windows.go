//go:build windows

package privilege

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"

	"golang.org/x/sys/windows"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// Firmware environment variable access requires this token privilege on
// top of administrative rights.
const firmwarePrivilege = "SeSystemEnvironmentPrivilege"

// OSProvider implements Provider against the Windows token model and UAC.
type OSProvider struct {
	Log *logger.Logger
}

var _ Provider = (*OSProvider)(nil)

func (p *OSProvider) IsElevated() bool {
	if !windows.GetCurrentProcessToken().IsElevated() {
		return false
	}
	// Firmware variable calls fail without this privilege even for an
	// administrator, so acquire it as part of the elevation check.
	if err := enableFirmwarePrivilege(); err != nil {
		p.Log.Error(err, "firmware environment privilege could not be enabled")
	}
	return true
}

func (p *OSProvider) RelaunchElevated(ctx context.Context, args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 1, errors.NewPrivilegeError("locating own executable for relaunch", err)
	}

	p.Log.WithFields(map[string]any{"args": args}).Info("requesting elevation")

	cmd := exec.CommandContext(ctx, "powershell.exe",
		"-NoProfile", "-NonInteractive", "-Command", elevationScript(exe, args))
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		p.Log.WithFields(map[string]any{"output": string(out)}).Error(err, "elevated relaunch failed")
		return 1, errors.NewPrivilegeError("elevated relaunch failed", err)
	}
	return 0, nil
}

func enableFirmwarePrivilege() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return err
	}
	defer token.Close()

	name, err := windows.UTF16PtrFromString(firmwarePrivilege)
	if err != nil {
		return err
	}
	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return err
	}

	privs := windows.Tokenprivileges{
		PrivilegeCount: 1,
		Privileges: [1]windows.LUIDAndAttributes{
			{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED},
		},
	}
	return windows.AdjustTokenPrivileges(token, false, &privs, 0, nil, nil)
}
