package main

import (
	"fmt"
	"os"
	"path/filepath"

	stderrors "errors"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/internal/tui"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// logFileName sits next to the executable and is only ever appended to.
const logFileName = "bootglyph.log"

func main() {
	log, err := logger.New(logger.Options{
		Level:         "info",
		HumanReadable: true,
		FilePath:      filepath.Join(executableDir(), logFileName),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	err = newRootCmd(log).Execute()
	if err != nil {
		report(log, err)
	}
	log.Close()
	os.Exit(errors.ExitCode(err))
}

// report writes the failure in its user-facing tier. Recoverable
// configuration and privilege problems print as-is; a failed recovery is
// escalated to the severe tier; anything unrecognized is an internal error
// and asks for a bug report.
func report(log *logger.Logger, err error) {
	if errors.IsCancel(err) {
		fmt.Fprintln(os.Stderr, "cancelled")
		return
	}

	var rErr *errors.RecoveryError
	if stderrors.As(err, &rErr) {
		log.Error(err, "recovery failed")
		fmt.Fprintln(os.Stderr, tui.RenderSevere(
			"ERROR: "+err.Error()+"\nThe machine may not boot. Prepare recovery media before rebooting."))
		return
	}

	var vErr *errors.ValidationError
	var eErr *errors.ExecutionError
	var pErr *errors.PrivilegeError
	var parseErr *errors.ParseError
	if stderrors.As(err, &vErr) || stderrors.As(err, &eErr) || stderrors.As(err, &pErr) || stderrors.As(err, &parseErr) {
		log.Error(err, "run failed")
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		return
	}

	log.Error(err, "unexpected error")
	fmt.Fprintln(os.Stderr, "Unexpected error: "+err.Error())
	fmt.Fprintln(os.Stderr, "This looks like a bug; please report it with the bootglyph.log file attached.")
}

// executableDir is where the shipped loader binaries, config file and log
// live. Falls back to the working directory when the executable path is
// unavailable.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
