// Package shell runs external system tools (bcdedit, mountvol, shutdown)
// behind a narrow interface so callers never touch exec plumbing and tests
// can substitute canned output.
package shell

import (
	"context"
	"os/exec"
	"strings"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
)

// Runner executes a named tool and returns its combined output. Calls block
// until the child exits; there is deliberately no timeout, a hung system
// tool hangs the run.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	log *logger.Logger
}

// NewExecRunner creates an ExecRunner that logs every invocation.
func NewExecRunner(log *logger.Logger) *ExecRunner {
	return &ExecRunner{log: log}
}

var _ Runner = (*ExecRunner)(nil)

// Run executes the tool and returns trimmed combined output. Failures are
// logged with the full output before being returned, so the log retains the
// detail even when the caller converts the error into a coarser message.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))

	if err != nil {
		r.log.WithFields(map[string]any{
			"tool":   name,
			"args":   strings.Join(args, " "),
			"output": output,
		}).Error(err, "external tool failed")
		return output, err
	}

	r.log.WithFields(map[string]any{
		"tool": name,
		"args": strings.Join(args, " "),
	}).Debug("external tool succeeded")
	return output, nil
}
