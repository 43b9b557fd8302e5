// Package privilege answers whether the process can touch the system
// partition, firmware variables and the boot-configuration store, and
// re-launches the executable elevated when it cannot.
package privilege

import (
	"context"
	"strings"
)

// Provider abstracts the platform's elevation model.
type Provider interface {
	// IsElevated reports whether the process holds administrative rights.
	// A true result also means the firmware-variable privilege has been
	// acquired, since every privileged action here needs both.
	IsElevated() bool

	// RelaunchElevated re-runs this executable with an elevation request,
	// passing exactly the given arguments, waits for it to finish and
	// returns its exit code.
	RelaunchElevated(ctx context.Context, args []string) (int, error)
}

// elevationScript builds the PowerShell command that re-launches exe with
// an elevation prompt, blocks until the child exits and propagates its exit
// code. Arguments are passed explicitly, never the original command line.
func elevationScript(exe string, args []string) string {
	var b strings.Builder
	b.WriteString("$p = Start-Process -FilePath ")
	b.WriteString(psQuote(exe))
	if len(args) > 0 {
		quoted := make([]string, len(args))
		for i, a := range args {
			quoted[i] = psQuote(a)
		}
		b.WriteString(" -ArgumentList ")
		b.WriteString(strings.Join(quoted, ","))
	}
	b.WriteString(" -Verb RunAs -Wait -PassThru; exit $p.ExitCode")
	return b.String()
}

// psQuote wraps s in PowerShell single quotes, doubling embedded quotes.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
