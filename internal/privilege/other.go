//go:build !windows

package privilege

import (
	"context"

	"github.com/alexisbeaulieu97/bootglyph/internal/logger"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// OSProvider on non-Windows platforms never requests elevation; the boot
// configuration being managed only exists on Windows, so anything that
// reaches a privileged call fails there instead.
type OSProvider struct {
	Log *logger.Logger
}

var _ Provider = (*OSProvider)(nil)

func (p *OSProvider) IsElevated() bool { return true }

func (p *OSProvider) RelaunchElevated(context.Context, []string) (int, error) {
	return 1, errors.NewPrivilegeError("elevation is only supported on windows", nil)
}
