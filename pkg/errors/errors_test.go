package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("config.txt", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "config.txt", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "config.txt")
}

func TestValidationErrorCarriesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("boot", "no boot target declared", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "boot", validationErr.Field)
	require.Contains(t, validationErr.Message, "no boot target")
}

func TestExecutionErrorIncludesActionContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("copy failed")
	err := NewExecutionError("enable-overwrite", underlying)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "enable-overwrite", execErr.Action)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "enable-overwrite")
}

func TestPrivilegeErrorMessage(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("exit status 1")
	err := NewPrivilegeError("elevated run failed", underlying)

	var privErr *PrivilegeError
	require.ErrorAs(t, err, &privErr)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "elevated run failed")
}

func TestRecoveryErrorIsMostSevereTier(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("restore failed")
	err := NewRecoveryError("vendor loader could not be restored", underlying)

	var recErr *RecoveryError
	require.ErrorAs(t, err, &recErr)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "recovery required")
}

func TestExitCodeMapping(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, 0, ExitCode(ErrCancelled))
	require.Equal(t, 0, ExitCode(fmt.Errorf("menu: %w", ErrCancelled)))
	require.Equal(t, 1, ExitCode(NewValidationError("esp", "not found", nil)))
	require.Equal(t, 1, ExitCode(stdErrors.New("boom")))
}

func TestIsCancelMatchesWrappedErrors(t *testing.T) {
	t.Parallel()

	require.True(t, IsCancel(fmt.Errorf("wrapped: %w", ErrCancelled)))
	require.False(t, IsCancel(stdErrors.New("other")))
}
