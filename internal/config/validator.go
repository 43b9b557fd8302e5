package config

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	bgerrors "github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// A boot target is the vendor sentinel or an absolute EFI path.
		_ = v.RegisterValidation("boottarget", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == BootTargetVendor || strings.HasPrefix(value, `\`)
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema validation on the parsed configuration. The boot
// target is deliberately not validated here: its correctness is the
// verifier's job, which owns the rollback decision.
func Validate(cfg *Config) error {
	if cfg == nil {
		return bgerrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func convertValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return bgerrors.NewValidationError(first.Namespace(), "failed rule "+first.Tag(), err)
	}
	return bgerrors.NewValidationError("config", err.Error(), err)
}
