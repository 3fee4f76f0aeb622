package onboard

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/cloudfive/onboard/session"
)

// newPayloadValidator builds the boundary validator for intake payloads.
// Mobile numbers must match the configured national format (default
// Philippine: 639 followed by nine digits, no plus sign on intake); email
// addresses must be syntactically valid.
func newPayloadValidator(pattern string) (*validator.Validate, error) {
	rgx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	v := validator.New()
	if err := v.RegisterValidation("natmobile", func(fl validator.FieldLevel) bool {
		return rgx.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Engine) validateIntake(rec *session.Record) error {
	if err := e.validate.Var(rec.MobileNumber, "required,natmobile"); err != nil {
		return ErrInvalidMobileNumber
	}
	if err := e.validate.Var(rec.EmailAddress, "required,email"); err != nil {
		return ErrInvalidEmailAddress
	}
	return nil
}
