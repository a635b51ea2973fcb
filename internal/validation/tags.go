package validation

import (
	"github.com/go-playground/validator/v10"
)

// RegisterTags makes the account rules available as struct tags:
// phone_ci, fullname, password_policy and email_basic.
func RegisterTags(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone_ci": func(fl validator.FieldLevel) bool {
			return ValidatePhoneCI(fl.Field().String()).Valid
		},
		"fullname": func(fl validator.FieldLevel) bool {
			return ValidateFullName(fl.Field().String()).Valid
		},
		"password_policy": func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()).Valid
		},
		"email_basic": func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String()).Valid
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
