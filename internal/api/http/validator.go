package http

import "github.com/go-playground/validator/v10"

// Validator plugs go-playground/validator into fiber's binder.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(out any) error {
	return v.validate.Struct(out)
}
