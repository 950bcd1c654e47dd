// Package validator runs ozzo-validation rules and converts failures into errcode errors
package validator

import (
	"errors"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validatable anything with ozzo-style validation
type Validatable interface {
	Validate() error
}

// Validate runs v.Validate and converts field errors into errcode.ErrValidation
func Validate(v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(fieldErrs)
	}
	return errcode.ErrValidation.Wrap(err)
}

// ConvertValidationError flattens nested field errors into "section.field" keys
func ConvertValidationError(errs validation.Errors) error {
	fields := make(map[string]string)
	flatten("", errs, fields)
	return errcode.ErrValidation.WithData("fields", fields).Wrap(errs)
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
