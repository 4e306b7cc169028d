package services

import (
	"errors"
	"reflect"
	"strings"

	"farmacia/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their json name.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// translateValidation turns validator output into a domain error: missing
// required fields become FieldUndefined, any other rule is a Validation error.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation("Dados inválidos", apperrors.CodeCampoInvalido, nil)
	}

	var missing []string
	invalid := apperrors.Fields{}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid[fe.Field()] = fe.Tag()
	}

	if len(missing) > 0 {
		return apperrors.FieldUndefined("Um ou mais campos obrigatórios não foram informados", apperrors.Fields{
			"campos": missing,
		})
	}
	return apperrors.Validation("Um ou mais campos são inválidos", apperrors.CodeCampoInvalido, invalid)
}
