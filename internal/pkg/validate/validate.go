// Package validate valida DTOs de entrada com tags do go-playground/validator
// e traduz as falhas para apperror.ValidationError.
package validate

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperror "gocatalog/internal/errors"
)

var v = validator.New(validator.WithRequiredStructEnabled())

func init() {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// Struct valida s. Falhas de tag viram ValidationError com uma mensagem por campo.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("campo '%s' %s", fe.Field(), msgForTag(fe)))
		}
		return apperror.NewValidationError(strings.Join(msgs, "; "))
	}
	return apperror.NewValidationError(err.Error())
}

// Decode lê JSON de r para dst. JSON malformado vira ValidationError.
func Decode(r io.Reader, dst interface{}) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}

// DecodeAndValidate lê JSON de r para dst, que deve ser ponteiro para struct, e valida o resultado.
func DecodeAndValidate(r io.Reader, dst interface{}) error {
	if err := Decode(r, dst); err != nil {
		return err
	}
	return Struct(dst)
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "é obrigatório"
	case "min":
		return fmt.Sprintf("deve ter no mínimo %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", fe.Param())
	case "gte":
		return fmt.Sprintf("deve ser maior ou igual a %s", fe.Param())
	case "lte":
		return fmt.Sprintf("deve ser menor ou igual a %s", fe.Param())
	case "uuid4":
		return "deve ser um UUID válido"
	case "oneof":
		return fmt.Sprintf("deve ser um de: %s", fe.Param())
	default:
		return fmt.Sprintf("falhou na validação '%s'", fe.Tag())
	}
}
