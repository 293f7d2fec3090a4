// Package request lê parâmetros de query com erros padronizados.
package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperror "gocatalog/internal/errors"
)

// Int lê o parâmetro name como inteiro. Ausente retorna def.
func Int(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError(fmt.Sprintf("parâmetro '%s' deve ser um inteiro.", name))
	}
	return v, nil
}

// OptionalInt lê o parâmetro name como inteiro; nil quando ausente.
func OptionalInt(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	v, err := Int(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Bool lê o parâmetro name como booleano. Ausente retorna false.
func Bool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperror.NewValidationError(fmt.Sprintf("parâmetro '%s' deve ser true ou false.", name))
	}
	return v, nil
}

// List lê o parâmetro name repetido ou separado por vírgulas, descartando vazios.
func List(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
