package validate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/validate"
)

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := validate.Struct(domain.ProductDraft{ProductRef: "AB", Slug: "x", Name: "Nome"})

	require.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "product_ref")
	assert.Contains(t, err.Error(), "no mínimo 3")
}

func TestStruct_Valid(t *testing.T) {
	err := validate.Struct(domain.CategoryDraft{Name: "Moda", Slug: "moda"})
	assert.NoError(t, err)
}

func TestDecodeAndValidate(t *testing.T) {
	var draft domain.CategoryDraft
	err := validate.DecodeAndValidate(strings.NewReader(`{"name":`), &draft)
	assert.IsType(t, &apperror.ValidationError{}, err)

	err = validate.DecodeAndValidate(strings.NewReader(`{"name":"Moda"}`), &draft)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campo 'slug' é obrigatório")

	err = validate.DecodeAndValidate(strings.NewReader(`{"name":"Moda","slug":"moda","display_order":2}`), &draft)
	require.NoError(t, err)
	assert.Equal(t, 2, draft.DisplayOrder)
}
