package request_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/api/request"
	apperror "gocatalog/internal/errors"
)

func TestInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10&bad=x", nil)

	v, err := request.Int(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = request.Int(r, "offset", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = request.Int(r, "bad", 0)
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestOptionalInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?max_depth=0", nil)

	v, err := request.OptionalInt(r, "max_depth")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0, *v)

	v, err = request.OptionalInt(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestBoolAndList(t *testing.T) {
	r := httptest.NewRequest("GET", "/?include_inactive=true&category=moda,%20casa&category=esporte&dry_run=talvez", nil)

	b, err := request.Bool(r, "include_inactive")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = request.Bool(r, "dry_run")
	assert.Error(t, err)

	assert.Equal(t, []string{"moda", "casa", "esporte"}, request.List(r, "category"))
	assert.Nil(t, request.List(r, "brand"))
}
