package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperror "gocatalog/internal/errors"
)

func TestMapToHTTPStatus(t *testing.T) {
	cases := []struct {
		err      error
		code     int
		category string
	}{
		{apperror.NewValidationError("x"), http.StatusBadRequest, apperror.StatusInvalidArgument},
		{apperror.NewNotFoundError("x"), http.StatusNotFound, apperror.StatusNotFound},
		{apperror.NewAlreadyExistsError("x"), http.StatusConflict, apperror.StatusAlreadyExists},
		{apperror.NewHasChildrenError("x"), http.StatusConflict, apperror.StatusHasChildren},
		{apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, apperror.StatusUnauthorized},
		{apperror.NewForbiddenError("x"), http.StatusForbidden, apperror.StatusForbidden},
		{apperror.NewRateLimitedError("x"), http.StatusTooManyRequests, apperror.StatusRateLimited},
		{apperror.NewDBError("insert", stderrors.New("conn reset")), http.StatusServiceUnavailable, apperror.StatusUnavailable},
		{apperror.NewInternalError("x", nil), http.StatusInternalServerError, apperror.StatusInternal},
		{stderrors.New("sem tipo"), http.StatusInternalServerError, apperror.StatusInternal},
	}

	for _, tc := range cases {
		code, category, msg := apperror.MapToHTTPStatus(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.category, category)
		assert.NotEmpty(t, msg)
	}
}

func TestStatusOf_FollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", apperror.NewHasChildrenError("a categoria 'moda' possui 1 filhas."))

	assert.Equal(t, apperror.StatusOK, apperror.StatusOf(nil))
	assert.Equal(t, apperror.StatusHasChildren, apperror.StatusOf(wrapped))
	assert.True(t, apperror.Is(wrapped, apperror.StatusHasChildren))
	assert.False(t, apperror.Is(nil, apperror.StatusOK))
}

func TestDBError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := apperror.NewDBError("Falha ao buscar categoria", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
