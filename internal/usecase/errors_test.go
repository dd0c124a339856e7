package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("create order: %w", invalid("insufficient stock for %s", "shirt"))

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, IsClientError(err))

	var uerr *Error
	if assert.True(t, errors.As(err, &uerr)) {
		assert.Equal(t, "insufficient stock for shirt", uerr.Msg)
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(notFound("order missing")))
	assert.True(t, IsClientError(unauthorized("token revoked")))
	assert.True(t, IsClientError(forbidden("not your order")))
	assert.False(t, IsClientError(errors.New("connection refused")))
}
