package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("content", "is required"), http.StatusBadRequest},
		{Authentication("missing token"), http.StatusUnauthorized},
		{Forbidden("not the author"), http.StatusForbidden},
		{NotFound("post"), http.StatusNotFound},
		{Conflict("already liked"), http.StatusConflict},
		{Upstream("image host", errors.New("timeout")), http.StatusBadGateway},
		{Store("insert post", errors.New("conn reset")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("send message: %w", NotFound("receiver"))

	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, "receiver not found", PublicMessage(err))
}

func TestStoreErrorsHideCause(t *testing.T) {
	cause := errors.New("pq: password authentication failed")
	err := Store("list posts", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", PublicMessage(err))
	assert.Equal(t, "internal server error", PublicMessage(cause))
}

func TestValidationField(t *testing.T) {
	err := Validation("receiver_id", "is required")

	assert.Equal(t, "receiver_id", FieldOf(err))
	assert.Equal(t, "receiver_id: is required", err.Error())
	assert.Equal(t, "", FieldOf(errors.New("x")))
}
