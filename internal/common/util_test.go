package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- error taxonomy ----------

func TestErrors_MatchTheirCategory(t *testing.T) {
	tests := []struct {
		err      error
		category error
	}{
		{ErrEmailTaken, ErrConflict},
		{ErrUsernameTaken, ErrConflict},
		{ErrSlugTaken, ErrConflict},
		{ErrInvalidCredentials, ErrAuthentication},
		{ErrUnauthenticated, ErrAuthentication},
		{ErrTokenExpired, ErrAuthentication},
		{ErrInvalidSignature, ErrAuthentication},
		{ErrMalformedToken, ErrAuthentication},
		{ErrSubjectNotFound, ErrNotFound},
		{ErrTargetNotFound, ErrNotFound},
		{ErrNotArticleAuthor, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.category)
		})
	}
}

func TestErrors_CategoriesDoNotOverlap(t *testing.T) {
	assert.False(t, errors.Is(ErrEmailTaken, ErrUsernameTaken))
	assert.False(t, errors.Is(ErrTokenExpired, ErrUnauthenticated))
	assert.False(t, errors.Is(ErrTargetNotFound, ErrSubjectNotFound))
}

func TestValidationError_MatchesCategory(t *testing.T) {
	err := NewValidationError("username", "is too short")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation error: username is too short", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "username", ve.Field)
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable(cause)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)
}
