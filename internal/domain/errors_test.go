package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("get status: %w", NewNotFound("USER_NOT_FOUND", "User not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewStoreUnavailable("get", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Failure
	}{
		{
			name: "domain error keeps code",
			in:   NewNotFound("USER_NOT_FOUND", "User not found"),
			want: Failure{Message: "User not found", Code: "USER_NOT_FOUND"},
		},
		{
			name: "wrapped domain error keeps code",
			in:   fmt.Errorf("query: %w", NewInvalidArgument("MISSING_USER_ID", "userId is required")),
			want: Failure{Message: "query: userId is required", Code: "MISSING_USER_ID"},
		},
		{
			name: "generic error keeps message",
			in:   errors.New("boom"),
			want: Failure{Message: "boom"},
		},
		{
			name: "unknown value",
			in:   42,
			want: Failure{Message: "An unknown error occurred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.in))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", KindNotFound.String())
	assert.Equal(t, "STORE_UNAVAILABLE", KindStoreUnavailable.String())
	assert.Equal(t, "DELIVERY_FAILURE", KindDeliveryFailure.String())
	assert.Equal(t, "INVALID_ARGUMENT", KindInvalidArgument.String())
	assert.Equal(t, "UNKNOWN", KindUnknown.String())
}
