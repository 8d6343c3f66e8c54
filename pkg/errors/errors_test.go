package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"sentinel", ErrTokenRevoked, CodeUnauthenticated},
		{"wrapped sentinel", fmt.Errorf("refresh: %w", ErrTokenReused), CodeUnauthenticated},
		{"storage", ErrStorage(context.DeadlineExceeded), CodeUnavailable},
		{"session", ErrSessionNotFound, CodeNotFound},
		{"plain error", stderrors.New("boom"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestErrStorage_KeepsBothChains(t *testing.T) {
	err := ErrStorage(context.DeadlineExceeded)

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsAuthFailure(err))
}

func TestIsAuthFailure(t *testing.T) {
	for _, err := range []error{ErrTokenMissing, ErrTokenInvalid, ErrTokenRevoked, ErrTokenReused, ErrUnauthenticated} {
		assert.True(t, IsAuthFailure(err), err.Error())
	}
	assert.False(t, IsAuthFailure(ErrRateLimited))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("pq: connection refused")
	err := Wrap(CodeInternal, "insert failed", cause)

	assert.Equal(t, "insert failed: pq: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestSentinelMessages(t *testing.T) {
	assert.Equal(t, "токен отозван", ErrTokenRevoked.Error())
	assert.Equal(t, "превышен лимит попыток", ErrRateLimited.Error())
	assert.Equal(t, "хранилище недоступно: context deadline exceeded", ErrStorage(context.DeadlineExceeded).Error())
}
