package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError_MatchesKindAndKeepsMessage(t *testing.T) {
	err := NewError(ErrorAlreadyExists, "Username already taken")

	assert.True(t, errors.Is(err, ErrorAlreadyExists))
	assert.False(t, errors.Is(err, ErrorValidation))
	assert.Equal(t, "Username already taken", err.Error())

	var e *Error
	if assert.True(t, errors.As(err, &e)) {
		assert.Equal(t, ErrorAlreadyExists, e.Kind())
	}
}

func TestStoreError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "not found passes", in: ErrorNotFound, want: ErrorNotFound},
		{name: "wrapped conflict passes", in: fmt.Errorf("db error: %w", ErrorAlreadyExists), want: ErrorAlreadyExists},
		{name: "capacity passes", in: ErrCapacityFull, want: ErrCapacityFull},
		{name: "driver error wrapped", in: errors.New("connection refused"), want: ErrStoreUnavailable},
		{name: "deadline wrapped", in: context.DeadlineExceeded, want: ErrStoreUnavailable},
		{name: "cancel passes", in: context.Canceled, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StoreError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
