package pgxutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: true},
		{name: "wrapped serialization failure", err: fmt.Errorf("upsert: %w", &pgconn.PgError{Code: pgerrcode.SerializationFailure}), want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, want: true},
		{name: "not null violation", err: &pgconn.PgError{Code: pgerrcode.NotNullViolation}},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRetryOnConflict(t *testing.T) {
	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), fastPolicy, func() error {
			calls++
			if calls < 2 {
				return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := RetryOnConflict(context.Background(), fastPolicy, func() error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns the conflict once retries are spent", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(context.Background(), fastPolicy, func() error {
			calls++
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		})
		require.Error(t, err)
		assert.True(t, IsRetryable(err))
		assert.Equal(t, 3, calls)
	})
}
