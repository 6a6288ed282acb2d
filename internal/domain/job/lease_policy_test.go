package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeasePolicy(t *testing.T) {
	policy, err := NewLeasePolicy(30 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, policy.Default())

	policy, err = NewLeasePolicy(0)
	require.ErrorIs(t, err, ErrInvalidDefaultLease)
	assert.Nil(t, policy)
}

func TestLeasePolicy_Seconds(t *testing.T) {
	policy, err := NewLeasePolicy(30 * time.Second)
	require.NoError(t, err)

	tests := []struct {
		name    string
		request time.Duration
		want    int
	}{
		{name: "explicit", request: 45 * time.Second, want: 45},
		{name: "zero uses default", request: 0, want: 30},
		{name: "sub-second raised to one", request: 500 * time.Millisecond, want: 1},
		{name: "negative raised to one", request: -5 * time.Second, want: 1},
		{name: "fractional seconds truncated", request: 2500 * time.Millisecond, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Seconds(tt.request))
		})
	}
}

func TestLeasePolicy_HeartbeatInterval(t *testing.T) {
	policy, err := NewLeasePolicy(30 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, policy.HeartbeatInterval(0))
	assert.Equal(t, 500*time.Millisecond, policy.HeartbeatInterval(time.Second))
}
