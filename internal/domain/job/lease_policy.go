package job

import (
	"errors"
	"time"
)

// ErrInvalidDefaultLease indicates the configured default lease duration is not positive.
var ErrInvalidDefaultLease = errors.New("default lease must be positive")

// minLease is the shortest lease the store accepts.
const minLease = time.Second

// LeasePolicy sizes reservation leases and the heartbeat cadence that keeps them alive.
type LeasePolicy struct {
	defaultLease time.Duration
}

// NewLeasePolicy constructs a LeasePolicy with the provided default lease duration.
func NewLeasePolicy(defaultLease time.Duration) (*LeasePolicy, error) {
	if defaultLease <= 0 {
		return nil, ErrInvalidDefaultLease
	}
	return &LeasePolicy{defaultLease: defaultLease}, nil
}

// Default returns the configured default lease duration.
func (p *LeasePolicy) Default() time.Duration {
	if p == nil {
		return 0
	}
	return p.defaultLease
}

// Seconds converts a requested lease to whole seconds.
// Zero selects the default; anything shorter than a second is raised to one.
func (p *LeasePolicy) Seconds(request time.Duration) int {
	d := request
	if d == 0 && p != nil {
		d = p.defaultLease
	}
	if d < minLease {
		d = minLease
	}
	return int(d / time.Second)
}

// HeartbeatInterval is how often a worker should extend a lease of the given length.
// Three beats per lease tolerate one missed beat.
func (p *LeasePolicy) HeartbeatInterval(request time.Duration) time.Duration {
	lease := time.Duration(p.Seconds(request)) * time.Second
	interval := lease / 3
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	return interval
}
