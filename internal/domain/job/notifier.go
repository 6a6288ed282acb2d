// Package job holds queue policy shared by the publish executors: wake-up fan-out and lease sizing.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// ErrWaiterRequired indicates a notifier cannot be constructed without a waiter.
var ErrWaiterRequired = errors.New("notifier waiter is required")

// Waiter blocks until the store announces new work of a type.
type Waiter interface {
	WaitForNotification(ctx context.Context, jobType model.JobType) error
}

// Notifier fans store announcements out to in-process subscribers.
type Notifier interface {
	Subscribe(jobType model.JobType) (func(), <-chan struct{})
	Poke(jobType model.JobType)
	StopAll()
}

// NotifierOptions configure DefaultNotifier.
type NotifierOptions struct {
	Waiter Waiter
	// WaitWindow bounds a single LISTEN; subscribers get a wake-up after each window.
	WaitWindow time.Duration
	// MaxBackoff caps the delay between failed LISTEN attempts.
	MaxBackoff time.Duration
}

// DefaultNotifier runs one listener goroutine per job type with at least one subscriber.
type DefaultNotifier struct {
	waiter     Waiter
	waitWindow time.Duration
	maxBackoff time.Duration

	mu        sync.Mutex
	subs      map[model.JobType]map[chan struct{}]struct{}
	listeners map[model.JobType]context.CancelFunc
}

// NewNotifier constructs the default notifier implementation.
func NewNotifier(opts NotifierOptions) (*DefaultNotifier, error) {
	if opts.Waiter == nil {
		return nil, ErrWaiterRequired
	}

	window := opts.WaitWindow
	if window <= 0 {
		window = time.Minute
	}
	maxBackoff := opts.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Second
	}

	return &DefaultNotifier{
		waiter:     opts.Waiter,
		waitWindow: window,
		maxBackoff: maxBackoff,
		subs:       make(map[model.JobType]map[chan struct{}]struct{}),
		listeners:  make(map[model.JobType]context.CancelFunc),
	}, nil
}

// Subscribe returns a channel that receives at most one pending wake-up and an unsubscribe func.
func (n *DefaultNotifier) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.listeners[jobType]; !ok {
		ctx, cancel := context.WithCancel(context.Background())
		n.listeners[jobType] = cancel
		go n.listen(ctx, jobType)
	}

	ch := make(chan struct{}, 1)
	if n.subs[jobType] == nil {
		n.subs[jobType] = make(map[chan struct{}]struct{})
	}
	n.subs[jobType][ch] = struct{}{}

	var once sync.Once
	return func() { once.Do(func() { n.unsubscribe(jobType, ch) }) }, ch
}

// Poke wakes subscribers without a round trip through the store.
// Submitters in the same process call it after enqueueing.
func (n *DefaultNotifier) Poke(jobType model.JobType) {
	n.broadcast(jobType)
}

// StopAll cancels every listener and closes every subscriber channel.
func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for jobType, cancel := range n.listeners {
		cancel()
		delete(n.listeners, jobType)
	}
	for jobType, subscribers := range n.subs {
		for ch := range subscribers {
			drainAndClose(ch)
		}
		delete(n.subs, jobType)
	}
}

func (n *DefaultNotifier) unsubscribe(jobType model.JobType, ch chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subscribers := n.subs[jobType]
	if _, ok := subscribers[ch]; !ok {
		return
	}
	delete(subscribers, ch)
	drainAndClose(ch)
	if len(subscribers) > 0 {
		return
	}
	delete(n.subs, jobType)
	if cancel, ok := n.listeners[jobType]; ok {
		cancel()
		delete(n.listeners, jobType)
	}
}

func (n *DefaultNotifier) listen(ctx context.Context, jobType model.JobType) {
	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 250 * time.Millisecond
	retry.MaxInterval = n.maxBackoff
	retry.MaxElapsedTime = 0

	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, n.waitWindow)
		err := n.waiter.WaitForNotification(waitCtx, jobType)
		cancel()

		// A wake-up after a timeout or error lets workers poll even when NOTIFY is lost.
		n.broadcast(jobType)

		if err == nil || errors.Is(err, context.DeadlineExceeded) {
			retry.Reset()
			continue
		}
		if ctx.Err() != nil {
			return
		}

		timer := time.NewTimer(retry.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (n *DefaultNotifier) broadcast(jobType model.JobType) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[jobType] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// drainAndClose empties the buffer first so receivers see the close immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
