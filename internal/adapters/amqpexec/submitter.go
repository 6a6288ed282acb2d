package amqpexec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Submitter implements core.JobSubmitter by publishing persistent messages.
type Submitter struct {
	mu       sync.Mutex
	ch       Channel
	topology Topology
	now      func() time.Time
}

var _ core.JobSubmitter = (*Submitter)(nil)

// NewSubmitter returns a submitter publishing on ch. The topology must already be declared.
func NewSubmitter(ch Channel, t Topology) (*Submitter, error) {
	if ch == nil {
		return nil, errors.New("amqp channel is required")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Submitter{ch: ch, topology: t, now: time.Now}, nil
}

// Submit publishes job and returns once the broker has accepted the frame.
func (s *Submitter) Submit(ctx context.Context, job model.PublishJobPayload) (core.JobHandle, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return core.JobHandle{}, fmt.Errorf("encode publish job: %w", err)
	}

	id := uuid.NewString()
	now := s.now().UTC()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    now,
		Type:         string(model.JobTypePublish),
		Body:         body,
	}

	s.mu.Lock()
	err = s.ch.PublishWithContext(ctx, s.topology.Exchange, s.topology.Queue, false, false, msg)
	s.mu.Unlock()
	if err != nil {
		return core.JobHandle{}, fmt.Errorf("publish to %s: %w", s.topology.Exchange, err)
	}

	return core.JobHandle{ID: id, Backend: Backend, SubmittedAt: now}, nil
}
