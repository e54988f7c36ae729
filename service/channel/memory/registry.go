// Package memory provides the in-process session channel registry.
package memory

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/channel"
	"github.com/dataroomhq/diligence/service/messaging"
	qmem "github.com/dataroomhq/diligence/service/messaging/memory"
)

type registry struct {
	mu        sync.RWMutex
	channels  map[string]*qmem.Queue[channel.Envelope]
	approvals approval.Service
	config    qmem.Config
}

// Option customises the registry.
type Option func(*registry)

// WithQueueConfig overrides the per-session queue configuration.
func WithQueueConfig(config qmem.Config) Option {
	return func(r *registry) { r.config = config }
}

// New creates an in-memory channel registry routing decisions to the given
// approval service.
func New(approvals approval.Service, options ...Option) channel.Registry {
	ret := &registry{
		channels:  make(map[string]*qmem.Queue[channel.Envelope]),
		approvals: approvals,
		config:    qmem.DefaultConfig(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (r *registry) Register(_ context.Context, sessionID string) (messaging.Queue[channel.Envelope], error) {
	if sessionID == "" {
		return nil, errors.New("empty session id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if queue, ok := r.channels[sessionID]; ok {
		return queue, nil
	}
	queue := qmem.NewQueue[channel.Envelope](r.config)
	r.channels[sessionID] = queue
	return queue, nil
}

func (r *registry) Unregister(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, sessionID)
	return nil
}

func (r *registry) Send(ctx context.Context, sessionID string, envelope *channel.Envelope) error {
	r.mu.RLock()
	queue, ok := r.channels[sessionID]
	r.mu.RUnlock()
	if !ok {
		// no reviewer connected; agent runs are fire-and-forget
		return nil
	}
	return queue.Publish(ctx, envelope)
}

func (r *registry) HandleDecision(ctx context.Context, sessionID string, decision *approval.Decision) error {
	r.mu.RLock()
	_, ok := r.channels[sessionID]
	r.mu.RUnlock()
	if !ok {
		return &channel.ErrSessionClosed{SessionID: sessionID}
	}
	err := r.approvals.Decide(ctx, sessionID, decision)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, approval.ErrStaleDecision), errors.Is(err, approval.ErrNoPending):
		log.Printf("ignoring decision for session %v: %v", sessionID, err)
		return nil
	default:
		return err
	}
}

var _ channel.Registry = (*registry)(nil)
