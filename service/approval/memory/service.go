// Package memory provides the in-process approval service.
package memory

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dataroomhq/diligence/internal/clock"
	"github.com/dataroomhq/diligence/service/approval"
	"github.com/dataroomhq/diligence/service/dao"
	"github.com/dataroomhq/diligence/service/dao/store"
)

type pending struct {
	request  *approval.Request
	decision chan *approval.Decision
	timer    *time.Timer
}

type service struct {
	mu      sync.Mutex
	slots   map[string]*pending
	history dao.Service[string, approval.Request]
	ttl     time.Duration
}

// Option customises the approval service.
type Option func(*service)

// WithPendingTTL auto-rejects requests left undecided for the given
// duration. Zero disables expiry.
func WithPendingTTL(ttl time.Duration) Option {
	return func(s *service) { s.ttl = ttl }
}

func requestKey(r *approval.Request) string { return r.ID }

// New creates an in-memory approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		slots:   make(map[string]*pending),
		history: store.NewMemoryStore[string, approval.Request](requestKey),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Request(ctx context.Context, request *approval.Request) (<-chan *approval.Decision, error) {
	if request == nil || request.SessionID == "" {
		return nil, errors.New("invalid request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[request.SessionID]; ok {
		return nil, approval.ErrPendingExists
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = clock.Now()
	}
	entry := &pending{
		request:  request,
		decision: make(chan *approval.Decision, 1),
	}
	if s.ttl > 0 {
		expiresAt := request.CreatedAt.Add(s.ttl)
		request.ExpiresAt = &expiresAt
		entry.timer = time.AfterFunc(s.ttl, func() { s.expire(request.SessionID, request.ID) })
	}
	s.slots[request.SessionID] = entry
	_ = s.history.Save(ctx, request)
	return entry.decision, nil
}

func (s *service) Pending(_ context.Context, sessionID string) (*approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.slots[sessionID]
	if !ok {
		return nil, nil
	}
	return entry.request, nil
}

func (s *service) Decide(_ context.Context, sessionID string, decision *approval.Decision) error {
	if decision == nil {
		return errors.New("invalid decision")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.slots[sessionID]
	if !ok {
		return approval.ErrNoPending
	}
	if entry.request.ID != decision.RequestID {
		return approval.ErrStaleDecision
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = clock.Now()
	}
	s.resolve(sessionID, entry, decision)
	return nil
}

// expire auto-rejects a request whose TTL elapsed before a decision.
func (s *service) expire(sessionID, requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.slots[sessionID]
	if !ok || entry.request.ID != requestID {
		return
	}
	log.Printf("approval request %v for session %v expired, auto-rejecting", requestID, sessionID)
	s.resolve(sessionID, entry, &approval.Decision{
		RequestID: requestID,
		Kind:      approval.DecisionReject,
		Reason:    "approval timed out",
		DecidedAt: clock.Now(),
	})
}

// resolve delivers the decision and frees the slot; callers hold s.mu.
func (s *service) resolve(sessionID string, entry *pending, decision *approval.Decision) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	entry.decision <- decision
	close(entry.decision)
	delete(s.slots, sessionID)
}

var _ approval.Service = (*service)(nil)
