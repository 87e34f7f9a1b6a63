package tenancy

import (
	"context"
	"sync"
	"time"

	"github.com/lalith-99/storefront/internal/models"
	"go.uber.org/zap"
)

// Registry keeps one Session per issued token, so each device of a
// principal has its own current tenant. Sessions are created on the first
// authenticated request and torn down on sign-out or when the token that
// opened them expires.
type Registry struct {
	resolver  *Resolver
	claimsSrc ClaimsSource
	selection SelectionStore
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]entry
}

type entry struct {
	session   *Session
	expiresAt time.Time
}

// expired reports whether the entry outlived its token. A zero expiry
// never expires.
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func NewRegistry(resolver *Resolver, claimsSrc ClaimsSource, selection SelectionStore, logger *zap.Logger) *Registry {
	return &Registry{
		resolver:  resolver,
		claimsSrc: claimsSrc,
		selection: selection,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]entry),
	}
}

// Acquire returns the started session for sessionID (the token id),
// creating and starting it when needed. Concurrent first requests share one
// Start. Creating a session also drops every entry whose token has expired.
func (r *Registry) Acquire(ctx context.Context, sessionID string, principal models.Principal, expiresAt time.Time) *Session {
	r.mu.Lock()
	now := r.now()
	e, ok := r.sessions[sessionID]
	var stale []*Session
	if !ok || e.expired(now) {
		stale = r.sweepLocked(now)
		e = entry{
			session:   NewSession(principal, r.resolver, r.claimsSrc, r.selection, r.logger.With(zap.String("session_id", sessionID))),
			expiresAt: expiresAt,
		}
		r.sessions[sessionID] = e
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Stop()
	}
	e.session.Start(ctx)
	return e.session
}

// Get returns the live session for sessionID. An expired entry is dropped
// and reported as missing.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if ok && e.expired(r.now()) {
		delete(r.sessions, sessionID)
		r.mu.Unlock()
		e.session.Stop()
		return nil, false
	}
	r.mu.Unlock()
	return e.session, ok
}

// Release stops and forgets one session. Other sessions of the same
// principal are untouched.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		e.session.Stop()
	}
}

func (r *Registry) sweepLocked(now time.Time) []*Session {
	var stale []*Session
	for id, e := range r.sessions {
		if e.expired(now) {
			stale = append(stale, e.session)
			delete(r.sessions, id)
		}
	}
	return stale
}

// Len reports the number of sessions held, expired ones included until the
// next sweep.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
