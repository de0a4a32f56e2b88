package paystub

import (
	"context"
	"sync"
	"time"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/evmosdao/paystub/internal/domain/printing"
	"github.com/evmosdao/paystub/internal/domain/shared"
	infra "github.com/evmosdao/paystub/internal/infrastructure/printing"
	"github.com/google/uuid"
)

// LayoutRenderer renders a record with a given logo state
type LayoutRenderer interface {
	Layout(ctx context.Context, record paystub.Record, logo paystub.ResolvedLogo) (*infra.Layout, error)
}

// LogoProvider exposes the current logo state without blocking
type LogoProvider interface {
	Current() paystub.ResolvedLogo
}

// Session owns one editable record and its rendered layout.
// All access is serialised by mu, so edits apply in arrival order and every
// render sees the latest edit.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu         sync.Mutex
	record     paystub.Record
	layout     *infra.Layout
	logoState  paystub.LogoState
	lastExport *printing.ExportJob
	lastAccess time.Time

	renderer LayoutRenderer
	logo     LogoProvider
}

// NewSession creates a blank, unmounted session
func NewSession(renderer LayoutRenderer, logo LogoProvider) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		record:     paystub.NewRecord(),
		lastAccess: now,
		renderer:   renderer,
		logo:       logo,
	}
}

// Mount renders the current record so an export target exists
func (s *Session) Mount(ctx context.Context) (*infra.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked(ctx)
}

// Apply applies one field update and re-renders.
// The update is kept even if rendering fails.
func (s *Session) Apply(ctx context.Context, u paystub.FieldUpdate) (*infra.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.record.Apply(u); err != nil {
		return nil, err
	}
	return s.renderLocked(ctx)
}

// ApplyAll applies updates in order and re-renders once.
// Unknown fields abort before any update is applied.
func (s *Session) ApplyAll(ctx context.Context, updates []paystub.FieldUpdate) (*infra.Layout, error) {
	for _, u := range updates {
		if !u.Field.IsValid() {
			return nil, shared.NewDomainError(paystub.ErrCodeUnknownField, "Unknown paystub field: "+string(u.Field))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		if err := s.record.Apply(u); err != nil {
			return nil, err
		}
	}
	return s.renderLocked(ctx)
}

// Record returns a copy of the current record
func (s *Session) Record() paystub.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

// Target returns the layout to export, or nil if the session was never
// rendered. A mounted layout is refreshed when the logo state has moved on
// since it was rendered.
func (s *Session) Target(ctx context.Context) (*infra.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layout == nil {
		return nil, nil
	}
	if s.logo != nil && s.logo.Current().State != s.logoState {
		return s.renderLocked(ctx)
	}
	return s.layout, nil
}

// Mounted returns true once a layout has been rendered
func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout != nil
}

// LastExport returns the most recent export job, if any
func (s *Session) LastExport() *printing.ExportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastExport
}

func (s *Session) recordExport(job *printing.ExportJob) {
	if job == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastExport = job
}

// forgetExport drops job if it is still the latest export
func (s *Session) forgetExport(job *printing.ExportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastExport == job {
		s.lastExport = nil
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) renderLocked(ctx context.Context) (*infra.Layout, error) {
	logo := paystub.PendingLogo()
	if s.logo != nil {
		logo = s.logo.Current()
	}
	layout, err := s.renderer.Layout(ctx, s.record, logo)
	if err != nil {
		return nil, err
	}
	s.layout = layout
	s.logoState = logo.State
	return layout, nil
}

// SessionStore holds the open sessions of the process
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store. Sessions idle longer than ttl are
// dropped by Sweep; ttl <= 0 keeps them until closed.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Add registers a session
func (st *SessionStore) Add(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get returns an open session and marks it as used
func (st *SessionStore) Get(id uuid.UUID) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, shared.NewDomainError("NOT_FOUND", "Session not found")
	}
	s.touch(st.now())
	return s, nil
}

// Remove discards a session
func (st *SessionStore) Remove(id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return shared.NewDomainError("NOT_FOUND", "Session not found")
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of open sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops idle sessions and returns how many were removed
func (st *SessionStore) Sweep() int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done
func (st *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
