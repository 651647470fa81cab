package checkout

import (
	"sync"

	"github.com/google/uuid"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/enums"
)

// Session tracks the per-vendor checkout state machine for one cart. Each
// vendor progresses independently; a Sent vendor is terminal and replays are
// ignored rather than duplicated.
type Session struct {
	mu     sync.Mutex
	states map[uuid.UUID]enums.CheckoutState
}

// NewSession starts every vendor at Idle.
func NewSession() *Session {
	return &Session{states: map[uuid.UUID]enums.CheckoutState{}}
}

// State reports the vendor's current checkout state.
func (s *Session) State(vendorStoreID uuid.UUID) enums.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(vendorStoreID)
}

// States snapshots every vendor the session has touched.
func (s *Session) States() map[uuid.UUID]enums.CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]enums.CheckoutState, len(s.states))
	for id, state := range s.states {
		out[id] = state
	}
	return out
}

// Begin attempts Idle→Submitting (Failed vendors may retry). The returned
// prior state distinguishes a replay of a Sent vendor from a concurrent
// in-flight submission.
func (s *Session) Begin(vendorStoreID uuid.UUID) (prior enums.CheckoutState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prior = s.stateLocked(vendorStoreID)
	switch prior {
	case enums.CheckoutStateIdle, enums.CheckoutStateFailed:
		s.states[vendorStoreID] = enums.CheckoutStateSubmitting
		return prior, true
	default:
		return prior, false
	}
}

// Finish records the submission outcome for a vendor that was Submitting.
func (s *Session) Finish(vendorStoreID uuid.UUID, outcome enums.CheckoutState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateLocked(vendorStoreID) != enums.CheckoutStateSubmitting {
		return
	}
	s.states[vendorStoreID] = outcome
}

func (s *Session) stateLocked(vendorStoreID uuid.UUID) enums.CheckoutState {
	if state, ok := s.states[vendorStoreID]; ok {
		return state
	}
	return enums.CheckoutStateIdle
}

// sessionRegistry keys live checkout sessions by cart so repeat submissions
// from the same shopper land on the same state machine.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: map[uuid.UUID]*Session{}}
}

func (r *sessionRegistry) forCart(cartID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[cartID]; ok {
		return session
	}
	session := NewSession()
	r.sessions[cartID] = session
	return session
}

func (r *sessionRegistry) drop(cartID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, cartID)
}
