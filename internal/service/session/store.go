package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bridgetext/coachbot/backend/internal/model/chat"
	"github.com/bridgetext/coachbot/backend/internal/model/tone"
)

// Store keeps per-session conversation state in memory. Sessions are
// auto-provisioned on first write and live until Clear or the idle janitor
// removes them.
//
// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

type state struct {
	exchanges []chat.Exchange
	tone      tone.Tone
	lastSeen  time.Time
}

// NewStore bootstraps an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*state)}
}

// Snapshot returns a copy of the session's current state. A session that has
// never been written to reads back as empty.
func (s *Store) Snapshot(sessionID string) chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{ID: sessionID}
	}

	exchanges := make([]chat.Exchange, len(st.exchanges))
	copy(exchanges, st.exchanges)
	return chat.Session{ID: sessionID, Tone: st.tone, Exchanges: exchanges}
}

// Append records one completed exchange.
func (s *Store) Append(sessionID string, ex chat.Exchange) {
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.touch(sessionID)
	st.exchanges = append(st.exchanges, ex)
}

// SetTone persists the session's tone selection. It survives until Clear.
func (s *Store) SetTone(sessionID string, t tone.Tone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(sessionID).tone = t
}

// Tone returns the session's selected tone, or tone.Unset.
func (s *Store) Tone(sessionID string) tone.Tone {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.sessions[sessionID]; ok {
		return st.tone
	}
	return tone.Unset
}

// Transcript returns the ordered exchange list for the session.
func (s *Store) Transcript(sessionID string) []chat.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return []chat.Exchange{}
	}

	exchanges := make([]chat.Exchange, len(st.exchanges))
	copy(exchanges, st.exchanges)
	return exchanges
}

// Clear drops the session's transcript and tone.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// touch returns the session state, creating it if needed. Caller holds mu.
func (s *Store) touch(sessionID string) *state {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &state{exchanges: make([]chat.Exchange, 0, 16)}
		s.sessions[sessionID] = st
	}
	st.lastSeen = time.Now().UTC()
	return st
}

// StartJanitor evicts sessions idle for longer than ttl. It blocks until ctx
// is canceled, so run it in its own goroutine. A non-positive ttl disables
// expiry.
func (s *Store) StartJanitor(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.evictIdle(now.UTC(), ttl)
		}
	}
}

func (s *Store) evictIdle(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, st := range s.sessions {
		if now.Sub(st.lastSeen) > ttl {
			delete(s.sessions, id)
			log.Printf("[session] evicted idle session=%s", id)
		}
	}
}
