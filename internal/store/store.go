// Package store holds all session state in process memory. Sessions are
// never evicted; a process restart is the only cleanup mechanism. That is
// a deliberate boundary of the service, not an oversight.
package store

import (
	"sync"
	"time"

	"github.com/pitchlab/backend/internal/models"
)

// Store is a keyed map from meeting/bot identifier to session state.
//
// Append is the only atomic primitive callers rely on; scalar fields
// (status, last_updated_at) are last-writer-wins, which is safe because
// status transitions are monotonic. All methods are safe for concurrent
// use, and all reads return copies so callers never alias internal slices.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// New creates an empty session store.
func New() *Store {
	return &Store{sessions: make(map[string]*models.Session)}
}

// GetOrCreate returns a copy of the session for id, creating it in
// pending status on first reference.
func (s *Store) GetOrCreate(id string) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.ensure(id))
}

// Get returns a copy of the session for id, or false when unknown.
func (s *Store) Get(id string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return snapshot(sess), true
}

// AppendSegment appends a transcript segment to the session's log,
// creating the session if needed, and merges the segment's speaker into
// the participant set.
func (s *Store) AppendSegment(id string, seg models.TranscriptSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(id)
	sess.TranscriptLog = append(sess.TranscriptLog, seg)
	if seg.Speaker != "" && !contains(sess.Participants, seg.Speaker) {
		sess.Participants = append(sess.Participants, seg.Speaker)
	}
	sess.LastUpdatedAt = time.Now()
}

// AppendCoaching appends a coaching result to the session's log,
// creating the session if needed.
func (s *Store) AppendCoaching(id string, res models.CoachingResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(id)
	sess.CoachingLog = append(sess.CoachingLog, res)
	sess.LastUpdatedAt = time.Now()
}

// MarkActive transitions the session to active unless it has already
// ended. Idempotent.
func (s *Store) MarkActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(id)
	if sess.Status != models.StatusEnded {
		sess.Status = models.StatusActive
	}
	sess.LastUpdatedAt = time.Now()
}

// MarkEnded transitions the session to its terminal ended status.
// Idempotent; no later event reverts it.
func (s *Store) MarkEnded(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensure(id)
	sess.Status = models.StatusEnded
	sess.LastUpdatedAt = time.Now()
}

// Window returns up to n of the most recent transcript segments
// (partials and finals combined) in chronological order. This is the
// context slice handed to analysis.
func (s *Store) Window(id string, n int) []models.TranscriptSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	log := sess.TranscriptLog
	if len(log) > n {
		log = log[len(log)-n:]
	}
	out := make([]models.TranscriptSegment, len(log))
	copy(out, log)
	return out
}

// LatestSegments returns up to n transcript segments, most recent first.
// An unknown id yields an empty slice, not an error.
func (s *Store) LatestSegments(id string, n int) []models.TranscriptSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.TranscriptSegment{}
	sess, ok := s.sessions[id]
	if !ok {
		return out
	}
	log := sess.TranscriptLog
	for i := len(log) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, log[i])
	}
	return out
}

// LatestCoaching returns up to n coaching results, most recent first.
// An unknown id yields an empty slice, not an error.
func (s *Store) LatestCoaching(id string, n int) []models.CoachingResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.CoachingResult{}
	sess, ok := s.sessions[id]
	if !ok {
		return out
	}
	log := sess.CoachingLog
	for i := len(log) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, log[i])
	}
	return out
}

// Participants returns a copy of the session's accumulated speaker set.
func (s *Store) Participants(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]string, len(sess.Participants))
	copy(out, sess.Participants)
	return out
}

// Summaries returns a listing projection of every known session.
func (s *Store) Summaries() []models.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		participants := make([]string, len(sess.Participants))
		copy(participants, sess.Participants)
		out = append(out, models.SessionSummary{
			ID:              sess.ID,
			Status:          sess.Status,
			TranscriptCount: len(sess.TranscriptLog),
			CoachingCount:   len(sess.CoachingLog),
			Participants:    participants,
			CreatedAt:       sess.CreatedAt,
			LastUpdatedAt:   sess.LastUpdatedAt,
		})
	}
	return out
}

// ensure resolves or creates the session for id. Must be called with
// s.mu held for writing.
func (s *Store) ensure(id string) *models.Session {
	sess, ok := s.sessions[id]
	if !ok {
		now := time.Now()
		sess = &models.Session{
			ID:            id,
			Status:        models.StatusPending,
			Participants:  []string{},
			CreatedAt:     now,
			LastUpdatedAt: now,
		}
		s.sessions[id] = sess
	}
	return sess
}

// snapshot deep-copies a session so evolving internal state never leaks
// through a returned value.
func snapshot(sess *models.Session) models.Session {
	out := *sess
	out.TranscriptLog = make([]models.TranscriptSegment, len(sess.TranscriptLog))
	copy(out.TranscriptLog, sess.TranscriptLog)
	out.CoachingLog = make([]models.CoachingResult, len(sess.CoachingLog))
	copy(out.CoachingLog, sess.CoachingLog)
	out.Participants = make([]string, len(sess.Participants))
	copy(out.Participants, sess.Participants)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
