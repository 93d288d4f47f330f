package review

import (
	"sync"
	"time"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
	"tallytalk/internal/uuid"
	"tallytalk/internal/voice"
)

// DefaultTTL is how long an untouched review session survives before the
// store treats it as abandoned.
const DefaultTTL = 30 * time.Minute

// Store keeps review sessions in memory, keyed by session ID and scoped to
// their owning user. Expired sessions are swept lazily on access.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates a session store with the given TTL (DefaultTTL when zero).
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session in Reviewing state from a parse result
// (the Recording and Processing stages happen before the session is stored,
// so a stored session is always inspectable).
func (st *Store) Create(userID string, result *voice.ParseResult) Session {
	items := make([]Item, 0, len(result.Candidates))
	for _, cand := range result.Candidates {
		items = append(items, Item{CandidateTransaction: cand})
	}

	now := time.Now()
	s := &Session{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     StatusReviewing,
		Transcript: result.Transcript,
		Language:   result.Language,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked(now)
	st.sessions[s.ID] = s
	return s.snapshot()
}

// Get returns a snapshot of the session, scoped to its owner.
func (st *Store) Get(id, userID string) (Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, err := st.lookupLocked(id, userID)
	if err != nil {
		return Session{}, err
	}
	return s.snapshot(), nil
}

// UpdateItem applies one field edit to an item.
func (st *Store) UpdateItem(id, userID string, index int, upd ItemUpdate) (Session, error) {
	return st.mutate(id, userID, func(s *Session) error {
		return s.updateItem(index, upd)
	})
}

// RemoveItem drops one item from the session.
func (st *Store) RemoveItem(id, userID string, index int) (Session, error) {
	return st.mutate(id, userID, func(s *Session) error {
		return s.removeItem(index)
	})
}

// Reconcile redoes category guesses against the given category list,
// preserving user edits. Safe to call whenever either input changes.
func (st *Store) Reconcile(id, userID string, categories []models.Category) (Session, error) {
	return st.mutate(id, userID, func(s *Session) error {
		s.reconcileItems(categories)
		return nil
	})
}

// BeginSave moves the session into Saving. Fails on an empty item list:
// there is nothing useful to persist.
func (st *Store) BeginSave(id, userID string) (Session, error) {
	return st.mutate(id, userID, func(s *Session) error {
		if len(s.Items) == 0 {
			return apperrors.ErrEmptyBatch
		}
		return s.transition(StatusSaving)
	})
}

// FinishSave marks the session Done and removes it from the store.
func (st *Store) FinishSave(id, userID string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookupLocked(id, userID)
	if err != nil {
		return err
	}
	if err := s.transition(StatusDone); err != nil {
		return err
	}
	delete(st.sessions, id)
	return nil
}

// AbortSave returns a session from Saving to Reviewing after a persistence
// failure, with its contents untouched so the user need not re-record.
func (st *Store) AbortSave(id, userID string) error {
	_, err := st.mutate(id, userID, func(s *Session) error {
		return s.transition(StatusReviewing)
	})
	return err
}

// Cancel discards the session entirely. It is a true no-op against
// persistence; a missing session is already the desired end state.
func (st *Store) Cancel(id, userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok && s.UserID == userID {
		delete(st.sessions, id)
	}
}

func (st *Store) mutate(id, userID string, fn func(*Session) error) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookupLocked(id, userID)
	if err != nil {
		return Session{}, err
	}
	if err := fn(s); err != nil {
		return Session{}, err
	}
	return s.snapshot(), nil
}

// lookupLocked finds a live session owned by userID. Callers hold st.mu.
func (st *Store) lookupLocked(id, userID string) (*Session, error) {
	s, ok := st.sessions[id]
	if !ok || s.UserID != userID {
		return nil, apperrors.ErrReviewNotFound
	}
	if time.Since(s.UpdatedAt) > st.ttl {
		delete(st.sessions, id)
		return nil, apperrors.ErrReviewNotFound
	}
	return s, nil
}

// sweepLocked drops expired sessions. Callers hold st.mu.
func (st *Store) sweepLocked(now time.Time) {
	for id, s := range st.sessions {
		if now.Sub(s.UpdatedAt) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
