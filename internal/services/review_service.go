package services

import (
	"tallytalk/internal/logger"
	"tallytalk/internal/models"
	"tallytalk/internal/review"
)

// reviewService mediates between the in-memory session store and transaction
// persistence. The store never touches the database; this service is the only
// place the two meet.
type reviewService struct {
	sessions     *review.Store
	categories   CategoryServicer
	transactions TransactionServicer
}

// NewReviewService creates a new ReviewServicer.
func NewReviewService(sessions *review.Store, categories CategoryServicer, transactions TransactionServicer) ReviewServicer {
	return &reviewService{
		sessions:     sessions,
		categories:   categories,
		transactions: transactions,
	}
}

// GetSession returns the current state of a review session.
func (s *reviewService) GetSession(userID, sessionID string) (review.Session, error) {
	return s.sessions.Get(sessionID, userID)
}

// UpdateItem applies one edit to an item. A type change invalidates the old
// category guess, so the session is re-reconciled afterwards; items the user
// categorized by hand keep their choice.
func (s *reviewService) UpdateItem(userID, sessionID string, index int, upd review.ItemUpdate) (review.Session, error) {
	session, err := s.sessions.UpdateItem(sessionID, userID, index, upd)
	if err != nil {
		return review.Session{}, err
	}
	if upd.Type == nil {
		return session, nil
	}
	return s.ReconcileSession(userID, sessionID)
}

// RemoveItem drops one item from the session.
func (s *reviewService) RemoveItem(userID, sessionID string, index int) (review.Session, error) {
	return s.sessions.RemoveItem(sessionID, userID, index)
}

// ReconcileSession redoes category guesses against the user's current
// category list.
func (s *reviewService) ReconcileSession(userID, sessionID string) (review.Session, error) {
	categories, err := s.categories.ListCategories(userID, nil)
	if err != nil {
		return review.Session{}, err
	}
	return s.sessions.Reconcile(sessionID, userID, categories)
}

// Confirm persists every item in the session as one atomic batch and closes
// the session. On a persistence failure the session returns to reviewing with
// the user's edits intact, so nothing is re-recorded and nothing is
// half-saved.
func (s *reviewService) Confirm(userID, sessionID string) ([]models.Transaction, error) {
	session, err := s.sessions.BeginSave(sessionID, userID)
	if err != nil {
		return nil, err
	}

	transcript := session.Transcript
	batch := make([]models.Transaction, 0, len(session.Items))
	for _, item := range session.Items {
		batch = append(batch, models.Transaction{
			CategoryID:      item.CategoryID,
			Type:            item.Type,
			Amount:          item.AmountCents,
			Description:     item.Description,
			VoiceTranscript: &transcript,
		})
	}

	saved, err := s.transactions.InsertBatch(userID, batch)
	if err != nil {
		if abortErr := s.sessions.AbortSave(sessionID, userID); abortErr != nil {
			logger.Get().Errorw("failed to return session to reviewing after save failure",
				"session_id", sessionID, "error", abortErr)
		}
		return nil, err
	}

	if err := s.sessions.FinishSave(sessionID, userID); err != nil {
		// The batch is already committed; the session is stale at worst.
		logger.Get().Warnw("failed to close review session after save",
			"session_id", sessionID, "error", err)
	}
	return saved, nil
}

// Cancel discards the session. No transaction is ever written for a
// cancelled review.
func (s *reviewService) Cancel(userID, sessionID string) {
	s.sessions.Cancel(sessionID, userID)
}
