// Package review holds parsed candidate transactions in an editable staging
// area until the user confirms or discards them. Nothing here touches
// persistence: confirm hands a snapshot to the caller, cancel is a pure
// discard.
package review

import (
	"fmt"
	"time"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
	"tallytalk/internal/reconcile"
	"tallytalk/internal/voice"
)

// Status is a review session's position in the recording lifecycle.
type Status string

const (
	StatusRecording  Status = "recording"
	StatusProcessing Status = "processing"
	StatusReviewing  Status = "reviewing"
	StatusSaving     Status = "saving"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// allowedTransitions encodes the session state machine. Processing always
// follows Recording, Reviewing is only reachable from Processing, and a
// failed save returns to Reviewing so the user's edits survive.
var allowedTransitions = map[Status][]Status{
	StatusRecording:  {StatusProcessing, StatusError},
	StatusProcessing: {StatusReviewing, StatusError},
	StatusReviewing:  {StatusSaving},
	StatusSaving:     {StatusDone, StatusReviewing},
	StatusError:      {StatusRecording},
}

// Item is one candidate under review: the extractor's output plus the
// reconciled category. CategoryEdited records that the user picked the
// category explicitly, so later reconciliation passes never clobber it.
type Item struct {
	voice.CandidateTransaction
	CategoryID     *string `json:"category_id"`
	CategoryEdited bool    `json:"-"`
}

// ItemUpdate carries the fields of one edit. Nil fields are untouched.
// Setting CategoryID (or ClearCategory) marks the item as user-edited;
// changing Type without a category choice resets the guess so the next
// reconciliation pass can redo it against the right category subset.
type ItemUpdate struct {
	AmountCents   *int64
	Description   *string
	Type          *models.TransactionType
	CategoryID    *string
	ClearCategory bool
}

// Session is one in-memory review of a parsed recording.
type Session struct {
	ID         string               `json:"id"`
	UserID     string               `json:"-"`
	Status     Status               `json:"status"`
	Transcript string               `json:"transcript"`
	Language   models.VoiceLanguage `json:"language"`
	Items      []Item               `json:"items"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// transition moves the session to the next status, rejecting skips.
func (s *Session) transition(to Status) error {
	for _, allowed := range allowedTransitions[s.Status] {
		if allowed == to {
			s.Status = to
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrReviewConflict,
		fmt.Errorf("cannot move session %s from %s to %s", s.ID, s.Status, to))
}

// updateItem applies one edit to the item at index.
func (s *Session) updateItem(index int, upd ItemUpdate) error {
	if s.Status != StatusReviewing {
		return apperrors.ErrReviewConflict
	}
	if index < 0 || index >= len(s.Items) {
		return apperrors.ErrReviewItemNotFound
	}
	item := &s.Items[index]

	if upd.AmountCents != nil {
		if *upd.AmountCents <= 0 {
			return apperrors.ErrInvalidAmount
		}
		item.AmountCents = *upd.AmountCents
	}
	if upd.Description != nil {
		item.Description = *upd.Description
	}
	if upd.Type != nil && *upd.Type != item.Type {
		item.Type = *upd.Type
		// The old guess belongs to the other type's category set.
		item.CategoryID = nil
		item.CategoryEdited = false
	}
	if upd.ClearCategory {
		item.CategoryID = nil
		item.CategoryEdited = true
	} else if upd.CategoryID != nil {
		item.CategoryID = upd.CategoryID
		item.CategoryEdited = true
	}

	s.UpdatedAt = time.Now()
	return nil
}

// removeItem drops the item at index.
func (s *Session) removeItem(index int) error {
	if s.Status != StatusReviewing {
		return apperrors.ErrReviewConflict
	}
	if index < 0 || index >= len(s.Items) {
		return apperrors.ErrReviewItemNotFound
	}
	s.Items = append(s.Items[:index], s.Items[index+1:]...)
	s.UpdatedAt = time.Now()
	return nil
}

// reconcileItems redoes the category guess for every item the user has not
// explicitly categorized. Each run is total and idempotent; running it again
// with the same inputs assigns the same IDs.
func (s *Session) reconcileItems(categories []models.Category) {
	for i := range s.Items {
		if s.Items[i].CategoryEdited {
			continue
		}
		s.Items[i].CategoryID = reconcile.Match(
			s.Items[i].SuggestedCategory, s.Items[i].Type, categories)
	}
	s.UpdatedAt = time.Now()
}

// snapshot returns a deep-enough copy for handing outside the store lock.
func (s *Session) snapshot() Session {
	out := *s
	out.Items = make([]Item, len(s.Items))
	copy(out.Items, s.Items)
	return out
}
