package services

import (
	"context"
	"encoding/base64"
	"sync"

	"tallytalk/internal/config"
	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/logger"
	"tallytalk/internal/models"
	"tallytalk/internal/review"
	"tallytalk/internal/voice"
)

// voiceService turns an uploaded recording into a review session. It owns the
// per-user in-flight guard: a user gets exactly one parse at a time, and a
// second request while one is running fails fast instead of queueing.
type voiceService struct {
	orchestrator *voice.Orchestrator
	users        UserServicer
	categories   CategoryServicer
	sessions     *review.Store

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewVoiceService creates a new VoiceServicer.
func NewVoiceService(orchestrator *voice.Orchestrator, users UserServicer, categories CategoryServicer, sessions *review.Store) VoiceServicer {
	return &voiceService{
		orchestrator: orchestrator,
		users:        users,
		categories:   categories,
		sessions:     sessions,
		inFlight:     make(map[string]bool),
	}
}

// ParseRecording decodes the base64 payload, runs the parse pipeline, and
// opens a review session with category guesses already reconciled. The
// language parameter overrides the user's stored preference when valid; when
// neither is usable the configured default language applies.
func (s *voiceService) ParseRecording(ctx context.Context, userID, audioBase64, language string) (review.Session, error) {
	if audioBase64 == "" {
		return review.Session{}, apperrors.WithMessage(apperrors.ErrInvalidAudioPayload, "audio payload is required")
	}

	if err := s.acquire(userID); err != nil {
		return review.Session{}, err
	}
	defer s.release(userID)

	// Decode at the boundary so everything past this point works with raw
	// bytes. A payload that is not valid base64 never reaches the pipeline.
	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		return review.Session{}, apperrors.Wrap(apperrors.ErrInvalidAudioPayload, err)
	}

	lang := models.VoiceLanguage(language)
	if !lang.IsValid() {
		user, err := s.users.GetUserByID(userID)
		if err != nil {
			return review.Session{}, err
		}
		lang = user.VoiceLanguage
	}
	if !lang.IsValid() {
		lang = models.VoiceLanguage(config.Get().DefaultVoiceLanguage)
	}

	result, err := s.orchestrator.Parse(ctx, audio, lang)
	if err != nil {
		return review.Session{}, err
	}

	session := s.sessions.Create(userID, result)

	categories, err := s.categories.ListCategories(userID, nil)
	if err != nil {
		// The parse itself succeeded; surface the session without guesses
		// rather than throwing the transcript away.
		logger.Get().Warnw("category lookup failed, skipping reconciliation",
			"user_id", userID, "session_id", session.ID, "error", err)
		return session, nil
	}

	session, err = s.sessions.Reconcile(session.ID, userID, categories)
	if err != nil {
		return review.Session{}, err
	}
	return session, nil
}

func (s *voiceService) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return apperrors.ErrParseInFlight
	}
	s.inFlight[userID] = true
	return nil
}

func (s *voiceService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}
