package services

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"tallytalk/internal/config"
	"tallytalk/internal/models"
	"tallytalk/internal/review"
	"tallytalk/internal/testutil"
	"tallytalk/internal/voice"
)

type stubTranscriber struct {
	transcript string
	gotLang    models.VoiceLanguage
	entered    chan struct{}
	block      chan struct{}
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, lang models.VoiceLanguage) (string, error) {
	s.gotLang = lang
	if s.entered != nil {
		select {
		case s.entered <- struct{}{}:
		default:
		}
	}
	if s.block != nil {
		<-s.block
	}
	return s.transcript, nil
}

type stubExtractor struct {
	candidates []voice.CandidateTransaction
}

func (s *stubExtractor) Extract(context.Context, string, models.VoiceLanguage) ([]voice.CandidateTransaction, error) {
	return s.candidates, nil
}

func newVoiceService(t *testing.T, tr voice.Transcriber, ex voice.Extractor) (VoiceServicer, *models.User, *review.Store, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db)
	store := review.NewStore(0)
	svc := NewVoiceService(voice.NewOrchestrator(tr, ex), NewUserService(db), NewCategoryService(db), store)
	return svc, user, store, func() { testutil.TeardownTestDB(t, db) }
}

func audioB64() string {
	return base64.StdEncoding.EncodeToString([]byte("fake-audio"))
}

func TestParseRecording(t *testing.T) {
	t.Run("creates_reconciled_session", func(t *testing.T) {
		tr := &stubTranscriber{transcript: "bought groceries for 40 dollars"}
		ex := &stubExtractor{candidates: []voice.CandidateTransaction{{
			AmountCents:       4000,
			Description:       "Groceries",
			SuggestedCategory: "Groceries",
			Type:              models.TransactionTypeExpense,
		}}}

		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		groceries := testutil.CreateDefaultCategory(t, db, "Groceries", models.CategoryTypeExpense)
		store := review.NewStore(0)
		svc := NewVoiceService(voice.NewOrchestrator(tr, ex), NewUserService(db), NewCategoryService(db), store)

		session, err := svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		testutil.AssertNoError(t, err)

		if session.Status != review.StatusReviewing {
			t.Errorf("expected reviewing, got %s", session.Status)
		}
		if len(session.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(session.Items))
		}
		if session.Items[0].CategoryID == nil || *session.Items[0].CategoryID != groceries.ID {
			t.Errorf("expected reconciled category %s, got %v", groceries.ID, session.Items[0].CategoryID)
		}
	})

	t.Run("invalid_base64", func(t *testing.T) {
		svc, user, _, done := newVoiceService(t, &stubTranscriber{transcript: "x"}, &stubExtractor{})
		defer done()

		_, err := svc.ParseRecording(context.Background(), user.ID, "!!!not-base64!!!", "")
		testutil.AssertAppError(t, err, "INVALID_AUDIO_PAYLOAD")
	})

	t.Run("empty_payload", func(t *testing.T) {
		svc, user, _, done := newVoiceService(t, &stubTranscriber{transcript: "x"}, &stubExtractor{})
		defer done()

		_, err := svc.ParseRecording(context.Background(), user.ID, "", "")
		testutil.AssertAppError(t, err, "INVALID_AUDIO_PAYLOAD")
	})

	t.Run("explicit_language_overrides_preference", func(t *testing.T) {
		tr := &stubTranscriber{transcript: "hola"}
		svc, user, _, done := newVoiceService(t, tr, &stubExtractor{})
		defer done()

		_, err := svc.ParseRecording(context.Background(), user.ID, audioB64(), "es")
		testutil.AssertNoError(t, err)
		if tr.gotLang != models.LangSpanish {
			t.Errorf("expected es, transcriber saw %s", tr.gotLang)
		}
	})

	t.Run("falls_back_to_user_preference", func(t *testing.T) {
		tr := &stubTranscriber{transcript: "bonjour"}

		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		if err := db.Model(user).Update("voice_language", models.LangFrench).Error; err != nil {
			t.Fatalf("failed to set language preference: %v", err)
		}
		svc := NewVoiceService(voice.NewOrchestrator(tr, &stubExtractor{}), NewUserService(db), NewCategoryService(db), review.NewStore(0))

		_, err := svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		testutil.AssertNoError(t, err)
		if tr.gotLang != models.LangFrench {
			t.Errorf("expected fr from user preference, transcriber saw %s", tr.gotLang)
		}
	})

	t.Run("blank_preference_falls_back_to_configured_default", func(t *testing.T) {
		// Cleanup registered before Setenv so the reload below runs after the
		// environment has been restored.
		t.Cleanup(func() {
			if _, err := config.Load(); err != nil {
				t.Errorf("failed to restore config: %v", err)
			}
		})
		t.Setenv("DEFAULT_VOICE_LANGUAGE", "de")
		if _, err := config.Load(); err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}

		tr := &stubTranscriber{transcript: "hallo"}

		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)
		if err := db.Model(user).Update("voice_language", "").Error; err != nil {
			t.Fatalf("failed to blank language preference: %v", err)
		}
		svc := NewVoiceService(voice.NewOrchestrator(tr, &stubExtractor{}), NewUserService(db), NewCategoryService(db), review.NewStore(0))

		_, err := svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		testutil.AssertNoError(t, err)
		if tr.gotLang != models.LangGerman {
			t.Errorf("expected de from configured default, transcriber saw %s", tr.gotLang)
		}
	})

	t.Run("second_parse_in_flight_rejected", func(t *testing.T) {
		block := make(chan struct{})
		tr := &stubTranscriber{transcript: "slow", entered: make(chan struct{}, 1), block: block}
		svc, user, _, done := newVoiceService(t, tr, &stubExtractor{})
		defer done()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		}()

		// Wait until the first call holds the guard inside the transcriber.
		<-tr.entered

		_, err := svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		testutil.AssertAppError(t, err, "PARSE_IN_FLIGHT")

		close(block)
		wg.Wait()

		// The guard clears once the first parse finishes.
		_, err = svc.ParseRecording(context.Background(), user.ID, audioB64(), "")
		testutil.AssertNoError(t, err)
	})
}
