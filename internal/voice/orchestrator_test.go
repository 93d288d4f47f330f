package voice

import (
	"context"
	"errors"
	"testing"

	"tallytalk/internal/models"
	"tallytalk/internal/testutil"
)

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
	gotAudio   []byte
	gotLang    models.VoiceLanguage
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, lang models.VoiceLanguage) (string, error) {
	f.calls++
	f.gotAudio = audio
	f.gotLang = lang
	return f.transcript, f.err
}

type fakeExtractor struct {
	candidates []CandidateTransaction
	err        error
	calls      int
	gotText    string
}

func (f *fakeExtractor) Extract(_ context.Context, transcript string, _ models.VoiceLanguage) ([]CandidateTransaction, error) {
	f.calls++
	f.gotText = transcript
	return f.candidates, f.err
}

func TestParse(t *testing.T) {
	t.Run("happy_path", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "I spent 12 dollars on lunch"}
		ex := &fakeExtractor{candidates: []CandidateTransaction{
			{AmountCents: 1200, Description: "Lunch", SuggestedCategory: "Food & Dining", Type: models.TransactionTypeExpense},
		}}
		o := NewOrchestrator(tr, ex)

		result, err := o.Parse(context.Background(), []byte("audio"), models.LangEnglish)
		testutil.AssertNoError(t, err)

		if result.Transcript != "I spent 12 dollars on lunch" {
			t.Errorf("unexpected transcript: %s", result.Transcript)
		}
		if len(result.Candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(result.Candidates))
		}
		if result.Candidates[0].AmountCents != 1200 {
			t.Errorf("expected 1200 cents, got %d", result.Candidates[0].AmountCents)
		}
		if ex.gotText != tr.transcript {
			t.Error("extractor should receive the transcriber's output")
		}
	})

	t.Run("empty_audio", func(t *testing.T) {
		tr := &fakeTranscriber{}
		o := NewOrchestrator(tr, &fakeExtractor{})

		_, err := o.Parse(context.Background(), nil, models.LangEnglish)
		testutil.AssertAppError(t, err, "INVALID_AUDIO_PAYLOAD")
		if tr.calls != 0 {
			t.Error("transcriber must not be called for empty audio")
		}
	})

	t.Run("oversized_audio_rejected_before_network", func(t *testing.T) {
		tr := &fakeTranscriber{}
		ex := &fakeExtractor{}
		o := NewOrchestrator(tr, ex)

		big := make([]byte, MaxAudioBytes+1)
		_, err := o.Parse(context.Background(), big, models.LangEnglish)
		testutil.AssertAppError(t, err, "PAYLOAD_TOO_LARGE")
		if tr.calls != 0 || ex.calls != 0 {
			t.Error("no service may be called for an oversized recording")
		}
	})

	t.Run("exactly_at_ceiling_accepted", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "ok"}
		o := NewOrchestrator(tr, &fakeExtractor{})

		_, err := o.Parse(context.Background(), make([]byte, MaxAudioBytes), models.LangEnglish)
		testutil.AssertNoError(t, err)
	})

	t.Run("empty_transcript", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "   \n "}
		ex := &fakeExtractor{}
		o := NewOrchestrator(tr, ex)

		_, err := o.Parse(context.Background(), []byte("audio"), models.LangEnglish)
		testutil.AssertAppError(t, err, "TRANSCRIPTION_FAILED")
		if ex.calls != 0 {
			t.Error("extractor must not run on an empty transcript")
		}
	})

	t.Run("transcription_error_propagates", func(t *testing.T) {
		tr := &fakeTranscriber{err: errors.New("network down")}
		ex := &fakeExtractor{}
		o := NewOrchestrator(tr, ex)

		_, err := o.Parse(context.Background(), []byte("audio"), models.LangEnglish)
		if err == nil {
			t.Fatal("expected error")
		}
		if ex.calls != 0 {
			t.Error("extractor must not run after a transcription failure")
		}
	})

	t.Run("zero_candidates_is_valid", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "what a lovely day"}
		o := NewOrchestrator(tr, &fakeExtractor{candidates: nil})

		result, err := o.Parse(context.Background(), []byte("audio"), models.LangEnglish)
		testutil.AssertNoError(t, err)
		if len(result.Candidates) != 0 {
			t.Errorf("expected empty candidate list, got %d", len(result.Candidates))
		}
	})

	t.Run("non_positive_amounts_filtered", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "spent some money"}
		ex := &fakeExtractor{candidates: []CandidateTransaction{
			{AmountCents: 0, Description: "Free sample", Type: models.TransactionTypeExpense},
			{AmountCents: -500, Description: "Nonsense", Type: models.TransactionTypeExpense},
			{AmountCents: 999, Description: "Coffee", Type: models.TransactionTypeExpense},
		}}
		o := NewOrchestrator(tr, ex)

		result, err := o.Parse(context.Background(), []byte("audio"), models.LangEnglish)
		testutil.AssertNoError(t, err)
		if len(result.Candidates) != 1 || result.Candidates[0].Description != "Coffee" {
			t.Fatalf("expected only the Coffee candidate, got %+v", result.Candidates)
		}
	})

	t.Run("invalid_language_defaults_to_english", func(t *testing.T) {
		tr := &fakeTranscriber{transcript: "hello"}
		o := NewOrchestrator(tr, &fakeExtractor{})

		result, err := o.Parse(context.Background(), []byte("audio"), models.VoiceLanguage("xx"))
		testutil.AssertNoError(t, err)
		if tr.gotLang != models.LangEnglish {
			t.Errorf("expected fallback to en, transcriber saw %s", tr.gotLang)
		}
		if result.Language != models.LangEnglish {
			t.Errorf("expected result language en, got %s", result.Language)
		}
	})
}
