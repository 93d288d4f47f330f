// Package voice implements the pipeline that turns one audio recording into
// zero or more candidate transactions: transcription (with translation to
// English), structured extraction via a language model, and local validation
// of the model's output.
package voice

import (
	"context"

	"tallytalk/internal/models"
)

// MaxAudioBytes is the payload ceiling for one recording, checked before any
// network call. The transcription service rejects larger uploads, and an
// oversized asset almost always means a degenerate recording.
const MaxAudioBytes = 5 * 1024 * 1024

// CandidateTransaction is one unconfirmed transaction extracted from a
// transcript. Amounts are in cents and always positive; candidates that fail
// that check never leave the orchestrator. SuggestedCategory is free text
// from the model, not a category ID.
type CandidateTransaction struct {
	AmountCents       int64                  `json:"amount_cents"`
	Description       string                 `json:"description"`
	SuggestedCategory string                 `json:"suggested_category"`
	Type              models.TransactionType `json:"type"`
}

// ParseResult is the orchestrator's output: the English transcript for
// display, and the validated candidate list. An empty candidate list is a
// valid result, not an error.
type ParseResult struct {
	Transcript string                 `json:"transcript"`
	Language   models.VoiceLanguage   `json:"language"`
	Candidates []CandidateTransaction `json:"candidates"`
}

// Transcriber converts an audio recording to English text, translating
// non-English speech rather than transcribing it phonetically.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang models.VoiceLanguage) (string, error)
}

// Extractor turns a transcript into structured candidate transactions.
// Implementations must treat one transcript as potentially containing several
// transactions and must label each as income or expense.
type Extractor interface {
	Extract(ctx context.Context, transcript string, lang models.VoiceLanguage) ([]CandidateTransaction, error)
}
