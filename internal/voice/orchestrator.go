package voice

import (
	"context"
	"fmt"
	"strings"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/logger"
	"tallytalk/internal/models"
)

// Orchestrator owns the audio → transcript → candidates pipeline. It is
// fire-once per call: there is no internal retry, a retry is the user
// re-recording. Transcription strictly precedes extraction because the
// extraction input is the transcription output.
type Orchestrator struct {
	transcriber Transcriber
	extractor   Extractor
}

// NewOrchestrator creates an Orchestrator over the given services.
func NewOrchestrator(transcriber Transcriber, extractor Extractor) *Orchestrator {
	return &Orchestrator{
		transcriber: transcriber,
		extractor:   extractor,
	}
}

// Parse converts one recording into a transcript and a validated candidate
// list. The size ceiling is enforced before any network call. Candidates
// without a positive amount are dropped here; zero surviving candidates is a
// valid empty result.
func (o *Orchestrator) Parse(ctx context.Context, audio []byte, lang models.VoiceLanguage) (*ParseResult, error) {
	if len(audio) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAudioPayload, "recording is empty")
	}
	if len(audio) > MaxAudioBytes {
		return nil, apperrors.Wrap(apperrors.ErrPayloadTooLarge,
			fmt.Errorf("recording is %d bytes, ceiling is %d", len(audio), MaxAudioBytes))
	}
	if !lang.IsValid() {
		lang = models.LangEnglish
	}

	transcript, err := o.transcriber.Transcribe(ctx, audio, lang)
	if err != nil {
		return nil, err
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, apperrors.WithMessage(apperrors.ErrTranscriptionFailed,
			"Could not understand audio. Please speak more clearly")
	}

	candidates, err := o.extractor.Extract(ctx, transcript, lang)
	if err != nil {
		return nil, err
	}

	kept := make([]CandidateTransaction, 0, len(candidates))
	for _, cand := range candidates {
		if cand.AmountCents <= 0 {
			logger.Get().Debugw("dropping candidate with non-positive amount",
				"amount_cents", cand.AmountCents,
				"description", cand.Description,
			)
			continue
		}
		kept = append(kept, cand)
	}

	logger.Get().Infow("voice parse complete",
		"language", lang,
		"transcript_len", len(transcript),
		"extracted", len(candidates),
		"kept", len(kept),
	)

	return &ParseResult{
		Transcript: transcript,
		Language:   lang,
		Candidates: kept,
	}, nil
}
