package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/review"
	"tallytalk/internal/services"
)

// VoiceHandler handles voice recording uploads and the recorder open signal.
type VoiceHandler struct {
	voiceService services.VoiceServicer
	signal       *review.RecorderSignal
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(voiceService services.VoiceServicer, signal *review.RecorderSignal) *VoiceHandler {
	return &VoiceHandler{voiceService: voiceService, signal: signal}
}

// ParseVoiceRequest represents the request payload for parsing a recording.
// Audio carries the recording bytes as standard base64.
type ParseVoiceRequest struct {
	Audio    string `json:"audio" binding:"required"`
	Language string `json:"language" binding:"omitempty,voice_language"`
}

// ParseVoice handles uploading one recording and opening a review session
// @Summary     Parse a voice recording
// @Description Transcribe a recording, extract candidate transactions, and open a review session
// @Tags        voice
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ParseVoiceRequest true "Base64 audio and optional language override"
// @Success     201 {object} review.Session "Review session with transcript and candidates"
// @Failure     400 {object} ErrorResponse "Invalid payload or unintelligible audio"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "A parse is already in flight"
// @Failure     413 {object} ErrorResponse "Recording too large"
// @Failure     502 {object} ErrorResponse "Speech service unreachable"
// @Router      /voice/parse [post]
func (h *VoiceHandler) ParseVoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ParseVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidAudioPayload, err.Error()))
		return
	}

	session, err := h.voiceService.ParseRecording(c.Request.Context(), userID, req.Audio, req.Language)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// RaiseRecorderSignal asks the next client poll to open the recorder
// @Summary     Request recorder open
// @Description Raise a one-shot signal telling the user's client to open the recorder
// @Tags        voice
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     204 "Signal raised"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /voice/recorder-signal [post]
func (h *VoiceHandler) RaiseRecorderSignal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.signal.Raise(userID)
	c.Status(http.StatusNoContent)
}

// ConsumeRecorderSignal reports and clears the pending recorder signal
// @Summary     Poll recorder signal
// @Description Report whether a recorder-open signal is pending; reading it clears it
// @Tags        voice
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]bool "open: whether the client should open the recorder"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /voice/recorder-signal [get]
func (h *VoiceHandler) ConsumeRecorderSignal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"open": h.signal.Consume(userID)})
}
