package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	apperrors "tallytalk/internal/errors"
	"tallytalk/internal/models"
)

const (
	whisperModel    = "whisper-1"
	extractionModel = "gpt-4o-mini"

	// Descriptions must come out in English no matter what was spoken, and
	// income vocabulary routes an item to type "income"; everything else
	// defaults to "expense". The model splits multi-transaction utterances.
	extractionPrompt = `You extract financial transactions from voice transcripts. The transcript may be translated from another language - ALWAYS output descriptions in English regardless of the original language. ALWAYS return a JSON array with at least one transaction if there's a dollar amount mentioned.

Each transaction needs:
- amount: number (dollar amount, always positive)
- description: string (brief description of what it's for)
- suggested_category: string (from the lists below)
- type: "expense" or "income"

INCOME indicators (use type: "income"):
- Words: salary, paycheck, income, received, earned, got paid, payment, bonus, dividend, interest, refund, freelance, commission, tips, gift money, sold, revenue
- Context: money coming IN to the user

EXPENSE indicators (use type: "expense"):
- Words: spent, bought, paid for, cost, purchased, expense, charged, bill, subscription
- Context: money going OUT from the user

EXPENSE categories: "Food & Dining", "Groceries", "Transport", "Entertainment", "Shopping", "Bills & Utilities", "Health", "Other"
INCOME categories: "Salary", "Freelance", "Investments", "Gifts", "Refunds", "Other Income"

Examples:
- "$20 for lunch" → [{"amount": 20, "description": "lunch", "suggested_category": "Food & Dining", "type": "expense"}]
- "$5000 salary" → [{"amount": 5000, "description": "salary", "suggested_category": "Salary", "type": "income"}]
- "Got $50 refund" → [{"amount": 50, "description": "refund", "suggested_category": "Refunds", "type": "income"}]
- "$25 coffee and $30 uber" → [{"amount": 25, "description": "coffee", "suggested_category": "Food & Dining", "type": "expense"}, {"amount": 30, "description": "uber", "suggested_category": "Transport", "type": "expense"}]

IMPORTANT: If the description mentions salary, paycheck, freelance, bonus, refund, income, or similar - it's INCOME, not expense.

Return ONLY a valid JSON array, no other text.`
)

// Client calls an OpenAI-compatible API for transcription and extraction.
// It implements both Transcriber and Extractor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a speech client for the given OpenAI-compatible endpoint.
// A nil httpClient falls back to a client with a 60s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Transcribe uploads the recording to the transcription endpoint with
// task=translate so any supported spoken language comes back as English text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, lang models.VoiceLanguage) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "recording.m4a")
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	_ = mw.WriteField("model", whisperModel)
	_ = mw.WriteField("task", "translate")
	if lang != "" && lang != models.LangEnglish {
		_ = mw.WriteField("language", string(lang))
	}
	if err := mw.Close(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrTransportFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrTransportFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Wrap(apperrors.ErrTranscriptionFailed,
			fmt.Errorf("transcription api status %d: %s", resp.StatusCode, respBody))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", apperrors.Wrap(apperrors.ErrTranscriptionFailed,
			fmt.Errorf("decoding transcription response: %w", err))
	}

	return result.Text, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// candidateWire is the untrusted JSON shape the model returns. Amounts arrive
// as float dollars and are converted to cents at the decode boundary.
type candidateWire struct {
	Amount            float64 `json:"amount"`
	Description       string  `json:"description"`
	SuggestedCategory string  `json:"suggested_category"`
	Type              string  `json:"type"`
}

// Extract asks the chat model for a JSON array of transactions and decodes it
// into typed candidates. A response that is not a JSON array is an extraction
// failure, never a panic downstream.
func (c *Client) Extract(ctx context.Context, transcript string, lang models.VoiceLanguage) ([]CandidateTransaction, error) {
	reqBody := chatRequest{
		Model:       extractionModel,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: transcript},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransportFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransportFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed,
			fmt.Errorf("extraction api status %d: %s", resp.StatusCode, respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed,
			fmt.Errorf("decoding extraction response: %w", err))
	}
	if len(result.Choices) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed,
			fmt.Errorf("extraction api returned no choices"))
	}

	return decodeCandidates(result.Choices[0].Message.Content)
}

// decodeCandidates parses the model's raw text into typed candidates.
func decodeCandidates(content string) ([]CandidateTransaction, error) {
	clean := cleanModelJSON(content)

	var wire []candidateWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrExtractionFailed,
			fmt.Errorf("model output is not a JSON array: %w; raw: %s", err, content))
	}

	candidates := make([]CandidateTransaction, 0, len(wire))
	for _, w := range wire {
		t := models.TransactionType(w.Type)
		if t != models.TransactionTypeIncome {
			t = models.TransactionTypeExpense
		}
		candidates = append(candidates, CandidateTransaction{
			AmountCents:       dollarsToCents(w.Amount),
			Description:       strings.TrimSpace(w.Description),
			SuggestedCategory: strings.TrimSpace(w.SuggestedCategory),
			Type:              t,
		})
	}
	return candidates, nil
}

// cleanModelJSON strips Markdown code fences and surrounding prose when the
// model ignores the raw-JSON instruction, keeping the outermost array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

func dollarsToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
