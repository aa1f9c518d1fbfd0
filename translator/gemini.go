package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// GEMINI COLLABORATOR — Calls Google Gemini for proposition rewording
// ============================================================================
// This is the ONLY file that makes external API calls. The reply text is
// handed to parseResponse; a structurally bad reply surfaces as
// ErrMalformedResponse and the caller decides what to do with it.
// ============================================================================

// GeminiCollaborator implements Collaborator using the Google Gemini API.
type GeminiCollaborator struct {
	config Config
	client *http.Client
	log    *zap.Logger
}

// NewGemini creates a new Gemini collaborator.
func NewGemini(cfg Config, log *zap.Logger) *GeminiCollaborator {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &GeminiCollaborator{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Suggest sends one proposition to Gemini and validates the structured reply.
func (g *GeminiCollaborator) Suggest(ctx context.Context, req Request) (*Suggestion, error) {
	prompt := BuildPrompt(req)

	g.log.Debug("calling collaborator",
		zap.String("proposition", req.Proposition.ID),
		zap.String("dataset", req.DatasetName),
		zap.String("text", truncate(req.Proposition.Text, 80)))

	response, err := g.callGemini(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	suggestion, err := parseResponse(response)
	if err != nil {
		g.log.Warn("collaborator reply failed validation",
			zap.String("proposition", req.Proposition.ID),
			zap.Error(err))
		return nil, err
	}

	g.log.Debug("collaborator reply accepted",
		zap.String("proposition", req.Proposition.ID),
		zap.String("chartType", suggestion.ChartType))
	return suggestion, nil
}

// ============================================================================
// GEMINI API CALL
// ============================================================================

// geminiRequest is the Gemini API request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the Gemini API response body.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// callGemini sends a prompt to the Gemini API and returns the text response.
func (g *GeminiCollaborator) callGemini(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s",
		g.config.Endpoint, g.config.Model, g.config.APIKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: prompt}},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API returned %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse Gemini response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini error %d: %s", geminiResp.Error.Code, geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini returned empty response")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
