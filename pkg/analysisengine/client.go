// Package analysisengine is the HTTP client for the external analysis engine
// that transcribes rehearsal videos and scores delivery, body language and
// outline/script adherence.
package analysisengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Engine is what the analysis service needs from the collaborator.
type Engine interface {
	AnalyzeTranscript(ctx context.Context, req TranscriptRequest) (*TranscriptResult, error)
	AnalyzeBodyLanguage(ctx context.Context, videoURL string) (*BodyLanguageResult, error)
}

type TranscriptRequest struct {
	VideoURL string `json:"video_url"`
	Outline  string `json:"outline,omitempty"`
	Script   string `json:"script,omitempty"`
}

type Observation struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

type OutlineObservation struct {
	OutlinePoint      string `json:"outline_point,omitempty"`
	Timestamp         string `json:"timestamp"`
	Description       string `json:"description,omitempty"`
	TranscriptExcerpt string `json:"transcript_excerpt,omitempty"`
	Issue             string `json:"issue,omitempty"`
	Suggestion        string `json:"suggestion,omitempty"`
}

type OutlineFeedback struct {
	Pros []OutlineObservation `json:"pros"`
	Cons []OutlineObservation `json:"cons"`
}

type ScriptObservation struct {
	ScriptExcerpt     string `json:"script_excerpt"`
	TranscriptExcerpt string `json:"transcript_excerpt"`
	Timestamp         string `json:"timestamp"`
	Note              string `json:"note"`
}

type ScriptFeedback struct {
	Omissions   []ScriptObservation `json:"omissions"`
	Additions   []ScriptObservation `json:"additions"`
	Paraphrases []ScriptObservation `json:"paraphrases"`
}

// TranscriptResult is the /analyze_transcript/ body. The content sections are
// only present when an outline or script was sent.
type TranscriptResult struct {
	SpeechRateWpm   float64          `json:"speech_rate_wpm"`
	FillerWords     map[string]int   `json:"filler_words"`
	ContentAnalysis *OutlineFeedback `json:"content_analysis,omitempty"`
	ScriptAnalysis  *ScriptFeedback  `json:"script_analysis,omitempty"`
}

type BodyLanguageResult struct {
	Pros []Observation `json:"pros"`
	Cons []Observation `json:"cons"`
}

// StatusError is returned when the engine answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis engine %s: status %d, body: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	BaseURL string
	Client  *http.Client
}

var _ Engine = &Client{}

// NewClient leaves timeouts to the caller's context; analysis of a long video
// can take minutes.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
	}
}

func (c *Client) AnalyzeTranscript(ctx context.Context, req TranscriptRequest) (*TranscriptResult, error) {
	var out TranscriptResult
	if err := c.post(ctx, "/analyze_transcript/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyzeBodyLanguage(ctx context.Context, videoURL string) (*BodyLanguageResult, error) {
	var out BodyLanguageResult
	if err := c.post(ctx, "/analyze_body_language/", TranscriptRequest{VideoURL: videoURL}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("analysis engine request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", endpoint, err)
	}
	return nil
}
