package entity

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisKind string

const (
	AnalysisContent  AnalysisKind = "content"
	AnalysisDelivery AnalysisKind = "delivery"
)

type ContentType string

const (
	ContentScript  ContentType = "script"
	ContentOutline ContentType = "outline"
)

type Rehearsal struct {
	Id               uuid.UUID
	SpeechId         uuid.UUID
	Analysis         []AnalysisKind
	Content          *Content
	VideoUrl         string
	Duration         float64
	DeliveryAnalysis *DeliveryAnalysis
	ContentAnalysis  *ContentAnalysis
	CurrentStep      int
	CreatedAt        time.Time
	UpdatedAt        *time.Time
}

func (r *Rehearsal) Requests(kind AnalysisKind) bool {
	for _, k := range r.Analysis {
		if k == kind {
			return true
		}
	}
	return false
}

// HasContent is true once the user supplied both a content type and some text.
func (r *Rehearsal) HasContent() bool {
	return r.Content != nil && r.Content.Type != "" && r.Content.Text != ""
}

// PendingKinds lists requested kinds that have no stored result yet.
func (r *Rehearsal) PendingKinds() []AnalysisKind {
	var pending []AnalysisKind
	if r.Requests(AnalysisDelivery) && r.DeliveryAnalysis == nil {
		pending = append(pending, AnalysisDelivery)
	}
	if r.Requests(AnalysisContent) && r.ContentAnalysis == nil {
		pending = append(pending, AnalysisContent)
	}
	return pending
}

// SetAnalysis replaces the requested kinds and drops cached results for kinds
// that are no longer requested.
func (r *Rehearsal) SetAnalysis(kinds []AnalysisKind) {
	r.Analysis = kinds
	if !r.Requests(AnalysisDelivery) {
		r.DeliveryAnalysis = nil
	}
	if !r.Requests(AnalysisContent) {
		r.ContentAnalysis = nil
	}
}

// Analysis payloads. These are persisted as jsonb and echoed to clients as-is,
// so the json tags are the wire format of the analysis engine.

type Content struct {
	Type ContentType `json:"type"`
	Text string      `json:"text"`
}

type Observation struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

type BodyLanguageAnalysis struct {
	Pros []Observation `json:"pros"`
	Cons []Observation `json:"cons"`
}

type DeliveryAnalysis struct {
	SpeechRateWpm        float64               `json:"speech_rate_wpm"`
	FillerWords          map[string]int        `json:"filler_words"`
	BodyLanguageAnalysis *BodyLanguageAnalysis `json:"body_language_analysis,omitempty"`
}

type OutlineObservation struct {
	OutlinePoint      string `json:"outline_point,omitempty"`
	Timestamp         string `json:"timestamp"`
	Description       string `json:"description,omitempty"`
	TranscriptExcerpt string `json:"transcript_excerpt,omitempty"`
	Issue             string `json:"issue,omitempty"`
	Suggestion        string `json:"suggestion,omitempty"`
}

type OutlineAnalysis struct {
	Pros []OutlineObservation `json:"pros"`
	Cons []OutlineObservation `json:"cons"`
}

type ScriptObservation struct {
	ScriptExcerpt     string `json:"script_excerpt"`
	TranscriptExcerpt string `json:"transcript_excerpt"`
	Timestamp         string `json:"timestamp"`
	Note              string `json:"note"`
}

type ScriptAnalysis struct {
	Omissions   []ScriptObservation `json:"omissions"`
	Additions   []ScriptObservation `json:"additions"`
	Paraphrases []ScriptObservation `json:"paraphrases"`
}

type ContentAnalysis struct {
	ContentAnalysis *OutlineAnalysis `json:"content_analysis,omitempty"`
	ScriptAnalysis  *ScriptAnalysis  `json:"script_analysis,omitempty"`
}
