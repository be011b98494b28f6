package models

import "time"

const (
	SourceAI      = "ai"
	SourcePattern = "pattern"
	SourceCache   = "cache"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type RootCause struct {
	Issue       string `json:"issue"`
	Likelihood  string `json:"likelihood"`
	Explanation string `json:"explanation,omitempty"`
}

type Recommendation struct {
	Priority  string `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale,omitempty"`
}

type AnalysisResult struct {
	Summary            string           `json:"summary"`
	RootCauses         []RootCause      `json:"root_causes"`
	Recommendations    []Recommendation `json:"recommendations"`
	AffectedComponents []string         `json:"affected_components"`
	Source             string           `json:"source,omitempty"`
	Model              string           `json:"model,omitempty"`
}

// Normalize replaces nil slices so the result always marshals with [] instead
// of null.
func (r *AnalysisResult) Normalize() {
	if r.RootCauses == nil {
		r.RootCauses = []RootCause{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []Recommendation{}
	}
	if r.AffectedComponents == nil {
		r.AffectedComponents = []string{}
	}
}

type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StoredAnalysis is the durable unit the cache persists: one analysis and
// its conversation. Analysis stays nil when chat starts before any analysis
// has run.
type StoredAnalysis struct {
	Fingerprint string          `json:"fingerprint"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
	Messages    []ChatMessage   `json:"messages"`
	SavedAt     time.Time       `json:"saved_at"`
}
