package entity

import "strings"

const defaultAnalysisSummary = "No summary could be produced for this document."

type AnalysisEntities struct {
	People []string `json:"people"`
	Orgs   []string `json:"orgs"`
	Dates  []string `json:"dates"`
}

type AnalysisResult struct {
	Summary     string           `json:"summary"`
	Entities    AnalysisEntities `json:"entities"`
	KeyFacts    []string         `json:"key_facts"`
	ActionItems []string         `json:"action_items"`
	Confidence  float64          `json:"confidence"`
	Error       string           `json:"error,omitempty"`
}

// Normalize makes the result safe to hand to the conversation stream:
// confidence in [0,1], a non-empty summary and non-nil slices.
func (r AnalysisResult) Normalize() AnalysisResult {
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Summary == "" {
		r.Summary = defaultAnalysisSummary
	}
	if r.Confidence < 0 || r.Confidence != r.Confidence {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	r.Entities.People = nonNil(r.Entities.People)
	r.Entities.Orgs = nonNil(r.Entities.Orgs)
	r.Entities.Dates = nonNil(r.Entities.Dates)
	r.KeyFacts = nonNil(r.KeyFacts)
	r.ActionItems = nonNil(r.ActionItems)
	return r
}

// FailedAnalysis is the deterministic result for anything that could not be analyzed.
func FailedAnalysis(summary, reason string) AnalysisResult {
	return AnalysisResult{
		Summary:    summary,
		Confidence: 0,
		Error:      reason,
	}.Normalize()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
