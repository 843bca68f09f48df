package intake

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// CandidateInsight is one extracted insight as handed over by the upstream
// extraction step.
type CandidateInsight struct {
	Category             string   `json:"category"`
	Title                string   `json:"title"`
	Insight              string   `json:"insight"`
	Quotes               []string `json:"quotes,omitempty"`
	CoachingImplication  string   `json:"coachingImplication"`
	TechniqueSuggestions []string `json:"techniqueSuggestions,omitempty"`
	AntiPatterns         []string `json:"antiPatterns,omitempty"`
	ConfidenceLevel      string   `json:"confidenceLevel"`
	VulnerabilityLevel   string   `json:"vulnerabilityLevel,omitempty"`
	RelatedProfiles      []string `json:"relatedProfiles,omitempty"`
}

// InterviewLink groups insights extracted from one interview recording.
type InterviewLink struct {
	InterviewID   string             `json:"interviewId"`
	ParticipantID string             `json:"participantId,omitempty"`
	Date          string             `json:"date"`
	Link          string             `json:"link"`
	Notes         string             `json:"notes,omitempty"`
	Insights      []CandidateInsight `json:"insights"`
}

// BatchPayload is the wire format for batch import. Exactly one of Insights
// or InterviewLinks must be present.
type BatchPayload struct {
	Source         string             `json:"source"`
	SourceType     string             `json:"sourceType,omitempty"`
	Insights       []CandidateInsight `json:"insights,omitempty"`
	InterviewLinks []InterviewLink    `json:"interviewLinks,omitempty"`
}

// Entry pairs a candidate with the source label it arrived under.
type Entry struct {
	Candidate   CandidateInsight
	SourceID    string
	SourceLabel string
}

// ParsePayload decodes a batch payload and flattens it into entries.
// Payloads matching neither known shape are rejected with a descriptive
// error; this is the only hard failure of batch import.
func ParsePayload(data []byte) ([]Entry, error) {
	var payload BatchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, eris.Wrap(err, "intake: decode payload")
	}

	if payload.Source == "" {
		return nil, eris.New("intake: payload missing required field 'source'")
	}

	switch {
	case len(payload.Insights) > 0:
		entries := make([]Entry, 0, len(payload.Insights))
		for _, c := range payload.Insights {
			entries = append(entries, Entry{
				Candidate:   c,
				SourceID:    payload.Source,
				SourceLabel: payload.Source,
			})
		}
		return entries, nil

	case len(payload.InterviewLinks) > 0:
		var entries []Entry
		for _, link := range payload.InterviewLinks {
			label := payload.Source
			if link.InterviewID != "" {
				label = payload.Source + "/" + link.InterviewID
			}
			for _, c := range link.Insights {
				entries = append(entries, Entry{
					Candidate:   c,
					SourceID:    link.InterviewID,
					SourceLabel: label,
				})
			}
		}
		return entries, nil

	default:
		return nil, eris.New("intake: payload matches neither known shape (expected top-level 'insights' or 'interviewLinks' array)")
	}
}
