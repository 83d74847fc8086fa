package entities

import (
	"encoding/json"
	"strings"
	"time"

	domainerrors "pleito/contexts/electoral-process/tally-bridge/domain/errors"
)

const (
	OutcomeUpheld          = "upheld"
	OutcomeDismissed       = "dismissed"
	OutcomePartiallyUpheld = "partially_upheld"
)

const (
	SubjectSlate  = "slate"
	SubjectMember = "member"
	SubjectResult = "result"
)

// JudgmentClosed is the decoded payload of a judgment.closed event.
type JudgmentClosed struct {
	JudgmentID   string
	CaseID       string
	ElectionID   string
	SubjectType  string
	SubjectID    string
	Outcome      string
	DecisionType string
	EffectiveAt  time.Time
	FullVoidance bool
}

type judgmentClosedPayload struct {
	JudgmentID   string `json:"judgment_id"`
	CaseID       string `json:"case_id"`
	ElectionID   string `json:"election_id"`
	SubjectType  string `json:"subject_type"`
	SubjectID    string `json:"subject_id"`
	Outcome      string `json:"outcome"`
	DecisionType string `json:"decision_type"`
	EffectiveAt  string `json:"effective_at"`
	FullVoidance bool   `json:"full_voidance"`
}

// ParseJudgmentClosed decodes and validates the event payload. A payload
// missing its case, election or outcome cannot be applied and is rejected
// as malformed rather than silently skipped.
func ParseJudgmentClosed(data []byte) (JudgmentClosed, error) {
	var payload judgmentClosedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return JudgmentClosed{}, domainerrors.ErrMalformedEvent
	}
	closed := JudgmentClosed{
		JudgmentID:   strings.TrimSpace(payload.JudgmentID),
		CaseID:       strings.TrimSpace(payload.CaseID),
		ElectionID:   strings.TrimSpace(payload.ElectionID),
		SubjectType:  strings.TrimSpace(payload.SubjectType),
		SubjectID:    strings.TrimSpace(payload.SubjectID),
		Outcome:      strings.TrimSpace(payload.Outcome),
		DecisionType: strings.TrimSpace(payload.DecisionType),
		FullVoidance: payload.FullVoidance,
	}
	if closed.CaseID == "" || closed.ElectionID == "" {
		return JudgmentClosed{}, domainerrors.ErrMalformedEvent
	}
	switch closed.Outcome {
	case OutcomeUpheld, OutcomeDismissed, OutcomePartiallyUpheld:
	default:
		return JudgmentClosed{}, domainerrors.ErrMalformedEvent
	}
	switch closed.SubjectType {
	case "", SubjectSlate, SubjectMember, SubjectResult:
	default:
		return JudgmentClosed{}, domainerrors.ErrMalformedEvent
	}
	if (closed.SubjectType == "") != (closed.SubjectID == "") {
		return JudgmentClosed{}, domainerrors.ErrMalformedEvent
	}
	if strings.TrimSpace(payload.EffectiveAt) != "" {
		at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(payload.EffectiveAt))
		if err != nil {
			return JudgmentClosed{}, domainerrors.ErrMalformedEvent
		}
		closed.EffectiveAt = at.UTC()
	}
	return closed, nil
}
