package model

import "time"

// ActionCategory is the kind of action a recommendation asks for.
type ActionCategory string

const (
	ActionBuy  ActionCategory = "buy"
	ActionSell ActionCategory = "sell"
	ActionHold ActionCategory = "hold"
	ActionSwap ActionCategory = "swap"
)

// ParseActionCategory maps free text onto a category.
// Matching is case-insensitive; anything unrecognised is Hold.
func ParseActionCategory(s string) ActionCategory {
	switch ActionCategory(normalize(s)) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	case ActionSwap:
		return ActionSwap
	default:
		return ActionHold
	}
}

// ActionRecord is one decision taken by a channel cycle.
// It is built once, may gain an ExecutionProof, and is then persisted unchanged.
type ActionRecord struct {
	ID             int64          `json:"id,string"`
	Channel        Channel        `json:"channel"`
	SubjectID      string         `json:"subject_id"`
	Category       ActionCategory `json:"category"`
	Target         string         `json:"target"`
	Magnitude      float64        `json:"magnitude"`
	Rationale      string         `json:"rationale"`
	CreatedAt      time.Time      `json:"created_at"`
	ExecutionProof *string        `json:"execution_proof,omitempty"`
}

// AttachProof records the result of a successful execution.
func (r *ActionRecord) AttachProof(proof string) {
	r.ExecutionProof = &proof
}
