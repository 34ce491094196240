package brain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cornip/Rina/internal/model"
)

// MaxRationaleRunes bounds ActionRecord.Rationale.
const MaxRationaleRunes = 280

// Recommendation is the decoded model output for one trading cycle.
type Recommendation struct {
	Record model.ActionRecord
	// Command is the optional execution command. It is never persisted.
	Command string
	// Decoded is false when the text was not a JSON object at all.
	// Every field then holds its default.
	Decoded bool
}

// rawRecommendation keeps every field as raw JSON so each one can
// fall back to its default independently of the others.
type rawRecommendation struct {
	Action       json.RawMessage `json:"action"`
	TokenAddress json.RawMessage `json:"token_address"`
	Amount       json.RawMessage `json:"amount"`
	Reason       json.RawMessage `json:"reason"`
	Tool         json.RawMessage `json:"tool"`
}

// ParseRecommendation decodes model output into an ActionRecord for subject.
// It never fails: a malformed or missing field takes its default
// (hold, empty target, zero magnitude, empty rationale).
func ParseRecommendation(raw, subjectID string, now time.Time) Recommendation {
	rec := Recommendation{
		Record: model.ActionRecord{
			SubjectID: subjectID,
			Category:  model.ActionHold,
			CreatedAt: now,
		},
	}

	body := stripCodeFence(raw)
	if !strings.HasPrefix(body, "{") {
		return rec
	}
	var fields rawRecommendation
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return rec
	}
	rec.Decoded = true

	if s, ok := decodeString(fields.Action); ok {
		rec.Record.Category = model.ParseActionCategory(s)
	}
	if s, ok := decodeString(fields.TokenAddress); ok {
		rec.Record.Target = strings.TrimSpace(s)
	}
	rec.Record.Magnitude = decodeMagnitude(fields.Amount)
	if s, ok := decodeString(fields.Reason); ok {
		rec.Record.Rationale = truncateRunes(strings.TrimSpace(s), MaxRationaleRunes)
	}
	if s, ok := decodeString(fields.Tool); ok {
		rec.Command = strings.TrimSpace(s)
	}

	return rec
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeMagnitude accepts a JSON number or a numeric string.
// Negative and non-finite values are treated as absent.
func decodeMagnitude(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		s, ok := decodeString(raw)
		if !ok {
			return 0
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
