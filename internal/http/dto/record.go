package dto

import (
	"strconv"
	"time"

	"github.com/cornip/Rina/internal/model"
)

type ActionRecordResponse struct {
	ID             string    `json:"id"`
	Channel        string    `json:"channel"`
	SubjectID      string    `json:"subject_id"`
	Category       string    `json:"category"`
	Target         string    `json:"target"`
	Magnitude      float64   `json:"magnitude"`
	Rationale      string    `json:"rationale"`
	CreatedAt      time.Time `json:"created_at"`
	ExecutionProof *string   `json:"execution_proof,omitempty"`
	Executed       bool      `json:"executed"`
}

type ListRecordsRequest struct {
	SubjectID string `form:"subject_id"`
	Limit     int32  `form:"limit" binding:"omitempty,min=1,max=200"`
}

func ToActionRecordResponse(rec model.ActionRecord) ActionRecordResponse {
	return ActionRecordResponse{
		ID:             strconv.FormatInt(rec.ID, 10),
		Channel:        string(rec.Channel),
		SubjectID:      rec.SubjectID,
		Category:       string(rec.Category),
		Target:         rec.Target,
		Magnitude:      rec.Magnitude,
		Rationale:      rec.Rationale,
		CreatedAt:      rec.CreatedAt,
		ExecutionProof: rec.ExecutionProof,
		Executed:       rec.ExecutionProof != nil,
	}
}

func ToActionRecordResponses(recs []model.ActionRecord) []ActionRecordResponse {
	out := make([]ActionRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, ToActionRecordResponse(r))
	}
	return out
}
