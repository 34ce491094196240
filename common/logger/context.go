package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// A channel loop sets Channel once; each cycle adds Category, and per-item work adds ItemID.
type LogFields struct {
	Channel   *string // Channel name (e.g., "social", "trading")
	Category  *string // Behavior category selected for the cycle
	ItemID    *string // Inbound item being evaluated
	RecordID  *int64  // ActionRecord ID once constructed
	Cycle     *int64  // Cycle counter within the channel loop
	Component string  // Component name (e.g., "agent.scheduler")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.Channel != nil {
		result.Channel = new.Channel
	}
	if new.Category != nil {
		result.Category = new.Category
	}
	if new.ItemID != nil {
		result.ItemID = new.ItemID
	}
	if new.RecordID != nil {
		result.RecordID = new.RecordID
	}
	if new.Cycle != nil {
		result.Cycle = new.Cycle
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
