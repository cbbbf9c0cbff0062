package entity

import "time"

// Closed error taxonomy for provider interactions.
const (
	ErrorTimeout   = "timeout"
	ErrorRateLimit = "rate_limit"
	ErrorAuth      = "auth"
	ErrorQuota     = "quota"
	ErrorParse     = "parse"
	ErrorEmpty     = "empty"
	ErrorUnknown   = "unknown"
)

// RetryableError reports whether the taxonomy entry is retried by the
// per-job executor. Everything outside timeout and rate_limit is terminal.
func RetryableError(errorType string) bool {
	return errorType == ErrorTimeout || errorType == ErrorRateLimit
}

// ProviderCall is one append-only record of an external call outcome.
// Diagnostics only; never read back by the pipeline.
type ProviderCall struct {
	ID            string    `bson:"_id,omitempty"`
	Provider      string    `bson:"provider"`
	PlanID        string    `bson:"planId,omitempty"`
	Success       bool      `bson:"success"`
	ErrorType     string    `bson:"errorType"`
	HTTPStatus    int       `bson:"httpStatus,omitempty"`
	LatencyMs     int       `bson:"latencyMs,omitempty"`
	CorrelationID string    `bson:"correlationId,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
}

// ProviderErrorRecord is one append-only record of a classified failure.
type ProviderErrorRecord struct {
	ID         string    `bson:"_id,omitempty"`
	PlanID     string    `bson:"planId"`
	Provider   string    `bson:"provider"`
	Context    string    `bson:"context,omitempty"`
	ErrorType  string    `bson:"errorType"`
	HTTPStatus int       `bson:"httpStatus,omitempty"`
	LatencyMs  int       `bson:"latencyMs,omitempty"`
	Message    string    `bson:"message"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// ProviderHealth is an aggregate view over recent provider calls.
type ProviderHealth struct {
	Provider    string         `json:"provider"`
	TotalCalls  int            `json:"total_calls"`
	SuccessRate float64        `json:"success_rate"`
	ErrorCounts map[string]int `json:"error_counts"`
}
