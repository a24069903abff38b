package utils

import "github.com/google/uuid"

// NewCorrelationId tags a request for log correlation.
func NewCorrelationId() string {
	return uuid.NewString()
}
