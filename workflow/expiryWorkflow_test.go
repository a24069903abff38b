package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildExpiryMessage(t *testing.T) {
	expiry := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	msg := BuildExpiryMessage("MH12AB1234", "Road Tax", expiry, "Sharma RTO Services")

	assert.Contains(t, msg, "MH12AB1234")
	assert.Contains(t, msg, "Road Tax")
	assert.Contains(t, msg, "15-03-2026")
	assert.Contains(t, msg, "Sharma RTO Services")
}
