package video

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyUsageCountsOnlyCompletedClips(t *testing.T) {
	result := &ChainResult{
		Clips: []Clip{
			{SourceBackend: "veo", Status: ClipCompleted},
			{SourceBackend: "veo", Status: ClipCompleted},
			{SourceBackend: "veo", Status: ClipFailed},
			{SourceBackend: "ltx", Status: ClipCompleted},
		},
	}

	result.TallyUsage()

	assert.Equal(t, 3, result.CompletedClips)
	assert.Equal(t, ProviderUsage{"veo": 2, "ltx": 1}, result.ProviderUsage)
}

func TestErrorClassifiers(t *testing.T) {
	timeoutErr := &OperationTimeoutError{Backend: "veo", OperationID: "op-1", Attempts: 60}
	chainErr := &ChainLimitExceededError{Backend: "veo", Reason: "extension count 20 reached the maximum of 20"}

	assert.True(t, IsTimeout(timeoutErr))
	assert.False(t, IsTimeout(chainErr))
	assert.True(t, IsChainLimit(chainErr))
	assert.False(t, IsChainLimit(timeoutErr))

	// wrapping을 뚫고 분류되어야 한다
	wrapped := fmt.Errorf("job failed: %w", timeoutErr)
	assert.True(t, IsTimeout(wrapped))
}

func TestInvalidRequestErrorListsAllViolations(t *testing.T) {
	err := &InvalidRequestError{Violations: []string{
		"prompt: is required",
		"targetDurationSeconds: must be positive (got -1)",
	}}

	msg := err.Error()
	assert.Contains(t, msg, "prompt: is required")
	assert.Contains(t, msg, "targetDurationSeconds")
}
