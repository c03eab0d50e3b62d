package video

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InvalidRequestError - 호출자가 고칠 수 있는 요청 오류. 네트워크 호출 전에 발생.
// Violations lists every violated constraint, not just the first.
type InvalidRequestError struct {
	Violations []string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.Violations, "; "))
}

// ValidationError - backend 파라미터 사전 검증 실패. 네트워크 호출 전에 발생.
type ValidationError struct {
	Backend string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] validation failed: %s", e.Backend, strings.Join(e.Fields, "; "))
}

// ChainLimitExceededError - extension chain 한도 초과 (로컬 검증, round-trip 없음)
type ChainLimitExceededError struct {
	Backend string
	Reason  string
}

func (e *ChainLimitExceededError) Error() string {
	return fmt.Sprintf("[%s] chain limit exceeded: %s", e.Backend, e.Reason)
}

// OperationTimeoutError - polling budget 안에 terminal 상태에 도달하지 못함.
// Distinct from an explicit failure: the backend job may still finish later.
type OperationTimeoutError struct {
	Backend     string
	OperationID string
	Attempts    int
	Waited      time.Duration
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("[%s] operation %s did not complete after %d attempts (%s)",
		e.Backend, e.OperationID, e.Attempts, e.Waited)
}

// BackendError - backend가 반환한 오류를 원문 그대로 보존
type BackendError struct {
	Backend    string
	StatusCode int
	RawMessage string
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] backend error (status %d): %s", e.Backend, e.StatusCode, e.RawMessage)
	}
	return fmt.Sprintf("[%s] backend error: %s", e.Backend, e.RawMessage)
}

// IsTimeout reports whether err is an OperationTimeoutError.
func IsTimeout(err error) bool {
	var t *OperationTimeoutError
	return errors.As(err, &t)
}

// IsChainLimit reports whether err is a ChainLimitExceededError.
func IsChainLimit(err error) bool {
	var t *ChainLimitExceededError
	return errors.As(err, &t)
}
