package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable means the node could not be reached within the retry
	// budget.
	ErrUnreachable = errors.New("node unreachable")
	// ErrIDMismatch means the response carried a different id than the
	// request.
	ErrIDMismatch = errors.New("response id mismatch")
	// ErrTruncated means the response body exceeded the configured size cap.
	ErrTruncated = errors.New("response truncated")
)

// NodeError is an error object reported by the node. It is surfaced verbatim
// and never retried.
type NodeError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node error %d: %s", e.Code, e.Message)
}
