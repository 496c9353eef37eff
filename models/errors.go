package models

import (
	"errors"
	"fmt"
)

// Error codes used in logs, the status surface and internal error handling.
const (
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeRenderTimeout     = "RENDER_TIMEOUT"
	ErrCodeInteractionFailed = "INTERACTION_FAILED"
	ErrCodeFrameAccess       = "FRAME_ACCESS"
	ErrCodeExtractionFailed  = "EXTRACTION_FAILED"
	ErrCodeDeliveryFailed    = "DELIVERY_FAILED"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"

	// Status surface only.
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
)

// MonitorError is the internal error type carrying an error code and the
// site it originated from. It supports error wrapping via Unwrap.
type MonitorError struct {
	Code    string
	Site    string
	Message string
	Err     error // wrapped original error
}

func (e *MonitorError) Error() string {
	prefix := e.Code
	if e.Site != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Code, e.Site)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *MonitorError) Unwrap() error {
	return e.Err
}

// NewMonitorError creates a new MonitorError.
func NewMonitorError(code, site, message string, err error) *MonitorError {
	return &MonitorError{Code: code, Site: site, Message: message, Err: err}
}

// CodeOf returns the code of the first MonitorError in err's chain, or "".
func CodeOf(err error) string {
	var me *MonitorError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
