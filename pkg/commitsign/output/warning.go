package output

import (
	"fmt"
	"time"
)

// Warning represents a structured warning with code, message, and timestamp.
type Warning struct {
	Code      Code
	Message   string
	Timestamp time.Time
}

// NewWarning creates a new structured warning with the given code and message.
func NewWarning(code Code, message string) *Warning {
	return &Warning{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewWarningf creates a new warning with a formatted message.
func NewWarningf(code Code, format string, args ...interface{}) *Warning {
	return &Warning{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	}
}

// String returns a human-readable representation of the warning.
func (w *Warning) String() string {
	return fmt.Sprintf("warning: %s", w.Message)
}
