package core

import (
	"fmt"
	"image/color"
)

// Severity classifies a log entry.
type Severity string

const (
	SeverityLog       Severity = "log"
	SeverityWarning   Severity = "warning"
	SeverityError     Severity = "error"
	SeverityException Severity = "exception"
	SeverityAssert    Severity = "assert"
)

var (
	logColor       = color.RGBA{0, 0, 0, 0}
	warningColor   = color.RGBA{255, 255, 0, 32}
	errorColor     = color.RGBA{255, 0, 0, 32}
	exceptionColor = color.RGBA{255, 0, 0, 32}
	assertColor    = color.RGBA{255, 0, 0, 32}
)

// Color returns the row tint for the severity. Unknown severities are transparent.
func (s Severity) Color() color.RGBA {
	switch s {
	case SeverityLog:
		return logColor
	case SeverityWarning:
		return warningColor
	case SeverityError:
		return errorColor
	case SeverityException:
		return exceptionColor
	case SeverityAssert:
		return assertColor
	default:
		return color.RGBA{}
	}
}

// ParseSeverity converts a textual severity back to its constant.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityLog, SeverityWarning, SeverityError, SeverityException, SeverityAssert:
		return sev, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}
