package core

import (
	"strings"
	"time"
)

// EchoMarker prefixes log entries that record submitted console input.
const EchoMarker = "> "

// CopySeparator sits between message and stack trace in copied text.
const CopySeparator = "\n---\n"

// LogEntry is a single recorded console message.
type LogEntry struct {
	ID         int       `json:"id"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	StackTrace string    `json:"stack_trace,omitempty"`
	Time       time.Time `json:"time"`
}

// IsEcho reports whether the entry is an echoed command.
func (e LogEntry) IsEcho() bool {
	return strings.HasPrefix(e.Message, EchoMarker)
}

// EchoedCommand returns the command text of an echoed entry, without the marker.
func (e LogEntry) EchoedCommand() string {
	return strings.TrimSpace(strings.TrimLeft(e.Message, ">"))
}

// CopyText is the clipboard representation of the entry.
func (e LogEntry) CopyText() string {
	return e.Message + CopySeparator + e.StackTrace
}
