package logbuf

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/modoterra/devconsole/pkg/core"
)

// JournalSender is the subset of go-systemd's journal package the sink uses.
type JournalSender interface {
	Send(message string, priority journal.Priority, vars map[string]string) error
}

type systemJournal struct{}

func (systemJournal) Send(message string, priority journal.Priority, vars map[string]string) error {
	return journal.Send(message, priority, vars)
}

// JournalSink mirrors buffer entries into systemd-journald.
type JournalSink struct {
	buf        *Buffer
	sender     JournalSender
	identifier string
	logger     *slog.Logger
}

// NewJournalSink returns a sink writing through the local journald socket.
// It returns nil when journald is not reachable.
func NewJournalSink(buf *Buffer, identifier string, logger *slog.Logger) *JournalSink {
	if !journal.Enabled() {
		return nil
	}
	return newJournalSink(buf, systemJournal{}, identifier, logger)
}

func newJournalSink(buf *Buffer, sender JournalSender, identifier string, logger *slog.Logger) *JournalSink {
	return &JournalSink{buf: buf, sender: sender, identifier: identifier, logger: logger}
}

// PriorityFor maps a console severity onto a syslog priority.
func PriorityFor(s core.Severity) journal.Priority {
	switch s {
	case core.SeverityWarning:
		return journal.PriWarning
	case core.SeverityError:
		return journal.PriErr
	case core.SeverityException:
		return journal.PriCrit
	case core.SeverityAssert:
		return journal.PriAlert
	default:
		return journal.PriInfo
	}
}

// Run forwards entries until ctx is cancelled.
func (s *JournalSink) Run(ctx context.Context) {
	ch := s.buf.Subscribe()
	defer s.buf.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.send(e)
		}
	}
}

func (s *JournalSink) send(e core.LogEntry) {
	vars := map[string]string{
		"SYSLOG_IDENTIFIER": s.identifier,
		"CONSOLE_ENTRY_ID":  strconv.Itoa(e.ID),
		"CONSOLE_SEVERITY":  string(e.Severity),
	}
	if e.StackTrace != "" {
		vars["CONSOLE_STACK_TRACE"] = e.StackTrace
	}
	if err := s.sender.Send(e.Message, PriorityFor(e.Severity), vars); err != nil && s.logger != nil {
		s.logger.Debug("journal send failed", "err", err)
	}
}
