package console

import (
	"errors"

	"github.com/atotto/clipboard"
)

var errClipboardUnsupported = errors.New("no clipboard available")

// SystemClipboard reads and writes the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", errClipboardUnsupported
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

// MemoryClipboard keeps the copy buffer in process, for headless hosts.
type MemoryClipboard struct {
	Text string
}

func (m *MemoryClipboard) ReadAll() (string, error) { return m.Text, nil }

func (m *MemoryClipboard) WriteAll(text string) error {
	m.Text = text
	return nil
}
