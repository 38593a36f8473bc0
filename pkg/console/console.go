// Package console is the view model of the in-game developer console: it
// watches a log buffer, builds the visible rows, tracks the expanded entry and
// owns the input field.
package console

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/modoterra/devconsole/pkg/core"
	"github.com/modoterra/devconsole/pkg/logbuf"
)

// DefaultKeyboardEpsilon is the smallest keyboard height change that moves the view area.
const DefaultKeyboardEpsilon = 0.0001

// ToggleKey is the key that shows and hides the console; it never reaches the input field.
const ToggleKey = '`'

// RowKind distinguishes log lines from the expanded detail row.
type RowKind int

const (
	RowLog RowKind = iota
	RowDetail
)

// Row is one line of the rendered log list.
type Row struct {
	Kind     RowKind
	Entry    core.LogEntry
	Color    color.RGBA
	Selected bool
}

// Executor runs submitted input. *command.Dispatcher implements it.
type Executor interface {
	Execute(text string) error
}

// Clipboard is the system copy buffer.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Options configures a Console.
type Options struct {
	Clipboard       Clipboard
	Logger          *slog.Logger
	KeyboardEpsilon float64
}

type job struct {
	fn   func(*Console)
	done chan struct{}
}

// Console is driven by a single goroutine calling Tick once per frame. Other
// goroutines reach it through Do.
type Console struct {
	buf    *logbuf.Buffer
	exec   Executor
	clip   Clipboard
	logger *slog.Logger

	input       string
	selectedID  int // 0 means nothing is expanded
	forceUpdate bool
	lastCount   int
	rows        []Row
	active      bool

	keyboardHeight float64
	viewMargin     float64
	epsilon        float64

	jobs chan job
}

// New creates a console over buf that submits input to exec.
func New(buf *logbuf.Buffer, exec Executor, opts Options) *Console {
	c := &Console{
		buf:     buf,
		exec:    exec,
		clip:    opts.Clipboard,
		logger:  opts.Logger,
		epsilon: opts.KeyboardEpsilon,
		active:  true,
		jobs:    make(chan job, 64),
	}
	if c.clip == nil {
		c.clip = SystemClipboard{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.epsilon <= 0 {
		c.epsilon = DefaultKeyboardEpsilon
	}
	return c
}

// Tick runs queued work and refreshes the rows when the buffer grew or a
// refresh was requested. It reports whether the rows were rebuilt.
func (c *Console) Tick() bool {
	c.drainJobs()
	return c.refresh()
}

func (c *Console) refresh() bool {
	if !c.active {
		return false
	}
	count := c.buf.Count()
	if !c.forceUpdate && c.lastCount == count {
		return false
	}
	c.lastCount = count
	c.forceUpdate = false

	entries := c.buf.Entries()
	rows := make([]Row, 0, len(entries)+1)
	for _, e := range entries {
		selected := c.selectedID != 0 && e.ID == c.selectedID
		rows = append(rows, Row{Kind: RowLog, Entry: e, Color: e.Severity.Color(), Selected: selected})
		if selected {
			rows = append(rows, Row{Kind: RowDetail, Entry: e})
		}
	}
	c.rows = rows
	return true
}

// Rows returns the rows built by the last refresh.
func (c *Console) Rows() []Row {
	return c.rows
}

// Selected returns the expanded entry id, if any.
func (c *Console) Selected() (int, bool) {
	return c.selectedID, c.selectedID != 0
}

// Click handles a click on row i. Echoed commands are recalled into the
// input field; other log rows toggle their expansion; the detail row copies.
func (c *Console) Click(i int) {
	if i < 0 || i >= len(c.rows) {
		return
	}
	row := c.rows[i]

	switch {
	case row.Kind == RowDetail:
		c.CopySelected()
	case row.Entry.IsEcho():
		c.input = row.Entry.EchoedCommand()
	case c.selectedID == row.Entry.ID:
		c.selectedID = 0
		c.forceUpdate = true
	default:
		c.selectedID = row.Entry.ID
		c.forceUpdate = true
	}
}

// CopySelected writes the expanded entry to the clipboard and collapses it.
func (c *Console) CopySelected() {
	if c.selectedID == 0 {
		return
	}
	var entry core.LogEntry
	found := false
	for _, r := range c.rows {
		if r.Kind == RowLog && r.Entry.ID == c.selectedID {
			entry, found = r.Entry, true
			break
		}
	}
	c.selectedID = 0
	c.forceUpdate = true
	if !found {
		return
	}

	if err := c.clip.WriteAll(entry.CopyText()); err != nil {
		c.logger.Debug("clipboard write failed", "err", err)
		return
	}
	c.logger.Info("DebugLog Copied!")
}

// Input returns the input field text.
func (c *Console) Input() string { return c.input }

// SetInput replaces the input field text, dropping the toggle key.
func (c *Console) SetInput(text string) {
	c.input = strings.ReplaceAll(text, string(ToggleKey), "")
}

// Submit clears the input field and executes its trimmed contents.
func (c *Console) Submit() error {
	text := strings.TrimSpace(c.input)
	c.input = ""
	if text == "" {
		return nil
	}
	return c.exec.Execute(text)
}

// Paste replaces the input field with the clipboard contents.
func (c *Console) Paste() {
	text, err := c.clip.ReadAll()
	if err != nil {
		c.logger.Debug("clipboard read failed", "err", err)
		return
	}
	c.SetInput(text)
}

// Active reports whether the log list is shown and refreshed.
func (c *Console) Active() bool { return c.active }

// SetActive shows or hides the log list. Showing it forces a refresh.
func (c *Console) SetActive(active bool) {
	if active && !c.active {
		c.forceUpdate = true
	}
	c.active = active
}

// UpdateViewArea recomputes the bottom margin that keeps the input field
// above an on-screen keyboard. keyboardHeight is in screen pixels; the margin
// is in canvas units. It reports whether the margin changed.
func (c *Console) UpdateViewArea(keyboardHeight, canvasHeight, screenHeight float64) bool {
	if math.Abs(keyboardHeight-c.keyboardHeight) < c.epsilon {
		return false
	}
	c.keyboardHeight = keyboardHeight
	c.logger.Info(fmt.Sprintf("Update Height %g", keyboardHeight))

	rate := 1.0
	if screenHeight > 0 {
		rate = canvasHeight / screenHeight
	}
	c.viewMargin = keyboardHeight * rate
	return true
}

// ViewMargin returns the bottom margin computed by UpdateViewArea.
func (c *Console) ViewMargin() float64 { return c.viewMargin }

// Do runs fn on the goroutine that calls Tick and waits for it to finish.
func (c *Console) Do(ctx context.Context, fn func(*Console)) error {
	j := job{fn: fn, done: make(chan struct{})}
	select {
	case c.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) drainJobs() {
	for {
		select {
		case j := <-c.jobs:
			j.fn(c)
			close(j.done)
		default:
			return
		}
	}
}
