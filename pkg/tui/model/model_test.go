package model

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/devconsole/pkg/command"
	"github.com/modoterra/devconsole/pkg/console"
	"github.com/modoterra/devconsole/pkg/core"
	"github.com/modoterra/devconsole/pkg/logbuf"
)

type harness struct {
	app    App
	logger *slog.Logger
	clip   *console.MemoryClipboard
	speeds []float64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clip: &console.MemoryClipboard{}}
	buf := logbuf.New()
	h.logger = slog.New(logbuf.NewHandler(buf, nil))

	reg := command.NewRegistry()
	reg.MustRegisterFunc("setSpeed", "", func(v float64) { h.speeds = append(h.speeds, v) })
	reg.Seal()

	c := console.New(buf, command.NewDispatcher(reg, h.logger), console.Options{
		Clipboard: h.clip,
		Logger:    h.logger,
	})
	h.app = New(c, Options{Title: "test", FrameInterval: time.Millisecond})
	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	return h
}

func (h *harness) send(msg tea.Msg) {
	m, _ := h.app.Update(msg)
	h.app = m.(App)
}

func (h *harness) frame() { h.send(frameMsg(time.Now())) }

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) press(t tea.KeyType) { h.send(tea.KeyMsg{Type: t}) }

func (h *harness) clickLine(y int) {
	h.send(tea.MouseMsg{X: 2, Y: headerHeight + y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func TestFrameRendersNewEntries(t *testing.T) {
	h := newHarness(t)
	h.logger.Info("hello from the game")
	h.logger.Warn("low fuel")
	h.frame()

	view := h.app.View()
	for _, want := range []string{"test", "hello from the game", "low fuel", "2 entries"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSubmitRunsCommand(t *testing.T) {
	h := newHarness(t)
	h.typeText("setSpeed 5")
	h.press(tea.KeyEnter)

	if len(h.speeds) != 1 || h.speeds[0] != 5 {
		t.Fatalf("speeds: %v", h.speeds)
	}
	if h.app.input.Value() != "" {
		t.Errorf("input not cleared: %q", h.app.input.Value())
	}
	if !strings.Contains(h.app.View(), "> setSpeed 5") {
		t.Error("echo row not shown")
	}
}

func TestClickEchoFillsInput(t *testing.T) {
	h := newHarness(t)
	h.typeText("setSpeed 5")
	h.press(tea.KeyEnter)

	h.clickLine(0)
	if got := h.app.input.Value(); got != "setSpeed 5" {
		t.Errorf("input: got %q", got)
	}
	if _, ok := h.app.console.Selected(); ok {
		t.Error("echo click must not select")
	}
}

func TestLogFocusSelectAndCopy(t *testing.T) {
	h := newHarness(t)
	h.logger.Error("boom", logbuf.StackKey, "main.go:12")
	h.frame()

	h.press(tea.KeyTab)
	if h.app.activePane != PaneLog {
		t.Fatal("tab should focus the log")
	}
	h.press(tea.KeyEnter)

	rows := h.app.console.Rows()
	if len(rows) != 2 || rows[1].Kind != console.RowDetail {
		t.Fatalf("expected entry plus detail row, got %d rows", len(rows))
	}
	if !strings.Contains(h.app.View(), "[copy]") {
		t.Error("detail row not rendered")
	}

	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if h.clip.Text != "boom"+core.CopySeparator+"main.go:12" {
		t.Errorf("clipboard: got %q", h.clip.Text)
	}
	if _, ok := h.app.console.Selected(); ok {
		t.Error("copy should clear the selection")
	}
}

func TestClickDetailRowCopies(t *testing.T) {
	h := newHarness(t)
	h.logger.Error("boom", logbuf.StackKey, "trace")
	h.frame()

	h.clickLine(0)
	h.clickLine(1)
	if h.clip.Text != "boom"+core.CopySeparator+"trace" {
		t.Errorf("clipboard: got %q", h.clip.Text)
	}
}

func TestToggleKeyHidesLog(t *testing.T) {
	h := newHarness(t)
	h.typeText("`")

	if h.app.console.Active() {
		t.Error("toggle key should hide the log")
	}
	if strings.Contains(h.app.input.Value(), "`") {
		t.Error("toggle key reached the input field")
	}
	if !strings.Contains(h.app.View(), "log hidden") {
		t.Error("hidden log not indicated")
	}

	h.typeText("`")
	if !h.app.console.Active() {
		t.Error("second toggle should show the log")
	}
}

func TestPasteFillsInput(t *testing.T) {
	h := newHarness(t)
	h.clip.Text = "setSpeed 2"
	h.press(tea.KeyCtrlV)

	if h.app.input.Value() != "setSpeed 2" {
		t.Errorf("input: got %q", h.app.input.Value())
	}
}

func TestKeyboardShrinksViewport(t *testing.T) {
	h := newHarness(t)
	before := h.app.log.Height
	if before != 30-headerHeight-footerHeight {
		t.Fatalf("viewport height: got %d", before)
	}

	h.send(KeyboardMsg{Height: 10})
	if h.app.log.Height != before-10 {
		t.Errorf("viewport height: got %d, want %d", h.app.log.Height, before-10)
	}
}

func TestRowBackground(t *testing.T) {
	if _, ok := rowBackground(core.SeverityLog.Color()); ok {
		t.Error("log rows should have no background")
	}
	bg, ok := rowBackground(core.SeverityWarning.Color())
	if !ok || bg != "#202000" {
		t.Errorf("warning background: got %q", bg)
	}
	bg, _ = rowBackground(core.SeverityError.Color())
	if bg != "#200000" {
		t.Errorf("error background: got %q", bg)
	}
}

func TestFrameRunsCallback(t *testing.T) {
	h := newHarness(t)
	frames := 0
	h.app.onFrame = func() { frames++ }
	h.frame()
	h.frame()
	if frames != 2 {
		t.Errorf("frames: got %d", frames)
	}
}

func TestHiddenLogIgnoresClicks(t *testing.T) {
	h := newHarness(t)
	h.logger.Info("secret")
	h.frame()

	h.typeText("`")
	h.clickLine(0)
	if _, ok := h.app.console.Selected(); ok {
		t.Fatal("click on a hidden log selected an entry")
	}

	h.typeText("`")
	if rows := h.app.console.Rows(); len(rows) != 1 {
		t.Errorf("log reopened with %d rows, want 1", len(rows))
	}
}

func TestHiddenLogIgnoresLogKeys(t *testing.T) {
	h := newHarness(t)
	h.logger.Info("secret")
	h.frame()

	h.press(tea.KeyTab)
	h.typeText("`")
	if h.app.activePane != PaneInput {
		t.Error("hiding the log should return focus to the input")
	}

	h.app.activePane = PaneLog
	h.press(tea.KeyEnter)
	if _, ok := h.app.console.Selected(); ok {
		t.Error("enter on a hidden log selected an entry")
	}
}

func TestHeaderCountsEntriesNotRows(t *testing.T) {
	h := newHarness(t)
	h.logger.Error("boom", logbuf.StackKey, "trace")
	h.frame()
	h.clickLine(0)

	if len(h.app.console.Rows()) != 2 {
		t.Fatal("expected the detail row to be open")
	}
	if !strings.Contains(h.app.View(), "1 entries") {
		t.Errorf("header should count entries:\n%s", h.app.View())
	}
}
