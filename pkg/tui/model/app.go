package model

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/devconsole/pkg/console"
)

// Pane identifies which part of the console has keyboard focus.
type Pane int

const (
	PaneInput Pane = iota
	PaneLog
)

// Options configures the terminal front end.
type Options struct {
	Title         string
	FrameInterval time.Duration
	// OnFrame runs after each console tick.
	OnFrame func()
}

// KeyboardMsg reports the height of an on-screen keyboard, in terminal rows.
type KeyboardMsg struct{ Height float64 }

// frameMsg drives Console.Tick.
type frameMsg time.Time

// headerHeight and footerHeight are the rows around the log viewport.
const (
	headerHeight = 1
	footerHeight = 2
)

// App is the root Bubble Tea model.
type App struct {
	console  *console.Console
	title    string
	interval time.Duration
	onFrame  func()

	input    textinput.Model
	log      viewport.Model
	lineRows []int // viewport line -> row index

	activePane Pane
	cursor     int
	width      int
	height     int
}

// New creates a front end over c.
func New(c *console.Console, opts Options) App {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "command"
	ti.Focus()

	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	if opts.Title == "" {
		opts.Title = "Developer Console"
	}

	return App{
		console:  c,
		title:    opts.Title,
		interval: opts.FrameInterval,
		onFrame:  opts.OnFrame,
		input:    ti,
		log:      viewport.New(0, 0),
	}
}

// Init starts the frame clock.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.frameCmd(),
		textinput.Blink,
		tea.SetWindowTitle(a.title),
	)
}

func (a App) frameCmd() tea.Cmd {
	return tea.Tick(a.interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(msg.Width-len(a.input.Prompt)-1, 1)
		a.resize()
		a.render()
		return a, nil

	case KeyboardMsg:
		if a.console.UpdateViewArea(msg.Height, float64(a.height), float64(a.height)) {
			a.resize()
		}
		return a, nil

	case frameMsg:
		if a.console.Tick() {
			a.render()
		}
		if a.onFrame != nil {
			a.onFrame()
		}
		return a, a.frameCmd()

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Toggle):
		a.console.SetActive(!a.console.Active())
		a.sync()
		if !a.console.Active() && a.activePane == PaneLog {
			a.activePane = PaneInput
			return a, a.input.Focus()
		}
		return a, nil

	case key.Matches(msg, keys.Focus):
		if a.activePane == PaneInput && a.console.Active() {
			a.activePane = PaneLog
			a.input.Blur()
		} else {
			a.activePane = PaneInput
			return a, a.input.Focus()
		}
		a.render()
		return a, nil

	case key.Matches(msg, keys.Paste):
		a.console.Paste()
		a.input.SetValue(a.console.Input())
		a.input.CursorEnd()
		return a, nil
	}

	if a.activePane == PaneLog {
		return a.handleLogKey(msg)
	}

	if key.Matches(msg, keys.Submit) {
		a.console.SetInput(a.input.Value())
		_ = a.console.Submit() // failures are already in the log
		a.input.SetValue("")
		a.sync()
		a.log.GotoBottom()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.console.SetInput(a.input.Value())
	return a, cmd
}

func (a App) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !a.console.Active() {
		return a, nil
	}
	rows := a.console.Rows()
	switch {
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Down):
		if a.cursor < len(rows)-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Submit):
		if a.cursor < len(rows) {
			a.click(a.cursor)
		}
	case key.Matches(msg, keys.Copy):
		if _, ok := a.console.Selected(); ok {
			a.console.CopySelected()
			a.sync()
		}
	default:
		return a, nil
	}
	a.render()
	a.scrollToCursor()
	return a, nil
}

func (a App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// A hidden log has nothing to click or scroll.
	if !a.console.Active() {
		return a, nil
	}
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		a.log, cmd = a.log.Update(msg)
		return a, cmd
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return a, nil
	}

	y := msg.Y - headerHeight
	if y < 0 || y >= a.log.Height {
		return a, nil
	}
	line := y + a.log.YOffset
	if line >= len(a.lineRows) {
		return a, nil
	}
	a.cursor = a.lineRows[line]
	a.click(a.cursor)
	return a, nil
}

// click forwards a row click and applies its effects right away instead of
// waiting for the next frame.
func (a *App) click(row int) {
	a.console.Click(row)
	a.input.SetValue(a.console.Input())
	a.input.CursorEnd()
	a.sync()
}

// sync ticks the console and redraws the log when its rows changed.
func (a *App) sync() {
	if a.console.Tick() {
		a.render()
	}
}

func (a *App) resize() {
	margin := int(a.console.ViewMargin() + 0.5)
	a.log.Width = a.width
	a.log.Height = max(a.height-headerHeight-footerHeight-margin, 1)
}

func (a *App) scrollToCursor() {
	first := -1
	last := -1
	for line, row := range a.lineRows {
		if row == a.cursor {
			if first < 0 {
				first = line
			}
			last = line
		}
	}
	if first < 0 {
		return
	}
	switch {
	case first < a.log.YOffset:
		a.log.SetYOffset(first)
	case last >= a.log.YOffset+a.log.Height:
		a.log.SetYOffset(last - a.log.Height + 1)
	}
}
