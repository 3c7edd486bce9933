package tui

import (
	"os"
	"time"

	"vculaunch/internal/launcher"
	"vculaunch/internal/model"
	"vculaunch/internal/report"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AutoUpdateDelay is how long after start the path update runs by itself.
const AutoUpdateDelay = 500 * time.Millisecond

// Job identifies the operation a worker is running.
type Job int

const (
	JobNone Job = iota
	JobUpdatePaths
	JobCompile
)

// AppModel holds the TUI state.
type AppModel struct {
	ops   launcher.Operations
	debug bool

	// Data
	Paths  model.BuildPaths
	Lines  []report.Line
	Status string
	Banner string // validation or failure message shown above the log
	Warn   bool   // Banner is a warning rather than an error

	// Worker
	Running Job
	events  chan tea.Msg

	// UI State
	WindowSize tea.WindowSizeMsg
	Browsing   bool
	AutoUpdate bool

	// Components
	Input   textinput.Model
	Picker  filepicker.Model
	Spinner spinner.Model
	Log     viewport.Model
}

// New returns the initial state. initialPath prefills the source field.
func New(ops launcher.Operations, debug bool, initialPath string) AppModel {
	ti := textinput.New()
	ti.Placeholder = "Source folder or file (name must contain mvcu or svcu)"
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Prompt = "Source: "
	ti.SetValue(initialPath)
	ti.Focus()

	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = true
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	return AppModel{
		ops:        ops,
		debug:      debug,
		Status:     "Ready",
		AutoUpdate: true,
		Input:      ti,
		Picker:     fp,
		Spinner:    s,
		Log:        viewport.New(80, 12),
	}
}
