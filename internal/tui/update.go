package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vculaunch/internal/dispatch"
	"vculaunch/internal/launcher"
	"vculaunch/internal/model"
	"vculaunch/internal/msys"
	"vculaunch/internal/report"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgLogLine carries one log line from a worker.
type MsgLogLine report.Line

// MsgUpdateDone is sent when a path update worker finishes.
type MsgUpdateDone struct {
	Update launcher.PathUpdate
	Err    error
}

// MsgCompileDone is sent when a compile worker finishes.
type MsgCompileDone struct {
	Result dispatch.Result
	Err    error
}

type msgAutoUpdate struct{}

// Init starts the spinner and schedules the first path update.
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.Spinner.Tick}
	if m.AutoUpdate {
		cmds = append(cmds, tea.Tick(AutoUpdateDelay, func(time.Time) tea.Msg { return msgAutoUpdate{} }))
	}
	return tea.Batch(cmds...)
}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.Log.Width = msg.Width - 4
		m.Log.Height = msg.Height - 14 // header, input, banner, status, footer
		if m.Log.Height < 3 {
			m.Log.Height = 3
		}
		m.Input.Width = msg.Width - 12
		m.refreshLog()
		if m.Browsing {
			m.Picker, cmd = m.Picker.Update(msg)
		}
		return m, cmd

	case msgAutoUpdate:
		if m.Running != JobNone {
			return m, nil
		}
		return m.startUpdate()

	case MsgLogLine:
		m.Lines = append(m.Lines, report.Line(msg))
		m.refreshLog()
		return m, waitForEvent(m.events)

	case MsgUpdateDone:
		m.Running = JobNone
		if msg.Err != nil {
			m.Status = "Path update failed"
			m.setBanner(fmt.Sprintf("Path update failed: %v", msg.Err), false)
			return m, nil
		}
		m.Paths = msg.Update.BuildPaths
		m.Status = "Paths updated"
		if !model.AllSucceeded(msg.Update.Makefiles) {
			m.setBanner("Some makefiles could not be updated, see the log", true)
		}
		return m, nil

	case MsgCompileDone:
		m.Running = JobNone
		switch {
		case msg.Err == nil:
			m.Status = "Compile started"
		case errors.Is(msg.Err, msys.ErrShellNotFound):
			m.Status = "Compile finished"
			m.setBanner(fmt.Sprintf("MSYS startup script not found: %s", m.ops.Layout().ShellScript()), true)
		default:
			m.Status = "Compile failed"
			m.setBanner(msg.Err.Error(), false)
		}
		return m, nil

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.Browsing {
			return m.updateBrowser(msg)
		}

		switch msg.String() {
		case "ctrl+u":
			return m.startUpdate()
		case "enter":
			return m.startCompile()
		case "ctrl+o":
			m.Browsing = true
			m.Banner = ""
			return m, m.Picker.Init()
		case "ctrl+l":
			m.Lines = nil
			m.refreshLog()
			return m, nil
		case "esc":
			m.Banner = ""
			m.Input.Blur()
			return m, nil
		case "tab":
			if m.Input.Focused() {
				m.Input.Blur()
				return m, nil
			}
			return m, m.Input.Focus()
		case "pgup", "pgdown", "up", "down":
			m.Log, cmd = m.Log.Update(msg)
			return m, cmd
		}

		if !m.Input.Focused() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "i":
				return m, m.Input.Focus()
			}
			return m, nil
		}

		m.Input, cmd = m.Input.Update(msg)
		return m, cmd
	}

	// Directory listings and other picker internals.
	if m.Browsing {
		m.Picker, cmd = m.Picker.Update(msg)
		return m, cmd
	}
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m AppModel) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" || msg.String() == "q" {
		m.Browsing = false
		return m, nil
	}

	var cmd tea.Cmd
	m.Picker, cmd = m.Picker.Update(msg)
	if ok, path := m.Picker.DidSelectFile(msg); ok {
		m.Input.SetValue(path)
		m.Browsing = false
		m.Status = "Selected " + model.BaseNameNoExt(path)
	}
	return m, cmd
}

func (m AppModel) startUpdate() (tea.Model, tea.Cmd) {
	if m.Running != JobNone {
		m.Status = "Busy, wait for the current operation"
		return m, nil
	}
	ops := m.ops
	m.Running = JobUpdatePaths
	m.Status = "Updating paths..."
	m.Banner = ""
	m.events = make(chan tea.Msg, 64)
	return m, tea.Batch(m.Spinner.Tick, runWorker(m.events, m.debug, JobUpdatePaths, func(log *report.Logger) tea.Msg {
		up, err := ops.UpdatePaths(log)
		return MsgUpdateDone{Update: up, Err: err}
	}))
}

func (m AppModel) startCompile() (tea.Model, tea.Cmd) {
	if m.Running != JobNone {
		m.Status = "Busy, wait for the current operation"
		return m, nil
	}

	path := model.CleanInput(m.Input.Value())
	if path == "" {
		m.setBanner("Please enter or browse to a source path", false)
		return m, nil
	}
	if !model.Exists(path) {
		m.setBanner("Source path does not exist: "+path, false)
		return m, nil
	}

	ops := m.ops
	m.Running = JobCompile
	m.Status = "Compiling..."
	m.Banner = ""
	m.events = make(chan tea.Msg, 64)
	return m, tea.Batch(m.Spinner.Tick, runWorker(m.events, m.debug, JobCompile, func(log *report.Logger) tea.Msg {
		res, err := ops.Dispatch(context.Background(), path, log)
		return MsgCompileDone{Result: res, Err: err}
	}))
}

func (m *AppModel) setBanner(text string, warn bool) {
	m.Banner = text
	m.Warn = warn
}

// runWorker runs job on its own goroutine. Its log lines and then its
// result are delivered in order through ch, which is closed afterwards.
// A panic becomes kind's done message carrying the error.
func runWorker(ch chan tea.Msg, debug bool, kind Job, job func(*report.Logger) tea.Msg) tea.Cmd {
	go func() {
		defer close(ch)
		log := report.New(debug, report.SinkFunc(func(l report.Line) {
			ch <- MsgLogLine(l)
		}))
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Unexpected error: %v", r)
				ch <- failedJob(kind, fmt.Errorf("unexpected error: %v", r))
			}
		}()
		ch <- job(log)
	}()
	return waitForEvent(ch)
}

func failedJob(kind Job, err error) tea.Msg {
	if kind == JobUpdatePaths {
		return MsgUpdateDone{Err: err}
	}
	return MsgCompileDone{Err: err}
}

// waitForEvent reads the next worker message.
func waitForEvent(ch chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
