// Package tui provides a Bubble Tea terminal user interface for radirec.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/minolabo/radirec/internal/config"
	"github.com/minolabo/radirec/internal/model"
	"github.com/minolabo/radirec/internal/record"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	programStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateRecording
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   record.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	window    model.RecordingWindow
	outPath   string
	err       error

	// Recording context
	ctx    context.Context
	cancel context.CancelFunc

	// Running job reference
	job    *record.Job
	events chan record.ProgressEvent

	// Recording progress, in window seconds
	fetchedSeconds int
	totalSeconds   int

	// Options
	saveImage bool
	verbose   bool

	width  int
	height int
}

// NewModel creates a new TUI model.
func NewModel() Model {
	ti := textinput.New()
	ti.Placeholder = "http://radiko.jp/#!/ts/TBS/20250401060000"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	settings, err := config.Load(config.DefaultFile)
	if err != nil {
		settings = config.DefaultSettings()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		saveImage: settings.SaveProgramImage,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries a progress event from the running job.
	ProgressMsg struct {
		Event record.ProgressEvent
	}

	// RecordDoneMsg is sent when the recording finishes.
	RecordDoneMsg struct {
		OutPath string
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateRecording {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				return m.startRecording()
			}

		case "ctrl+v":
			if m.state == StateInput {
				if text, err := clipboard.ReadAll(); err == nil {
					m.textInput.SetValue(strings.TrimSpace(text))
				}
				return m, nil
			}

		case "i":
			if m.state == StateInput {
				m.saveImage = !m.saveImage
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for a new recording
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.outPath = ""
				m.fetchedSeconds = 0
				m.totalSeconds = 0
				m.job = nil
				m.events = nil
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == record.LevelVerbose && !m.verbose {
			cmds = append(cmds, m.listenEvents())
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 10 logs
		if len(m.logs) > 10 {
			m.logs = m.logs[len(m.logs)-10:]
		}
		cmds = append(cmds, m.listenEvents())

	case RecordDoneMsg:
		m.outPath = msg.OutPath
		if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.job != nil && m.state == StateRecording {
			fetched, total := m.job.Progress()
			m.fetchedSeconds = fetched
			m.totalSeconds = total

			var percent float64
			if total > 0 {
				percent = float64(fetched) / float64(total)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// startRecording builds the job from the current input and launches it.
func (m Model) startRecording() (tea.Model, tea.Cmd) {
	settings := *m.settings
	settings.SaveProgramImage = m.saveImage

	events := make(chan record.ProgressEvent, 64)
	job := record.NewJob(&settings, zerolog.Nop(), func(event record.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	})

	input := record.Input{ProgramURL: m.textInput.Value()}
	w, err := job.ResolveWindow(input)
	if err != nil {
		m.state = StateError
		m.err = err
		return m, nil
	}

	m.window = w
	m.job = job
	m.events = events
	m.state = StateRecording

	run := func() tea.Msg {
		outPath, err := job.Run(m.ctx, input)
		return RecordDoneMsg{OutPath: outPath, Err: err}
	}
	return m, tea.Batch(run, m.listenEvents(), m.tickProgress(), m.spinner.Tick)
}

// listenEvents returns a command that waits for the next progress event.
func (m Model) listenEvents() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("radirec"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Record time-free radiko programs"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateRecording:
		b.WriteString(m.viewRecording())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter program URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	// Options
	imageCheck := "[ ]"
	if m.saveImage {
		imageCheck = "[x]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Save program image (i)\n", imageCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (v)\n", verboseCheck))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output path: %s", m.settings.OutputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewRecording() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(programStyle.Render(fmt.Sprintf(
		"%s  %s - %s",
		m.window.StationID,
		m.window.FromTimestamp(),
		m.window.ToTimestamp(),
	)))
	b.WriteString("\n\n")

	// Progress bar
	var percent float64
	if m.totalSeconds > 0 {
		percent = float64(m.fetchedSeconds) / float64(m.totalSeconds)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Fetched: %d/%d seconds",
		m.fetchedSeconds,
		m.totalSeconds,
	)))
	b.WriteString("\n\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	box := boxStyle.Render(fmt.Sprintf(
		"Recording complete!\n\n"+
			"Station: %s\n"+
			"Length: %d seconds\n"+
			"File: %s",
		m.window.StationID,
		m.totalSeconds,
		m.outPath,
	))
	b.WriteString(box)

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "*"
		switch log.Level {
		case record.LevelError:
			style = errorStyle
			prefix = "x"
		case record.LevelWarning:
			style = warningStyle
			prefix = "!"
		case record.LevelSuccess:
			style = successStyle
			prefix = "+"
		case record.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start | ctrl+v: paste | i: image | v: verbose | esc: quit"
	case StateRecording:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new recording | q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run() error {
	p := tea.NewProgram(NewModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
