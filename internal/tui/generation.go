package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seojin/sceneweaver/internal/token"
	"github.com/seojin/sceneweaver/internal/tui/styles"
)

// GenerationModel is the Bubble Tea model for a streaming script generation.
// It renders the script text as the provider produces it and quits once the
// stream completes, leaving the full text available via Result.
type GenerationModel struct {
	projectName string
	concept     string

	handler *StreamHandler

	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	streaming bool
	cancelled bool
	err       error
	script    strings.Builder
}

// NewGenerationModel creates the streaming view for one generation run.
func NewGenerationModel(projectName, concept string, handler *StreamHandler) *GenerationModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &GenerationModel{
		projectName: projectName,
		concept:     concept,
		handler:     handler,
		spinner:     sp,
		streaming:   true,
	}
}

// Init initializes the model.
func (m *GenerationModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.handler.StreamToTea(),
	)
}

// Update handles messages.
func (m *GenerationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.streaming {
				m.cancelled = true
				m.streaming = false
				m.handler.Cancel()
			}
			return m, tea.Quit
		}
		if !m.streaming {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.viewport.YPosition = 2
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.updateViewport()

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case StreamChunkMsg:
		m.script.WriteString(msg.Content)
		m.updateViewport()
		cmds = append(cmds, m.handler.StreamToTea())

	case StreamDoneMsg:
		m.streaming = false
		return m, tea.Quit

	case StreamErrorMsg:
		m.streaming = false
		m.err = msg.Err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the streaming view.
func (m *GenerationModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	header := styles.Header.Render(fmt.Sprintf("SCENEWEAVER - %s", m.projectName))
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render(m.concept))
	sb.WriteString("\n\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(styles.ErrorText.Render("Error: "+m.err.Error()) + "\n")
	}

	counter := styles.TokenCounter.Render(fmt.Sprintf("~%d tokens", token.EstimateTokens(m.script.String())))

	var hint string
	if m.streaming {
		sb.WriteString(m.spinner.View() + " Writing scenes...  " + counter + "\n")
		hint = styles.HelpKey.Render("esc") + styles.HelpDesc.Render(" to cancel")
	} else {
		sb.WriteString(counter + "\n")
		hint = styles.HelpKey.Render("any key") + styles.HelpDesc.Render(" to close")
	}
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Right, hint))

	return sb.String()
}

// updateViewport updates the viewport content with the streamed script text.
func (m *GenerationModel) updateViewport() {
	m.viewport.SetContent(styles.ScriptText.Render(m.script.String()))
	m.viewport.GotoBottom()
}

// Result returns the full streamed script text.
func (m *GenerationModel) Result() string {
	return m.script.String()
}

// Err returns the stream error, if any.
func (m *GenerationModel) Err() error {
	return m.err
}

// Cancelled reports whether the user aborted the stream.
func (m *GenerationModel) Cancelled() bool {
	return m.cancelled
}

// RunGeneration drives a generation model to completion and returns the
// streamed script text. The caller starts the provider stream and the pump
// goroutine before calling.
func RunGeneration(model *GenerationModel) (string, error) {
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return "", err
	}

	m, ok := final.(*GenerationModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type %T", final)
	}
	if m.Err() != nil {
		return "", m.Err()
	}
	if m.Cancelled() {
		return "", fmt.Errorf("generation cancelled: %w", context.Canceled)
	}
	return m.Result(), nil
}

// Message types for streaming
type StreamChunkMsg struct {
	Content string
}

type StreamDoneMsg struct{}

type StreamErrorMsg struct {
	Err error
}
