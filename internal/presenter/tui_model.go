package presenter

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/giobyte8/imagescaler/internal/models"
)

const maxShownErrors = 5

type statusMsg string

type resultMsg models.ImageDescriptor

type errorMsg struct {
	header  string
	message string
}

type confirmMsg struct {
	header  string
	message string
	reply   chan<- bool
}

type controlsMsg bool

type clearMsg struct{}

// Model is the bubbletea model behind TUIPresenter.
type Model struct {
	title           string
	status          string
	results         []models.ImageDescriptor
	errors          []errorMsg
	controlsEnabled bool
	pending         *confirmMsg
	quitting        bool
}

func NewModel(title string) Model {
	return Model{title: title, controlsEnabled: true}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case resultMsg:
		m.results = append(m.results, models.ImageDescriptor(msg))
		return m, nil
	case errorMsg:
		m.errors = append(m.errors, msg)
		return m, nil
	case confirmMsg:
		m.pending = &msg
		return m, nil
	case controlsMsg:
		m.controlsEnabled = bool(msg)
		return m, nil
	case clearMsg:
		m.results = nil
		m.errors = nil
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pending != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			m.pending.reply <- true
			m.pending = nil
		case "n", "N", "esc":
			m.pending.reply <- false
			m.pending = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "q":
		// Batches can not be interrupted, quitting waits for idle controls
		if m.controlsEnabled {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{titleStyle.Render(m.title)}
	if m.status != "" {
		lines = append(lines, statusStyle.Render(m.status))
	}

	for _, image := range m.results {
		lines = append(lines, fmt.Sprintf(
			"  %s %s",
			bulletStyle.Render("-"),
			resultStyle.Render(image.Name),
		))
	}

	shown := m.errors
	if len(shown) > maxShownErrors {
		shown = shown[len(shown)-maxShownErrors:]
	}
	for _, e := range shown {
		lines = append(lines, errorStyle.Render(e.header+": "+e.message))
	}

	if m.pending != nil {
		lines = append(lines, promptStyle.Render(
			fmt.Sprintf("%s: %s [y/n]", m.pending.header, m.pending.message),
		))
	} else if m.controlsEnabled {
		lines = append(lines, dimStyle.Render("press q to quit"))
	} else {
		lines = append(lines, dimStyle.Render("scaling..."))
	}

	return strings.Join(lines, "\n")
}

var (
	colorAccent = lipgloss.Color("#7DD3FC")
	colorInk    = lipgloss.Color("15")
	colorDim    = lipgloss.Color("8")
	colorError  = lipgloss.Color("#F87171")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	statusStyle = lipgloss.NewStyle().Foreground(colorInk)
	resultStyle = lipgloss.NewStyle().Foreground(colorInk)
	bulletStyle = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)
