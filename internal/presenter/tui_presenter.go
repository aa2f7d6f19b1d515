package presenter

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/giobyte8/imagescaler/internal/models"
)

// TUIPresenter forwards every call as a message to a bubbletea program,
// which serializes them onto its own event loop.
type TUIPresenter struct {
	program *tea.Program
	done    chan struct{}
}

func NewTUIPresenter(title string, opts ...tea.ProgramOption) *TUIPresenter {
	return &TUIPresenter{
		program: tea.NewProgram(NewModel(title), opts...),
		done:    make(chan struct{}),
	}
}

// Run blocks until the program exits.
func (p *TUIPresenter) Run() error {
	defer close(p.done)

	_, err := p.program.Run()
	return err
}

// Quit stops the program and waits for it to exit.
func (p *TUIPresenter) Quit() {
	p.program.Quit()
	<-p.done
}

func (p *TUIPresenter) Notify(status string) {
	p.program.Send(statusMsg(status))
}

func (p *TUIPresenter) AppendResult(image models.ImageDescriptor) {
	p.program.Send(resultMsg(image))
}

func (p *TUIPresenter) ReportError(header, message string) {
	p.program.Send(errorMsg{header: header, message: message})
}

// Confirm blocks until the user answers. A program that exits before
// answering counts as a refusal.
func (p *TUIPresenter) Confirm(header, message string) bool {
	reply := make(chan bool, 1)
	p.program.Send(confirmMsg{header: header, message: message, reply: reply})

	select {
	case answer := <-reply:
		return answer
	case <-p.done:
		return false
	}
}

func (p *TUIPresenter) SetControlsEnabled(enabled bool) {
	p.program.Send(controlsMsg(enabled))
}

func (p *TUIPresenter) ClearResults() {
	p.program.Send(clearMsg{})
}
