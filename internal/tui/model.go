package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"cineboard/internal/session"
	"cineboard/internal/workflow"
)

// Session is the orchestrator surface the TUI needs.
type Session interface {
	Snapshot() session.State
	Subscribe() (<-chan workflow.Update, func())
	RetrySceneAsync(index int) (<-chan struct{}, error)
}

// Model is the bubbletea model for the storyboard view.
type Model struct {
	session  Session
	updates  <-chan workflow.Update
	state    session.State
	selected int
	notice   string
	err      error
	closed   bool
}

// NewModel builds a model seeded with the current snapshot.
func NewModel(s Session, updates <-chan workflow.Update) Model {
	return Model{
		session: s,
		updates: updates,
		state:   s.Snapshot(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return waitForUpdate(m.updates)
}

// State returns the last state the model rendered.
func (m Model) State() session.State {
	return m.state
}

// Run starts the program and blocks until the user quits or ctx ends. The
// session keeps running after the TUI exits.
func Run(ctx context.Context, s Session, opts ...tea.ProgramOption) error {
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(NewModel(s, updates), opts...)
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
