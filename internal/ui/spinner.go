package ui

// spinner.go provides a blocking spinner for the source fetches.

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user interrupts a spinner with ctrl+c
var ErrCancelled = errors.New("cancelled")

// actionDoneMsg signals the action completed
type actionDoneMsg struct {
	err error
}

// blockingSpinnerModel runs a spinner while an action executes
type blockingSpinnerModel struct {
	spinner   spinner.Model
	title     string
	action    func() error
	done      bool
	cancelled bool
	err       error
}

// RunWithSpinner executes action while displaying a spinner and returns the
// action's error. ctrl+c stops the spinner and returns ErrCancelled; the
// action itself should watch a context the caller cancels in that case.
//
// Example:
//
//	var res history.Result
//	err := RunWithSpinner("Investigating example.com...", func() error {
//	    res = engine.Run(ctx, "example.com", "")
//	    return nil
//	})
func RunWithSpinner(title string, action func() error) error {
	m := blockingSpinnerModel{
		spinner: NewAppSpinner(),
		title:   title,
		action:  action,
	}

	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner program error: %w", err)
	}

	final := finalModel.(blockingSpinnerModel)
	if final.cancelled {
		return ErrCancelled
	}
	return final.err
}

func (m blockingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.runAction(),
	)
}

func (m blockingSpinnerModel) runAction() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.action()}
	}
}

func (m blockingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m blockingSpinnerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), RenderNormal(m.title))
}
