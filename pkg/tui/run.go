package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
)

// Observer forwards engine callbacks to a running program
type Observer struct {
	program *tea.Program
}

var _ diffusion.Observer = (*Observer)(nil)

// NewObserver bridges engine callbacks to p
func NewObserver(p *tea.Program) *Observer {
	return &Observer{program: p}
}

func (o *Observer) OnStep(summary diffusion.StepSummary) {
	o.program.Send(StepMsg(summary))
}

func (o *Observer) OnStop(result *diffusion.Result) {
	o.program.Send(StopMsg{Result: result})
}

// Run drives e on a background goroutine while the program renders its
// progress. Quitting the program or cancelling ctx interrupts the run, and Run
// returns only after the engine goroutine has finished.
func Run(ctx context.Context, e *diffusion.Engine, bins int, opts ...tea.ProgramOption) (*diffusion.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(NewModel(e.Graph(), e.Config().Steps, bins), opts...)
	e.Observe(NewObserver(program))

	type outcome struct {
		result *diffusion.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := e.RunContext(ctx)
		if err != nil && ctx.Err() == nil {
			program.Send(ErrMsg{Err: err})
		}
		done <- outcome{result, err}
	}()

	_, uiErr := program.Run()
	cancel()
	out := <-done

	if uiErr != nil && (errors.Is(uiErr, tea.ErrProgramPanic) || !errors.Is(uiErr, tea.ErrProgramKilled)) {
		return nil, fmt.Errorf("failed to run terminal UI: %w", uiErr)
	}
	return out.result, out.err
}
