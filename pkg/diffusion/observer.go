package diffusion

// Observer receives engine progress. Callbacks run on the engine's goroutine,
// after the step has been committed, and must not block for long.
type Observer interface {
	OnStep(summary StepSummary)
	OnStop(result *Result)
}

// StepFunc adapts a function to an Observer that ignores OnStop
type StepFunc func(summary StepSummary)

func (f StepFunc) OnStep(summary StepSummary) { f(summary) }
func (StepFunc) OnStop(*Result)               {}

// StopFunc adapts a function to an Observer that ignores OnStep
type StopFunc func(result *Result)

func (StopFunc) OnStep(StepSummary)      {}
func (f StopFunc) OnStop(result *Result) { f(result) }
