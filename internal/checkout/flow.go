package checkout

import (
	"context"
	"time"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Flow records the states a single checkout attempt passes through. A flow
// only moves forward and stops at succeeded or failed.
type Flow struct {
	state   State
	history []State
}

func NewFlow() *Flow {
	return &Flow{state: StateIdle, history: []State{StateIdle}}
}

func (f *Flow) State() State { return f.state }

func (f *Flow) History() []State {
	return append([]State(nil), f.history...)
}

func (f *Flow) Done() bool {
	return f.state == StateSucceeded || f.state == StateFailed
}

func (f *Flow) advance(next State) {
	if f.Done() {
		return
	}
	f.state = next
	f.history = append(f.history, next)
}

type Step struct {
	Message  string        `json:"message"`
	Duration time.Duration `json:"-"`
}

var DefaultSteps = []Step{
	{Message: "Validating payment information...", Duration: 1500 * time.Millisecond},
	{Message: "Processing payment...", Duration: 2000 * time.Millisecond},
	{Message: "Confirming order...", Duration: 1000 * time.Millisecond},
}

// SimulatedProcessor stands in for a payment gateway. It waits out each step
// and always succeeds unless the context ends first.
type SimulatedProcessor struct {
	steps []Step
	scale float64
}

func NewSimulatedProcessor(steps []Step, scale float64) *SimulatedProcessor {
	if scale < 0 {
		scale = 0
	}
	return &SimulatedProcessor{steps: steps, scale: scale}
}

func (p *SimulatedProcessor) Process(ctx context.Context, onStep func(Step)) error {
	for _, step := range p.steps {
		if onStep != nil {
			onStep(step)
		}

		wait := time.Duration(float64(step.Duration) * p.scale)
		if wait <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
