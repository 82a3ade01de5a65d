package dom

import (
	"context"
	"time"
)

// Run executes steps strictly in order. A failed step aborts the
// sequence with a StepError wrapping the cause; steps marked Optional
// log their failure and let the run continue. Steps after an abort are
// never started.
func (e *Engine) Run(ctx context.Context, steps []Step) error {
	for i, step := range steps {
		e.log.Logf("step %d/%d: %s", i+1, len(steps), step.Name)
		if err := e.runStep(ctx, step); err != nil {
			if step.Optional && ctx.Err() == nil {
				e.log.Logf("step %d/%d: %s skipped (%v)", i+1, len(steps), step.Name, err)
				continue
			}
			return &StepError{Index: i + 1, Total: len(steps), Name: step.Name, Err: err}
		}
		e.log.Logf("step %d/%d: %s done", i+1, len(steps), step.Name)

		if i == len(steps)-1 {
			break
		}
		delay := step.DelayAfter
		if delay <= 0 {
			delay = e.set.StepDelay
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// runStep resolves the step's target, lets the page settle for the
// action delay, then acts.
func (e *Engine) runStep(ctx context.Context, step Step) error {
	el := step.Element
	if el == nil {
		cfg := e.Wait()
		if step.Wait != nil {
			cfg = *step.Wait
		}
		found, err := e.WaitFor(ctx, step.Selectors, cfg)
		if err != nil {
			return err
		}
		el = found
	}

	if err := sleep(ctx, e.set.ActionDelay); err != nil {
		return err
	}

	if step.Action != nil {
		return step.Action(ctx, e.page, el)
	}
	return e.page.Click(ctx, el.Handle)
}

// sleep is a context-aware time.Sleep.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
