package recipe

import (
	"errors"
	"fmt"
	"time"
)

// EvalTimeout bounds how long a recipe may run. Recipes only set a handful
// of parameters, so one that runs this long is assumed to loop.
const EvalTimeout = 5 * time.Second

var (
	ErrTimeout    = errors.New("recipe: evaluation timed out")
	ErrSuperseded = errors.New("recipe: evaluation superseded by a newer one")
)

// evalResult is what a sandbox goroutine hands back to Evaluate.
type evalResult struct {
	recipe *Recipe
	errors []EvalError
	err    error
}

// begin registers a new evaluation and returns its ticket. Every
// evaluation still in flight is superseded from this point on.
func (e *Evaluator) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.latest++
	return e.latest
}

func (e *Evaluator) current(ticket uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ticket == e.latest
}

// await collects the recipe for ticket from ch. A sandbox that outlives the
// evaluator's timeout is abandoned, and its goroutine's eventual result is
// never read. A recipe that finishes after a newer evaluation began is
// dropped with ErrSuperseded.
func (e *Evaluator) await(ch <-chan evalResult, ticket uint64) (*Recipe, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.current(ticket) {
			return nil, nil, ErrSuperseded
		}
		return res.recipe, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
