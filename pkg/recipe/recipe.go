// Package recipe evaluates growth recipes: small Lisp programs that choose a
// seed surface, set growth parameters, and say how long to run. Recipes are
// evaluated with zygomys in a sandbox, so arithmetic and definitions work
// but the filesystem is out of reach.
//
//	(def r 3)
//	(seed :kind :icosphere :radius r :subdivisions 2)
//	(growth :collision-distance 1.0 :bending-resistance-weight 0.5)
//	(steps 200)
//	(snapshot-every 50)
package recipe

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/sprout/pkg/growth"
	"github.com/chazu/sprout/pkg/seed"
	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultSteps is the run length of a recipe that never calls steps.
const DefaultSteps = 100

// Recipe is the result of evaluating a recipe program.
type Recipe struct {
	Seed          seed.Spec
	Config        growth.Config
	Steps         int
	SnapshotEvery int // zero writes only the final mesh
}

// Default returns the recipe an empty program evaluates to.
func Default() *Recipe {
	return &Recipe{
		Seed:   seed.DefaultSpec(),
		Config: growth.Default(),
		Steps:  DefaultSteps,
	}
}

// Validate checks the values a program may have set out of range.
func (r *Recipe) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if r.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", r.Steps)
	}
	if r.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot-every must not be negative, got %d", r.SnapshotEvery)
	}
	return nil
}

// EvalError is a non-fatal error in the recipe source, such as a parse
// error or a bad builtin argument.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Evaluator runs recipe programs, each in a fresh sandbox. Evaluate may be
// called from several goroutines, but the calls are not independent:
// starting an evaluation supersedes any still running on the same
// Evaluator, and those return ErrSuperseded. Callers that need every
// result should use one Evaluator each.
type Evaluator struct {
	mu      sync.Mutex
	latest  uint64
	timeout time.Duration
}

// NewEvaluator creates an Evaluator that abandons recipes running longer
// than EvalTimeout.
func NewEvaluator() *Evaluator {
	return &Evaluator{timeout: EvalTimeout}
}

// Evaluate runs source and returns the recipe it describes.
//
// Return semantics:
//   - On success: recipe, nil, nil
//   - On a mistake in the program: nil, eval errors, nil
//   - On timeout, supersession or panic: nil, nil, error
func (e *Evaluator) Evaluate(source string) (*Recipe, []EvalError, error) {
	ticket := e.begin()
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		r, evalErrs, err := evaluate(source)
		ch <- evalResult{recipe: r, errors: evalErrs, err: err}
	}()

	return e.await(ch, ticket)
}

// EvaluateFile reads and evaluates the recipe at path.
func (e *Evaluator) EvaluateFile(path string) (*Recipe, []EvalError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read recipe: %w", err)
	}
	return e.Evaluate(string(data))
}

func evaluate(source string) (*Recipe, []EvalError, error) {
	r := Default()
	if strings.TrimSpace(source) == "" {
		return r, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, r)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if err := r.Validate(); err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	return r, nil, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError turns a zygomys error into EvalErrors, keeping the line
// number when the message has one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
