// Package conditions evaluates rule, candidate, modifier and tile condition
// strings. The evaluator itself is pluggable; Gate adds the fail-closed and
// report-once behavior the dispatch engine relies on.
package conditions

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ErrMalformedCondition wraps any failure to parse or run a condition.
var ErrMalformedCondition = errors.New("malformed condition")

// Scope is what a condition can see: the trigger, and for tile conditions
// the tile under test.
type Scope struct {
	Trigger types.TriggerContext
	Tile    *types.Tile // nil outside tile filtering
}

// Evaluator decides a condition string against a scope.
type Evaluator interface {
	Evaluate(condition string, scope Scope) (bool, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(condition string, scope Scope) (bool, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(condition string, scope Scope) (bool, error) {
	return f(condition, scope)
}

// Gate wraps an Evaluator. Empty conditions pass, failing conditions are
// treated as false, and each distinct failing string is reported once.
type Gate struct {
	eval   Evaluator
	logger *slog.Logger

	mu       sync.Mutex
	reported map[string]bool
}

// NewGate creates a Gate around eval.
func NewGate(eval Evaluator, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		eval:     eval,
		logger:   logger,
		reported: map[string]bool{},
	}
}

// Pass evaluates condition. The returned error is non-nil only the first time
// a given condition string fails to evaluate; later failures of the same
// string return (false, nil).
func (g *Gate) Pass(condition string, scope Scope) (bool, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true, nil
	}

	ok, err := g.eval.Evaluate(condition, scope)
	if err == nil {
		return ok, nil
	}
	if !errors.Is(err, ErrMalformedCondition) {
		err = errors.Join(ErrMalformedCondition, err)
	}

	g.mu.Lock()
	seen := g.reported[condition]
	g.reported[condition] = true
	g.mu.Unlock()

	if seen {
		return false, nil
	}
	g.logger.Warn("condition failed to evaluate; treating as false",
		"condition", condition, "trigger", scope.Trigger.Trigger, "error", err)
	return false, err
}

// Applies returns a predicate bound to scope, for use by quantity modifiers.
// Errors are reported through the gate and collected into errs.
func (g *Gate) Applies(scope Scope, errs *[]error) func(string) bool {
	return func(condition string) bool {
		ok, err := g.Pass(condition, scope)
		if err != nil && errs != nil {
			*errs = append(*errs, err)
		}
		return ok
	}
}
