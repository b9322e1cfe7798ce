package rules

import (
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ConditionError is a condition failure attributed to a rule or candidate.
// Candidate is nil for the rule's own condition.
type ConditionError struct {
	Rule      *Rule
	Candidate *Candidate
	Err       error
}

func (e *ConditionError) Error() string {
	if e.Candidate != nil {
		return "rule " + e.Rule.Label() + " candidate " + e.Candidate.Label() + ": " + e.Err.Error()
	}
	return "rule " + e.Rule.Label() + ": " + e.Err.Error()
}

func (e *ConditionError) Unwrap() error { return e.Err }

// Passes evaluates the rule's own condition. An absent condition passes.
func (r *Rule) Passes(gate *conditions.Gate, tc types.TriggerContext) (bool, error) {
	ok, err := gate.Pass(r.Condition, conditions.Scope{Trigger: tc})
	if err != nil {
		return false, &ConditionError{Rule: r, Err: err}
	}
	return ok, nil
}

// Passing evaluates every candidate's condition and returns those that pass,
// in declaration order. It is called once per repetition so a
// non-deterministic condition may pass on a later repetition.
func (r *Rule) Passing(gate *conditions.Gate, tc types.TriggerContext) ([]*Candidate, []error) {
	var (
		out  []*Candidate
		errs []error
	)
	scope := conditions.Scope{Trigger: tc}
	for i := range r.Candidates {
		c := &r.Candidates[i]
		ok, err := gate.Pass(c.Condition, scope)
		if err != nil {
			errs = append(errs, &ConditionError{Rule: r, Candidate: c, Err: err})
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, errs
}
