// Package rules compiles configured action rules and implements the
// matching, gating and selection steps of a firing.
package rules

import (
	"fmt"
	"strconv"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/parser"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/quantity"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// Candidate is a compiled ActionCandidate.
type Candidate struct {
	types.ActionCandidate
	Index int // position within the rule
}

// Label identifies the candidate in diagnostics: its Id, or its position
// and action when no Id was given.
func (c *Candidate) Label() string {
	if c.ID != "" {
		return c.ID
	}
	return "#" + strconv.Itoa(c.Index) + " " + c.Action
}

// Rule is a compiled ActionRule. Rules are immutable once compiled.
type Rule struct {
	types.ActionRule
	Index      int // position within the set
	Pattern    parser.Pattern
	Times      quantity.Range
	Candidates []Candidate
}

// Label identifies the rule in diagnostics.
func (r *Rule) Label() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Source != "" {
		return r.Source + "#" + strconv.Itoa(r.SourceOrder)
	}
	return "rule#" + strconv.Itoa(r.Index)
}

// Repetitions draws how many selection rounds the rule performs.
func (r *Rule) Repetitions(rng types.Random) int {
	return quantity.Times(rng, r.Times.Min, r.Times.Max)
}

// Set is an ordered, read-only collection of compiled rules.
type Set struct {
	rules []Rule
}

// Compile builds a Set from rule definitions in load order. A rule whose
// Triggers pattern does not parse is left out and reported; everything else
// is normalized: the repeat range is clamped, negative weights become 0 and
// an empty ActionsMode means All.
func Compile(defs []types.ActionRule) (*Set, []error) {
	s := &Set{rules: make([]Rule, 0, len(defs))}
	var errs []error

	for i, def := range defs {
		pat, err := parser.ParsePattern(def.Triggers)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", labelOf(def, i), err))
			continue
		}
		if def.ActionsMode == "" {
			def.ActionsMode = types.ActionsAll
		}

		r := Rule{
			ActionRule: def,
			Index:      len(s.rules),
			Pattern:    pat,
			Times:      quantity.Range{Min: def.MinTimes, Max: def.MaxTimes}.Clamp(),
			Candidates: make([]Candidate, len(def.CustomActions)),
		}
		r.MinTimes, r.MaxTimes = r.Times.Min, r.Times.Max
		for j, c := range def.CustomActions {
			if c.Weight < 0 {
				c.Weight = 0
			}
			r.Candidates[j] = Candidate{ActionCandidate: c, Index: j}
		}
		s.rules = append(s.rules, r)
	}
	return s, errs
}

func labelOf(def types.ActionRule, i int) string {
	if def.ID != "" {
		return strconv.Quote(def.ID)
	}
	return "#" + strconv.Itoa(i)
}

// Len returns the number of compiled rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rules returns the compiled rules in load order. Callers must not modify
// them.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	return s.rules
}
