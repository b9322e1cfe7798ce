// Package types defines the shared data structures for the custom action engine.
// This package contains only type definitions, with no logic beyond enum parsing.
package types

import (
	"fmt"
	"strings"
)

// Item is a reference to an item carried by a trigger (the item being used,
// or the item fed into a machine).
type Item struct {
	ID    string `json:"id" mapstructure:"Id"`
	Stack int    `json:"stack,omitempty" mapstructure:"Stack"`
}

// TriggerContext is everything a host passes along with a raised trigger.
// It is never modified while a firing is dispatched.
type TriggerContext struct {
	Trigger    string
	Args       []any // never nil
	Location   string
	Actor      string
	TargetItem *Item // optional
	InputItem  *Item // optional
}

// ActionsMode controls how a rule picks among its passing candidates.
type ActionsMode string

const (
	ActionsAll    ActionsMode = "All"
	ActionsRandom ActionsMode = "Random"
)

// UnmarshalText accepts mode names case-insensitively.
func (m *ActionsMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "all":
		*m = ActionsAll
	case "random":
		*m = ActionsRandom
	default:
		return fmt.Errorf("unknown actions mode %q", string(text))
	}
	return nil
}

// ListMode controls how a list-valued setting (locations, items) is resolved.
type ListMode string

const (
	ListAll    ListMode = "All"
	ListRandom ListMode = "Random"
)

// UnmarshalText accepts mode names case-insensitively.
func (m *ListMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "all":
		*m = ListAll
	case "", "random":
		*m = ListRandom
	default:
		return fmt.Errorf("unknown list mode %q", string(text))
	}
	return nil
}

// ModifierOp is the arithmetic a quantity modifier applies.
type ModifierOp string

const (
	OpAdd      ModifierOp = "Add"
	OpSubtract ModifierOp = "Subtract"
	OpMultiply ModifierOp = "Multiply"
	OpDivide   ModifierOp = "Divide"
)

// ModifierMode controls how multiple applicable modifiers combine.
type ModifierMode string

const (
	ModifierStack   ModifierMode = "Stack"
	ModifierMinimum ModifierMode = "Minimum"
	ModifierMaximum ModifierMode = "Maximum"
)

// UnmarshalText accepts mode names case-insensitively.
func (m *ModifierMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "stack":
		*m = ModifierStack
	case "minimum", "min":
		*m = ModifierMinimum
	case "maximum", "max":
		*m = ModifierMaximum
	default:
		return fmt.Errorf("unknown modifier mode %q", string(text))
	}
	return nil
}

// Modifier adjusts a drawn quantity. Op is kept as written so that a bad
// operation can be reported at resolution time instead of failing the load.
type Modifier struct {
	Op        ModifierOp `json:"op" mapstructure:"Op"`
	Amount    float64    `json:"amount" mapstructure:"Amount"`
	Condition string     `json:"condition,omitempty" mapstructure:"Condition"`
}

// ActionCandidate is one possible action within a rule.
type ActionCandidate struct {
	ID        string         `json:"id,omitempty" mapstructure:"Id"`
	Action    string         `json:"action" mapstructure:"Action"`
	Condition string         `json:"condition,omitempty" mapstructure:"Condition"`
	Weight    float64        `json:"weight" mapstructure:"Weight"`
	Settings  map[string]any `json:"settings,omitempty" mapstructure:"Settings"`
}

// ActionRule maps a trigger pattern and condition to candidate actions.
type ActionRule struct {
	ID            string            `json:"id,omitempty" mapstructure:"Id"`
	Triggers      string            `json:"triggers" mapstructure:"Triggers"`
	Condition     string            `json:"condition,omitempty" mapstructure:"Condition"`
	ActionsMode   ActionsMode       `json:"actions_mode" mapstructure:"ActionsMode"`
	MinTimes      int               `json:"min_times" mapstructure:"MinTimes"`
	MaxTimes      int               `json:"max_times" mapstructure:"MaxTimes"`
	CustomActions []ActionCandidate `json:"custom_actions" mapstructure:"CustomActions"`
	Source        string            `json:"-" mapstructure:"-"` // file the rule was loaded from
	SourceOrder   int               `json:"-" mapstructure:"-"`
}

// Tile is a single cell of a location, as seen by tile conditions.
type Tile struct {
	X        int
	Y        int
	Terrain  string
	Occupied bool
}

// Event is emitted by a handler and re-raised as a follow-up trigger.
type Event struct {
	Type string
	Data map[string]any
}

// ExecutionResult is what a handler reports back after running.
type ExecutionResult struct {
	Output  []string
	Events  []Event
	Changed int // number of world objects placed, removed or updated
}

// DiagnosticKind classifies a reported failure.
type DiagnosticKind string

const (
	DiagConfig    DiagnosticKind = "config"
	DiagCondition DiagnosticKind = "condition"
	DiagExecution DiagnosticKind = "execution"
)

// Diagnostic is a single reported failure from a firing.
type Diagnostic struct {
	Kind      DiagnosticKind
	Trigger   string
	Rule      string
	Candidate string
	Err       error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s error: trigger=%s rule=%s candidate=%s: %v",
		d.Kind, d.Trigger, d.Rule, d.Candidate, d.Err)
}

// Execution records one handler invocation during a firing.
type Execution struct {
	Rule       string
	Candidate  string
	Action     string
	Repetition int
	Result     ExecutionResult
}

// Report is the outcome of one trigger firing.
type Report struct {
	ID           string
	Trigger      string
	RulesMatched int
	RulesPassed  int
	Repetitions  int
	Executions   []Execution
	Output       []string
	Events       []Event
	Diagnostics  []Diagnostic
	// Queued is set when the trigger arrived during another firing. It is
	// dispatched as part of that firing and this report is otherwise empty.
	Queued bool
}

// Random is the shared pseudo-random source used by selection and quantity
// resolution.
type Random interface {
	// Range returns an integer in [min, max].
	Range(min, max int) int
	// Float64 returns a number in [0, 1).
	Float64() float64
	// WeightedSelect returns an index drawn in proportion to weights, or -1
	// if no weight is positive.
	WeightedSelect(weights []float64) int
}
