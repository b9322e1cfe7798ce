package actions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/settings"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// FlagSettings configure SetFlag.
type FlagSettings struct {
	Flag  string `mapstructure:"Flag"`
	Value bool   `mapstructure:"Value"`
}

// Validate requires a flag name.
func (s *FlagSettings) Validate() error {
	if strings.TrimSpace(s.Flag) == "" {
		return errors.New("Flag is required")
	}
	return nil
}

// SetFlag sets a world flag. Value defaults to true.
type SetFlag struct {
	env Env
}

// ParseSettings implements Handler.
func (h *SetFlag) ParseSettings(raw map[string]any) (any, error) {
	s := &FlagSettings{Value: true}
	if err := settings.Decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute implements Handler.
func (h *SetFlag) Execute(s any, tc types.TriggerContext) (types.ExecutionResult, error) {
	fs, err := settingsAs[FlagSettings](s)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	var res types.ExecutionResult
	if h.env.World.Flag(fs.Flag) != fs.Value {
		res.Changed = 1
	}
	h.env.World.SetFlag(fs.Flag, fs.Value)
	res.Events = append(res.Events, types.Event{
		Type: EventFlagChanged,
		Data: map[string]any{"flag": fs.Flag, "value": fs.Value},
	})
	return res, nil
}

// CounterSettings configure AddCounter. Amount may be negative.
type CounterSettings struct {
	Counter string `mapstructure:"Counter"`
	Amount  int    `mapstructure:"Amount"`
}

// Validate requires a counter name.
func (s *CounterSettings) Validate() error {
	if strings.TrimSpace(s.Counter) == "" {
		return errors.New("Counter is required")
	}
	return nil
}

// AddCounter adds Amount (default 1) to a world counter.
type AddCounter struct {
	env Env
}

// ParseSettings implements Handler.
func (h *AddCounter) ParseSettings(raw map[string]any) (any, error) {
	s := &CounterSettings{Amount: 1}
	if err := settings.Decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute implements Handler.
func (h *AddCounter) Execute(s any, tc types.TriggerContext) (types.ExecutionResult, error) {
	cs, err := settingsAs[CounterSettings](s)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	v := h.env.World.AddCounter(cs.Counter, cs.Amount)
	res := types.ExecutionResult{
		Events: []types.Event{{
			Type: EventCounterChanged,
			Data: map[string]any{"counter": cs.Counter, "value": v},
		}},
	}
	if cs.Amount != 0 {
		res.Changed = 1
	}
	return res, nil
}

// MessageSettings configure Message.
type MessageSettings struct {
	Text string `mapstructure:"Text"`
}

// Validate requires non-empty text.
func (s *MessageSettings) Validate() error {
	if s.Text == "" {
		return errors.New("Text is required")
	}
	return nil
}

// Message appends interpolated text to the firing's output.
type Message struct {
	env Env
}

// ParseSettings implements Handler.
func (h *Message) ParseSettings(raw map[string]any) (any, error) {
	s := &MessageSettings{}
	if err := settings.Decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute implements Handler.
func (h *Message) Execute(s any, tc types.TriggerContext) (types.ExecutionResult, error) {
	ms, err := settingsAs[MessageSettings](s)
	if err != nil {
		return types.ExecutionResult{}, err
	}
	return types.ExecutionResult{Output: []string{Interpolate(ms.Text, tc)}}, nil
}

// Interpolate replaces trigger placeholders in text: {trigger}, {location},
// {actor}, {item}, {input} and {argN} (1-based). Unknown placeholders are
// left as written.
func Interpolate(text string, tc types.TriggerContext) string {
	pairs := []string{
		"{trigger}", tc.Trigger,
		"{location}", tc.Location,
		"{actor}", tc.Actor,
		"{item}", itemID(tc.TargetItem),
		"{input}", itemID(tc.InputItem),
	}
	for i, a := range tc.Args {
		pairs = append(pairs, "{arg"+strconv.Itoa(i+1)+"}", fmt.Sprint(a))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func itemID(it *types.Item) string {
	if it == nil {
		return ""
	}
	return it.ID
}
