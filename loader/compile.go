package loader

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// compile decodes every document into rules and location definitions. Rules
// that fail to decode are skipped and reported; the rest are kept in load
// order.
func compile(docs []document) (*Content, *ValidationError) {
	ve := &ValidationError{}
	content := &Content{
		Defs: &state.Defs{Locations: map[string]state.LocationDef{}},
	}

	for _, doc := range docs {
		if doc.title != "" {
			content.Defs.Title = doc.title
		}

		for i, raw := range doc.locations {
			loc, err := compileLocation(raw)
			if err != nil {
				ve.errorf("%s: location #%d: %v", doc.source, i+1, err)
				continue
			}
			if _, dup := content.Defs.Locations[loc.ID]; dup {
				ve.warnf("%s: location %q redefined", doc.source, loc.ID)
			}
			content.Defs.Locations[loc.ID] = loc
		}

		for i, raw := range doc.rules {
			rule, err := compileRule(raw)
			rule.Source = doc.source
			rule.SourceOrder = i + 1
			if err != nil {
				ve.errorf("rule %s: %v", ruleName(rule), err)
				continue
			}
			content.Rules = append(content.Rules, rule)
		}
	}
	return content, ve
}

// compileRule decodes one rule. Missing fields take their defaults: ActionsMode
// All, MinTimes and MaxTimes 1, candidate Weight 1. When only MinTimes is
// given MaxTimes follows it.
func compileRule(raw any) (types.ActionRule, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return types.ActionRule{}, fmt.Errorf("want an object, got %T", raw)
	}

	// Candidates are decoded one by one so each gets its own defaults.
	body := make(map[string]any, len(m))
	var rawCandidates any
	for k, v := range m {
		if strings.EqualFold(k, "CustomActions") {
			rawCandidates = v
			continue
		}
		body[k] = v
	}

	rule := types.ActionRule{
		ActionsMode: types.ActionsAll,
		MinTimes:    1,
		MaxTimes:    1,
	}
	var md mapstructure.Metadata
	if err := decode(body, &rule, &md); err != nil {
		return rule, err
	}
	if decoded(md, "MinTimes") && !decoded(md, "MaxTimes") {
		rule.MaxTimes = rule.MinTimes
	}

	candidates, err := list(rawCandidates, "CustomActions")
	if err != nil {
		return rule, err
	}
	for i, rc := range candidates {
		cm, ok := rc.(map[string]any)
		if !ok {
			return rule, fmt.Errorf("candidate #%d: want an object, got %T", i, rc)
		}
		c := types.ActionCandidate{Weight: 1}
		if err := decode(cm, &c, nil); err != nil {
			return rule, fmt.Errorf("candidate #%d: %w", i, err)
		}
		rule.CustomActions = append(rule.CustomActions, c)
	}
	return rule, nil
}

func compileLocation(raw any) (state.LocationDef, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return state.LocationDef{}, fmt.Errorf("want an object, got %T", raw)
	}
	var loc state.LocationDef
	if err := decode(m, &loc, nil); err != nil {
		return loc, err
	}
	if loc.ID == "" {
		return loc, fmt.Errorf("Id is required")
	}
	if loc.Width <= 0 || loc.Height <= 0 {
		return loc, fmt.Errorf("location %q: Width and Height must be positive", loc.ID)
	}
	return loc, nil
}

// decode copies raw into target. Keys match case-insensitively, numbers
// written as strings are accepted, and mode names go through UnmarshalText.
func decode(raw map[string]any, target any, md *mapstructure.Metadata) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		Metadata:         md,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func decoded(md mapstructure.Metadata, key string) bool {
	for _, k := range md.Keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ruleName identifies a rule in load messages.
func ruleName(r types.ActionRule) string {
	if r.ID != "" {
		return fmt.Sprintf("%q (%s#%d)", r.ID, r.Source, r.SourceOrder)
	}
	return fmt.Sprintf("%s#%d", r.Source, r.SourceOrder)
}
