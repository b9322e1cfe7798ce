package loader

import (
	"fmt"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/parser"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/resolve"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// HasErrors reports whether any error was collected.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate checks compiled rules. Rules with errors are removed from
// content; warnings leave the rule in place.
func validate(content *Content, actions ActionSet, ve *ValidationError) {
	seen := map[string]string{}
	kept := content.Rules[:0]

	for _, rule := range content.Rules {
		name := ruleName(rule)
		ok := true

		if strings.TrimSpace(rule.Triggers) == "" {
			ve.errorf("rule %s: Triggers is required", name)
			ok = false
		} else if _, err := parser.ParsePattern(rule.Triggers); err != nil {
			ve.errorf("rule %s: %v", name, err)
			ok = false
		}

		for i, c := range rule.CustomActions {
			if strings.TrimSpace(c.Action) == "" {
				ve.errorf("rule %s: candidate #%d: Action is required", name, i)
				ok = false
			}
		}
		if !ok {
			continue
		}

		if rule.ID != "" {
			if prev, dup := seen[strings.ToLower(rule.ID)]; dup {
				ve.warnf("rule %s: duplicate rule Id (first defined in %s)", name, prev)
			} else {
				seen[strings.ToLower(rule.ID)] = fmt.Sprintf("%s#%d", rule.Source, rule.SourceOrder)
			}
		}
		if len(rule.CustomActions) == 0 {
			ve.warnf("rule %s: no CustomActions", name)
		}
		if rule.MinTimes < 0 {
			ve.warnf("rule %s: MinTimes %d clamped to 0", name, rule.MinTimes)
		}
		if rule.MaxTimes < rule.MinTimes {
			ve.warnf("rule %s: MaxTimes %d below MinTimes %d, clamped", name, rule.MaxTimes, rule.MinTimes)
		}

		for i, c := range rule.CustomActions {
			label := candidateName(c, i)
			if c.Weight < 0 {
				ve.warnf("rule %s: candidate %s: negative Weight %g treated as 0", name, label, c.Weight)
			}
			if actions != nil && !actions.Has(c.Action) {
				ve.warnf("rule %s: candidate %s: unknown action %q", name, label, c.Action)
			}
			if len(content.Defs.Locations) > 0 {
				for _, loc := range settingLocations(c.Settings) {
					if !knownLocation(content, loc) {
						ve.warnf("rule %s: candidate %s: unknown location %q", name, label, loc)
					}
				}
			}
		}

		kept = append(kept, rule)
	}
	content.Rules = kept
}

func candidateName(c types.ActionCandidate, i int) string {
	if c.ID != "" {
		return fmt.Sprintf("%q", c.ID)
	}
	return fmt.Sprintf("#%d", i)
}

// settingLocations pulls the Location and LocationList values out of raw
// settings.
func settingLocations(s map[string]any) []string {
	if s == nil {
		return nil
	}
	var out []string
	if v, ok := lookup(s, "Location").(string); ok && v != "" {
		out = append(out, v)
	}
	switch v := lookup(s, "LocationList").(type) {
	case []any:
		for _, e := range v {
			if str, ok := e.(string); ok && str != "" {
				out = append(out, str)
			}
		}
	case string:
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func knownLocation(content *Content, name string) bool {
	if resolve.Contextual(name) {
		return true
	}
	for id := range content.Defs.Locations {
		if strings.EqualFold(id, name) {
			return true
		}
	}
	return false
}
