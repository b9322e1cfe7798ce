// Package resolve maps location names written in settings to world locations.
package resolve

import (
	"fmt"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// AmbiguityError indicates multiple locations matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("location %q is ambiguous (%s)", e.Name, names)
}

// NotFoundError indicates no location matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("location %q not found", e.Name)
}

// contextual names refer to the location the trigger was raised in.
var contextual = map[string]bool{
	"here":    true,
	"current": true,
}

// Contextual reports whether name refers to the trigger's own location.
func Contextual(name string) bool {
	return contextual[strings.ToLower(strings.TrimSpace(name))]
}

// Location resolves a single name to a location id.
func Location(w *state.World, tc types.TriggerContext, name string) (string, error) {
	name = strings.TrimSpace(name)

	// 1. Context-relative names.
	if Contextual(name) {
		if tc.Location == "" {
			return "", &NotFoundError{Name: name}
		}
		name = tc.Location
	}

	// 2. Exact id match.
	if _, ok := w.Location(name); ok {
		return name, nil
	}

	// 3. Case-insensitive match.
	var matches []string
	for _, id := range w.LocationIDs() {
		if strings.EqualFold(id, name) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguityError{Name: name, Candidates: matches}
	}
}

// Locations resolves each name, keeping order. Names that fail to resolve
// are returned as errors and left out of the result.
func Locations(w *state.World, tc types.TriggerContext, names []string) ([]string, []error) {
	var (
		out  []string
		errs []error
	)
	for _, n := range names {
		id, err := Location(w, tc, n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, id)
	}
	return out, errs
}
