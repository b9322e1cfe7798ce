package actions

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/conditions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// Built-in action ids.
const (
	ActionSpawnObject   = "SpawnObject"
	ActionRemoveObjects = "RemoveObjects"
	ActionSetFlag       = "SetFlag"
	ActionAddCounter    = "AddCounter"
	ActionMessage       = "Message"
)

// Event types emitted by the built-in handlers.
const (
	EventObjectSpawned  = "ObjectSpawned"
	EventObjectRemoved  = "ObjectRemoved"
	EventFlagChanged    = "FlagChanged"
	EventCounterChanged = "CounterChanged"
)

// Env is what the built-in handlers act on.
type Env struct {
	World  *state.World
	RNG    types.Random
	Gate   *conditions.Gate
	Logger *slog.Logger
}

// RegisterBuiltins registers every built-in handler against env. A failure
// to register one handler does not stop the others.
func RegisterBuiltins(r *Registry, env Env) error {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	builtins := []struct {
		id      string
		factory Factory
	}{
		{ActionSpawnObject, func() Handler { return &SpawnObject{env: env} }},
		{ActionRemoveObjects, func() Handler { return &RemoveObjects{env: env} }},
		{ActionSetFlag, func() Handler { return &SetFlag{env: env} }},
		{ActionAddCounter, func() Handler { return &AddCounter{env: env} }},
		{ActionMessage, func() Handler { return &Message{env: env} }},
	}
	var errs []error
	for _, b := range builtins {
		if err := r.Register(b.id, b.factory); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// settingsAs asserts the settings passed to Execute.
func settingsAs[T any](s any) (*T, error) {
	v, ok := s.(*T)
	if !ok || v == nil {
		var zero T
		return nil, fmt.Errorf("settings: got %T, want *%T", s, zero)
	}
	return v, nil
}
