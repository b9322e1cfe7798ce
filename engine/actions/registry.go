// Package actions implements the action handler registry and the built-in
// handlers. A handler turns a candidate's raw settings into a typed settings
// value and performs the action's effect against the world.
package actions

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

var (
	// ErrUnknownAction is returned by Resolve for an unregistered action id.
	ErrUnknownAction = errors.New("unknown action")
	// ErrDuplicateAction is returned by Register when the id is taken.
	ErrDuplicateAction = errors.New("duplicate action")
)

// Handler parses and executes one kind of action.
type Handler interface {
	// ParseSettings decodes raw into a fresh typed settings value. raw must
	// not be modified.
	ParseSettings(raw map[string]any) (any, error)
	// Execute performs the action using settings previously returned by
	// ParseSettings.
	Execute(settings any, tc types.TriggerContext) (types.ExecutionResult, error)
}

// Factory produces a handler instance.
type Factory func() Handler

// Registry maps action ids to handler factories. Ids compare
// case-insensitively. Registration happens at startup; lookups afterwards are
// read-only.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]registration
	logger    *slog.Logger
}

type registration struct {
	id      string // as first registered
	factory Factory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factories: map[string]registration{},
		logger:    logger,
	}
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Register binds id to factory. Registering an id twice fails and keeps the
// first binding.
func (r *Registry) Register(id string, factory Factory) error {
	key := normalize(id)
	if key == "" {
		return fmt.Errorf("register action: empty id")
	}
	if factory == nil {
		return fmt.Errorf("register action %q: nil factory", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.factories[key]; ok {
		err := fmt.Errorf("%w: %q already registered as %q", ErrDuplicateAction, id, existing.id)
		r.logger.Error("action registration rejected", "action", id, "error", err)
		return err
	}
	r.factories[key] = registration{id: id, factory: factory}
	r.logger.Debug("action registered", "action", id)
	return nil
}

// Resolve returns a handler for id.
func (r *Registry) Resolve(id string) (Handler, error) {
	r.mu.RLock()
	reg, ok := r.factories[normalize(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	h := reg.factory()
	if h == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrUnknownAction, id)
	}
	return h, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalize(id)]
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for _, reg := range r.factories {
		ids = append(ids, reg.id)
	}
	sort.Strings(ids)
	return ids
}
