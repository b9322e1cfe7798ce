// Package settings decodes untyped action settings into typed structs and
// defines the optional capabilities a settings struct can expose.
//
// A handler's settings type opts into a capability by embedding the matching
// selection struct (LocationSelection, TileFilter, ItemSelection). Handlers
// discover capabilities with Locations, Tiles and Items rather than by type
// assertion to a concrete settings type.
package settings

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var (
	// ErrInvalidSettings wraps any decode or validation failure.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrMissingCapability is returned when a handler asks for a capability
	// its settings do not provide.
	ErrMissingCapability = errors.New("missing capability")
)

// LocationCapable settings choose one or more target locations.
type LocationCapable interface {
	LocationSettings() *LocationSelection
}

// TileCapable settings filter candidate tiles by condition.
type TileCapable interface {
	TileSettings() *TileFilter
}

// ItemCapable settings choose items and how many of them to produce.
type ItemCapable interface {
	ItemSettings() *ItemSelection
}

// Validator is implemented by settings that check themselves after decoding.
type Validator interface {
	Validate() error
}

// Locations returns the location capability of s.
func Locations(s any) (*LocationSelection, error) {
	c, ok := s.(LocationCapable)
	if !ok {
		return nil, fmt.Errorf("%w: location (settings %T)", ErrMissingCapability, s)
	}
	return c.LocationSettings(), nil
}

// Tiles returns the tile capability of s.
func Tiles(s any) (*TileFilter, error) {
	c, ok := s.(TileCapable)
	if !ok {
		return nil, fmt.Errorf("%w: tile (settings %T)", ErrMissingCapability, s)
	}
	return c.TileSettings(), nil
}

// Items returns the item capability of s.
func Items(s any) (*ItemSelection, error) {
	c, ok := s.(ItemCapable)
	if !ok {
		return nil, fmt.Errorf("%w: item (settings %T)", ErrMissingCapability, s)
	}
	return c.ItemSettings(), nil
}

// Capabilities lists the capability names s supports, for diagnostics.
func Capabilities(s any) []string {
	var caps []string
	if _, ok := s.(LocationCapable); ok {
		caps = append(caps, "location")
	}
	if _, ok := s.(TileCapable); ok {
		caps = append(caps, "tile")
	}
	if _, ok := s.(ItemCapable); ok {
		caps = append(caps, "item")
	}
	return caps
}

// Decode copies raw into target, a pointer to a settings struct that already
// holds its defaults. Keys match field tags case-insensitively, unknown keys
// are ignored and scalar values are coerced where sensible ("3" → 3, a single
// string → one-element list). raw is never modified. If target implements
// Validator it is validated after decoding.
func Decode(raw map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			itemStringHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}
	return nil
}

var itemSpecType = reflect.TypeOf(ItemSpec{})

// itemStringHook lets an item be written as a bare id: "(O)388".
func itemStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != itemSpecType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"Id": data}, nil
}
