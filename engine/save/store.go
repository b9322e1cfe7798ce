package save

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Store holds saved slots.
type Store interface {
	Put(ctx context.Context, slot string, data []byte) error
	// Get returns ErrNotFound for a missing slot.
	Get(ctx context.Context, slot string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidSlot checks a slot name: letters, digits, '-' and '_' only.
func ValidSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("invalid save slot %q", slot)
	}
	return nil
}

// FileStore keeps each slot as <Dir>/<slot>.json.
type FileStore struct {
	Dir    string
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// the first Put.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{Dir: dir, logger: logger}
}

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.Dir, slot+".json")
}

func (s *FileStore) Put(_ context.Context, slot string, data []byte) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp := s.path(slot) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write save %q: %w", slot, err)
	}
	if err := os.Rename(tmp, s.path(slot)); err != nil {
		return fmt.Errorf("write save %q: %w", slot, err)
	}
	s.logger.Debug("save written", "slot", slot, "path", s.path(slot), "bytes", len(data))
	return nil
}

func (s *FileStore) Get(_ context.Context, slot string) ([]byte, error) {
	if err := ValidSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("read save %q: %w", slot, err)
	}
	return data, nil
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	slots := []string{}
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || ValidSlot(name) != nil {
			continue
		}
		slots = append(slots, name)
	}
	sort.Strings(slots)
	return slots, nil
}
