// Package loader reads rule and world content from a directory of JSON, YAML
// and Lua files and compiles it into action rules and location definitions.
// Lua files run in a sandboxed VM that is discarded after loading.
package loader

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

// ActionSet reports whether an action id has a registered handler.
type ActionSet interface {
	Has(id string) bool
}

// Options configure Load.
type Options struct {
	// Actions, when set, turns references to unregistered actions into
	// warnings at load time.
	Actions ActionSet
	// Strict fails the load when any rule has an error. Otherwise bad rules
	// are skipped and reported in Content.Problems.
	Strict bool
	Logger *slog.Logger
}

// Content is everything loaded from a content directory.
type Content struct {
	Defs     *state.Defs
	Rules    []types.ActionRule
	Files    []string
	Problems *ValidationError // never nil
}

// document is one file's raw definitions before compilation.
type document struct {
	source    string
	title     string
	rules     []any
	locations []any
}

var contentExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".lua":  true,
}

// Load reads every content file in dir (not recursive). world.* files are
// read first, the rest alphabetically.
func Load(dir string, opts Options) (*Content, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && contentExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no content files found in %s", dir)
	}

	paths := make([]string, 0, len(names))
	for _, n := range sortedContentFiles(names) {
		paths = append(paths, filepath.Join(dir, n))
	}
	return LoadFiles(paths, opts)
}

// LoadFiles reads the given files in order.
func LoadFiles(paths []string, opts Options) (*Content, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var docs []document
	for _, p := range paths {
		doc, err := readFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	content, ve := compile(docs)
	content.Files = append([]string(nil), paths...)
	validate(content, opts.Actions, ve)

	for _, w := range ve.Warnings {
		logger.Warn("content warning", "warning", w)
	}
	for _, e := range ve.Errors {
		logger.Error("content error", "error", e)
	}
	logger.Info("content loaded",
		"files", len(paths),
		"rules", len(content.Rules),
		"locations", len(content.Defs.Locations),
		"errors", len(ve.Errors),
		"warnings", len(ve.Warnings))

	content.Problems = ve
	if opts.Strict && ve.HasErrors() {
		return nil, ve
	}
	return content, nil
}

func readFile(path string) (document, error) {
	source := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".lua" {
		doc, err := runLua(path)
		if err != nil {
			return document{}, fmt.Errorf("executing %s: %w", source, err)
		}
		doc.source = source
		return doc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return document{}, fmt.Errorf("reading %s: %w", source, err)
	}
	doc, err := parse(ext, data)
	if err != nil {
		return document{}, fmt.Errorf("parsing %s: %w", source, err)
	}
	doc.source = source
	return doc, nil
}

// parse decodes JSON or YAML content by file extension.
func parse(ext string, data []byte) (document, error) {
	var v any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &v); err != nil {
			return document{}, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return document{}, err
		}
	default:
		return document{}, fmt.Errorf("unsupported content format %q", ext)
	}
	return split(v)
}

// split recognizes the three file shapes: a single rule object, an array of
// rules, or a wrapper with Rules, Locations and Title.
func split(v any) (document, error) {
	switch val := v.(type) {
	case nil:
		return document{}, nil
	case []any:
		return document{rules: val}, nil
	case map[string]any:
		if hasKey(val, "Rules") || hasKey(val, "Locations") || hasKey(val, "Title") {
			var doc document
			if t, ok := lookup(val, "Title").(string); ok {
				doc.title = t
			}
			rules, err := list(lookup(val, "Rules"), "Rules")
			if err != nil {
				return document{}, err
			}
			locs, err := list(lookup(val, "Locations"), "Locations")
			if err != nil {
				return document{}, err
			}
			doc.rules, doc.locations = rules, locs
			return doc, nil
		}
		if hasKey(val, "Triggers") || hasKey(val, "CustomActions") {
			return document{rules: []any{val}}, nil
		}
		return document{}, fmt.Errorf("unrecognized document: want a rule, a list of rules or {Rules, Locations}")
	default:
		return document{}, fmt.Errorf("unrecognized document of type %T", v)
	}
}

func list(v any, key string) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return val, nil
	case map[string]any:
		// An empty Lua table or a single object.
		if len(val) == 0 {
			return nil, nil
		}
		return []any{val}, nil
	default:
		return nil, fmt.Errorf("%s must be a list, got %T", key, v)
	}
}

// lookup finds key in m case-insensitively.
func lookup(m map[string]any, key string) any {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func hasKey(m map[string]any, key string) bool {
	for k := range m {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// sortedContentFiles puts world.* first, then the rest alphabetically.
func sortedContentFiles(names []string) []string {
	sorted := append([]string(nil), names...)
	isWorld := func(n string) bool {
		return strings.EqualFold(strings.TrimSuffix(n, filepath.Ext(n)), "world")
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		wi, wj := isWorld(sorted[i]), isWorld(sorted[j])
		if wi != wj {
			return wi
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
