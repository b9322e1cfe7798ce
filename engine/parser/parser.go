// Package parser converts trigger pattern strings and console lines into
// structured values. Intentionally simple: separators, globs and double
// quotes, nothing more.
package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Esca-MMC/FarmTypeManager-sub001/types"
)

var (
	ErrEmptyPattern = errors.New("empty trigger pattern")
	ErrBadPattern   = errors.New("malformed trigger pattern")
	ErrEmptyLine    = errors.New("empty trigger line")
)

// Pattern is a parsed Triggers string.
type Pattern struct {
	Raw     string
	Include []string // lowercased globs
	Exclude []string // lowercased globs, written with a leading "!"

	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// isPatternSep reports whether r separates entries of a Triggers string.
func isPatternSep(r rune) bool {
	switch r {
	case ',', '|', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// ParsePattern parses a Triggers string such as "dayStarted, itemUsed" or
// "location*|!locationChanged". Matching is case-insensitive. A pattern made
// only of exclusions matches every trigger not excluded.
func ParsePattern(s string) (Pattern, error) {
	p := Pattern{Raw: s}
	for _, tok := range strings.FieldsFunc(s, isPatternSep) {
		exclude := strings.HasPrefix(tok, "!")
		glob := strings.ToLower(strings.TrimPrefix(tok, "!"))
		if glob == "" {
			return Pattern{}, fmt.Errorf("%w: %q has an empty exclusion", ErrBadPattern, s)
		}
		re, err := compileGlob(glob)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: %q: %v", ErrBadPattern, tok, err)
		}
		if exclude {
			p.Exclude = append(p.Exclude, glob)
			p.exclude = append(p.exclude, re)
		} else {
			p.Include = append(p.Include, glob)
			p.include = append(p.include, re)
		}
	}
	if len(p.Include) == 0 && len(p.Exclude) == 0 {
		return Pattern{}, ErrEmptyPattern
	}
	return p, nil
}

// Match reports whether trigger is selected by the pattern.
func (p Pattern) Match(trigger string) bool {
	name := strings.ToLower(trigger)
	for _, re := range p.exclude {
		if re.MatchString(name) {
			return false
		}
	}
	if len(p.include) == 0 {
		return true
	}
	for _, re := range p.include {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// compileGlob turns a glob into an anchored regexp. "*" matches any run of
// characters, "/" included, "?" any single character, "[...]" a class
// ("[^...]" or "[!...]" negated) and "\" escapes the next character.
func compileGlob(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`^(?s:`)
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			if i+1 >= len(runes) {
				return nil, errors.New("trailing escape")
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		case '[':
			end := i + 1
			if end < len(runes) && (runes[end] == '^' || runes[end] == '!') {
				end++
			}
			if end < len(runes) && runes[end] == ']' {
				end++
			}
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				return nil, errors.New("unterminated character class")
			}
			class := runes[i+1 : end]
			b.WriteByte('[')
			if len(class) > 0 && class[0] == '!' {
				b.WriteByte('^')
				class = class[1:]
			}
			for _, c := range class {
				if c == '[' || c == '\\' {
					b.WriteByte('\\')
				}
				b.WriteRune(c)
			}
			b.WriteByte(']')
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`)$`)
	return regexp.Compile(b.String())
}

func (p Pattern) String() string {
	return p.Raw
}

// ParseLine parses a console line into a trigger context:
//
//	dayStarted 3 "rainy day" @Farm actor=Player item=(O)388:5 input=(O)390
//
// The first word is the trigger name. "@Name" sets the location; actor=,
// item= and input= set the actor and the two item references (an item may
// carry ":stack"). Every other word is an argument: integers, floats and
// booleans are converted, quoted words stay strings. Args is never nil.
func ParseLine(input string) (types.TriggerContext, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return types.TriggerContext{}, err
	}
	if len(tokens) == 0 {
		return types.TriggerContext{}, ErrEmptyLine
	}
	if tokens[0].quoted || strings.HasPrefix(tokens[0].text, "@") {
		return types.TriggerContext{}, fmt.Errorf("line must start with a trigger name, got %q", tokens[0].text)
	}

	tc := types.TriggerContext{Trigger: tokens[0].text, Args: []any{}}
	for _, tok := range tokens[1:] {
		if tok.quoted {
			tc.Args = append(tc.Args, tok.text)
			continue
		}
		if loc, ok := strings.CutPrefix(tok.text, "@"); ok && loc != "" {
			tc.Location = loc
			continue
		}
		if key, val, ok := strings.Cut(tok.text, "="); ok {
			switch strings.ToLower(key) {
			case "actor":
				tc.Actor = val
				continue
			case "item", "target":
				tc.TargetItem, err = parseItem(val)
				if err != nil {
					return types.TriggerContext{}, err
				}
				continue
			case "input":
				tc.InputItem, err = parseItem(val)
				if err != nil {
					return types.TriggerContext{}, err
				}
				continue
			}
		}
		tc.Args = append(tc.Args, convertArg(tok.text))
	}
	return tc, nil
}

// parseItem parses "id" or "id:stack".
func parseItem(s string) (*types.Item, error) {
	id, stack, hasStack := strings.Cut(s, ":")
	if id == "" {
		return nil, fmt.Errorf("item %q: empty id", s)
	}
	it := &types.Item{ID: id, Stack: 1}
	if hasStack {
		n, err := strconv.Atoi(stack)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("item %q: bad stack %q", s, stack)
		}
		it.Stack = n
	}
	return it, nil
}

// convertArg turns an unquoted word into an int, float64, bool or string.
func convertArg(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

type token struct {
	text   string
	quoted bool
}

// tokenize splits on whitespace, keeping double-quoted runs together.
func tokenize(input string) ([]token, error) {
	var (
		tokens []token
		cur    strings.Builder
		inWord bool
		quoted bool
	)
	flush := func() {
		if inWord {
			tokens = append(tokens, token{text: cur.String(), quoted: quoted})
		}
		cur.Reset()
		inWord, quoted = false, false
	}

	inQuote := false
	for _, r := range input {
		switch {
		case r == '"':
			if inQuote {
				inQuote = false
				flush()
				continue
			}
			flush()
			inQuote, inWord, quoted = true, true, true
		case inQuote:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			inWord = true
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", input)
	}
	flush()
	return tokens, nil
}
