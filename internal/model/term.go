package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Term is a single keyword entry of a rule. It is either a Literal or a
// Modified term; no other implementations exist.
type Term interface {
	// Text returns the raw keyword text.
	Text() string
	isTerm()
}

// Literal is a plain keyword, matched as an escaped literal.
type Literal string

// Text returns the keyword text.
func (l Literal) Text() string { return string(l) }

func (Literal) isTerm() {}

// Modified is a keyword carrying pattern modifiers.
type Modified struct {
	Term         string
	WordBoundary bool
	StartsWith   bool
	EndsWith     bool
	Proximity    int // max words allowed between the words of Term; 0 = off
}

// Text returns the keyword text.
func (m Modified) Text() string { return m.Term }

func (Modified) isTerm() {}

// Modifier names accepted in rule files
const (
	ModifierWordBoundary = "word_boundary"
	ModifierStartsWith   = "starts_with"
	ModifierEndsWith     = "ends_with"
	ModifierProximity    = "proximity"
)

// Modifiers returns the modifier names set on the term, in canonical order.
func (m Modified) Modifiers() []string {
	var mods []string
	if m.WordBoundary {
		mods = append(mods, ModifierWordBoundary)
	}
	if m.StartsWith {
		mods = append(mods, ModifierStartsWith)
	}
	if m.EndsWith {
		mods = append(mods, ModifierEndsWith)
	}
	if m.Proximity > 0 {
		mods = append(mods, fmt.Sprintf("%s:%d", ModifierProximity, m.Proximity))
	}
	return mods
}

// Terms is an ordered keyword list with wire support for both term shapes.
type Terms []Term

// Texts returns the raw keyword texts in order.
func (t Terms) Texts() []string {
	out := make([]string, 0, len(t))
	for _, term := range t {
		out = append(out, term.Text())
	}
	return out
}

// termDoc is the mapping form of a modified term in rule files
type termDoc struct {
	Term      string   `json:"term" yaml:"term"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Proximity int      `json:"proximity,omitempty" yaml:"proximity,omitempty"`
}

func (d termDoc) toTerm() (Term, error) {
	m := Modified{Term: d.Term, Proximity: d.Proximity}
	for _, raw := range d.Modifiers {
		name, arg, hasArg := strings.Cut(strings.TrimSpace(raw), ":")
		switch strings.ToLower(name) {
		case ModifierWordBoundary:
			m.WordBoundary = true
		case ModifierStartsWith:
			m.StartsWith = true
		case ModifierEndsWith:
			m.EndsWith = true
		case ModifierProximity:
			if !hasArg {
				return nil, fmt.Errorf("modifier %q needs a distance (proximity:N)", raw)
			}
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid proximity distance %q", arg)
			}
			m.Proximity = n
		default:
			return nil, fmt.Errorf("unknown modifier %q", raw)
		}
	}
	if m.Proximity < 0 {
		return nil, fmt.Errorf("invalid proximity distance %d", m.Proximity)
	}
	return m, nil
}

func termToDoc(t Term) any {
	switch v := t.(type) {
	case Modified:
		d := termDoc{Term: v.Term}
		for _, mod := range v.Modifiers() {
			if !strings.HasPrefix(mod, ModifierProximity) {
				d.Modifiers = append(d.Modifiers, mod)
			}
		}
		d.Proximity = v.Proximity
		return d
	default:
		return t.Text()
	}
}

// UnmarshalYAML accepts a sequence of scalars and {term, modifiers} mappings.
func (t *Terms) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: keywords must be a list", node.Line)
	}

	terms := make(Terms, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			terms = append(terms, Literal(item.Value))
		case yaml.MappingNode:
			var d termDoc
			if err := item.Decode(&d); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			term, err := d.toTerm()
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			terms = append(terms, term)
		default:
			return fmt.Errorf("line %d: keyword must be a string or a mapping", item.Line)
		}
	}

	*t = terms
	return nil
}

// MarshalYAML writes literals as scalars and modified terms as mappings.
func (t Terms) MarshalYAML() (any, error) {
	out := make([]any, 0, len(t))
	for _, term := range t {
		out = append(out, termToDoc(term))
	}
	return out, nil
}

// UnmarshalJSON accepts an array of strings and {term, modifiers} objects.
func (t *Terms) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("keywords must be a list: %w", err)
	}

	terms := make(Terms, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			terms = append(terms, Literal(s))
			continue
		}
		var d termDoc
		if err := json.Unmarshal(item, &d); err != nil {
			return fmt.Errorf("keyword must be a string or an object: %w", err)
		}
		term, err := d.toTerm()
		if err != nil {
			return err
		}
		terms = append(terms, term)
	}

	*t = terms
	return nil
}

// MarshalJSON writes literals as strings and modified terms as objects.
func (t Terms) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(t))
	for _, term := range t {
		out = append(out, termToDoc(term))
	}
	return json.Marshal(out)
}
