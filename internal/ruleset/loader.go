// Package ruleset loads keyword rules and keeps the compiled rule set fresh.
package ruleset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/keywatch/internal/model"
)

// Loader supplies the current rule definitions
type Loader interface {
	Load(ctx context.Context) ([]model.KeywordRule, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context) ([]model.KeywordRule, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context) ([]model.KeywordRule, error) { return f(ctx) }

// Static returns a loader that always yields rules
func Static(rules []model.KeywordRule) Loader {
	return LoaderFunc(func(context.Context) ([]model.KeywordRule, error) {
		return rules, nil
	})
}

// FileLoader reads rules from a YAML or JSON file
type FileLoader struct {
	Path string
}

// Load reads and parses the rule file
func (l FileLoader) Load(ctx context.Context) ([]model.KeywordRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rules, err := Parse(data, formatOf(l.Path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.Path, err)
	}
	return rules, nil
}

// Rule file formats
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

type ruleFile struct {
	Rules []model.KeywordRule `json:"rules" yaml:"rules"`
}

// Parse decodes a rule document: either {rules: [...]} or a bare list
func Parse(data []byte, format string) ([]model.KeywordRule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '[' {
			var rules []model.KeywordRule
			if err := json.Unmarshal(trimmed, &rules); err != nil {
				return nil, err
			}
			return rules, nil
		}
		var f ruleFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, err
		}
		return f.Rules, nil

	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			var rules []model.KeywordRule
			if err := node.Decode(&rules); err != nil {
				return nil, err
			}
			return rules, nil
		}
		var f ruleFile
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f.Rules, nil

	default:
		return nil, fmt.Errorf("unknown rule format %q", format)
	}
}

// HighPriorityKeywords returns the keywords of enabled rules with priority
// of at least high that apply to platform, highest priority first. limit
// <= 0 means 50.
func HighPriorityKeywords(rules []model.KeywordRule, platform string, limit int) []string {
	if limit <= 0 {
		limit = 50
	}

	var selected []model.KeywordRule
	for _, r := range rules {
		if r.Disabled || r.Priority < model.PriorityHigh || !r.AppliesTo(platform) {
			continue
		}
		selected = append(selected, r)
	}
	sortByPriority(selected)

	seen := make(map[string]struct{})
	var out []string
	for _, r := range selected {
		for _, term := range r.Keywords {
			kw := term.Text()
			if _, dup := seen[kw]; dup || kw == "" {
				continue
			}
			seen[kw] = struct{}{}
			out = append(out, kw)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
