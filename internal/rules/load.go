// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// RuleFile is the YAML layout of a custom rule file.
//
//	keywords: [限定, 先着]
//	categories:
//	  - name: venue
//	    kind: string
//	    patterns:
//	      - '会場[\s:：]*([^\s、。\n]+)'
type RuleFile struct {
	Keywords   []string       `yaml:"keywords"`
	Categories []CategorySpec `yaml:"categories"`
}

// CategorySpec declares rules for one category. Rules for an existing
// category are appended to it.
type CategorySpec struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Patterns []string `yaml:"patterns"`
}

// LoadFile reads a rule file and merges it into r.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading rule file: %w", err)
	}
	return r.LoadYAML(data)
}

// LoadYAML merges the rules in data into r. Invalid patterns are skipped
// (see Skipped); structural problems such as a missing name or a kind
// conflict are returned as errors.
func (r *Registry) LoadYAML(data []byte) error {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("parsing rule file: %w", err)
	}
	for i, spec := range rf.Categories {
		if spec.Name == "" {
			return fmt.Errorf("category %d: missing name", i)
		}
		kind, err := ParseKind(spec.Kind)
		if err != nil {
			return fmt.Errorf("category %q: %w", spec.Name, err)
		}
		if err := r.RegisterPatterns(spec.Name, kind, spec.Patterns...); err != nil {
			return err
		}
	}
	r.AddKeywords(rf.Keywords...)
	return nil
}
