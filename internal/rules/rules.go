// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rules implements the pattern rule engine: a registry of named
// extraction categories, each owning an ordered list of matchers whose
// results are unioned and normalized into types.AnalyzedInfo.
package rules

import (
	"fmt"
	"regexp"
)

// Kind selects how a category's captures are normalized.
type Kind string

const (
	// KindString values are cleaned strings with set semantics.
	KindString Kind = "string"
	// KindNumber values are integers in [1, 1e9]; repeats are kept.
	KindNumber Kind = "number"
	// KindDate values are YYYY/MM/DD strings with set semantics.
	KindDate Kind = "date"
)

// ParseKind converts a kind name from a rule file.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindString, KindNumber, KindDate:
		return k, nil
	case "":
		return KindString, nil
	}
	return "", fmt.Errorf("unknown rule kind %q", s)
}

// Match is one occurrence found by a Matcher. Start and End bound the
// captured value within the searched text; Groups holds the capture
// groups in order (the whole match when the rule has no groups).
type Match struct {
	Start, End int
	Groups     []string
}

// Matcher finds every occurrence of one extraction rule in a text.
type Matcher interface {
	FindAll(text string) []Match
}

// Pattern is a Matcher backed by a compiled regular expression. Patterns
// are always case-insensitive and multi-line.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// Compile builds a Pattern from expr.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile("(?im)" + expr)
	if err != nil {
		return nil, fmt.Errorf("compiling rule %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// String returns the source expression.
func (p *Pattern) String() string { return p.expr }

// FindAll implements Matcher.
func (p *Pattern) FindAll(text string) []Match {
	locs := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, toMatch(text, loc))
	}
	return matches
}

// toMatch converts a submatch index slice. The span covers all
// participating groups so that two rules capturing the same value at the
// same place produce the same span.
func toMatch(text string, loc []int) Match {
	if len(loc) == 2 {
		return Match{Start: loc[0], End: loc[1], Groups: []string{text[loc[0]:loc[1]]}}
	}
	m := Match{Start: -1, End: -1, Groups: make([]string, 0, len(loc)/2-1)}
	for i := 2; i+1 < len(loc); i += 2 {
		start, end := loc[i], loc[i+1]
		if start < 0 {
			m.Groups = append(m.Groups, "")
			continue
		}
		m.Groups = append(m.Groups, text[start:end])
		if m.Start < 0 || start < m.Start {
			m.Start = start
		}
		if end > m.End {
			m.End = end
		}
	}
	if m.Start < 0 {
		m.Start, m.End = loc[0], loc[1]
	}
	return m
}

// Category is a named group of rules sharing one normalization kind.
type Category struct {
	Name     string
	Kind     Kind
	Matchers []Matcher
}
