// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/deckminer/internal/normalize"
	"github.com/pdiddy/deckminer/pkg/types"
)

// candidate is a match tagged with the index of the rule that found it.
type candidate struct {
	Match
	rule int
}

// Analyze runs every category and the keyword vocabulary against text.
// Text is folded first: full-width digits and punctuation become ASCII and
// every space separator becomes ' ', so \s in a pattern sees NBSP too.
func (r *Registry) Analyze(text string) types.AnalyzedInfo {
	info := types.NewAnalyzedInfo()
	folded := normalize.FoldText(text)

	for _, c := range r.order {
		cands := findAll(c, folded)
		switch c.Kind {
		case KindNumber:
			assignNumbers(&info, c.Name, numbers(collapse(cands)))
		case KindDate:
			assignStrings(&info, c.Name, dates(collapse(cands)))
		default:
			assignStrings(&info, c.Name, cleanStrings(cands))
		}
	}

	for _, k := range r.keywords {
		if strings.Contains(folded, normalize.FoldText(k)) {
			info.Keywords = append(info.Keywords, k)
		}
	}
	return info
}

// findAll unions the matches of every rule in c. A rule that panics is
// skipped; the others still contribute.
func findAll(c *Category, text string) []candidate {
	var out []candidate
	for i, m := range c.Matchers {
		matches, err := safeFindAll(m, text)
		if err != nil {
			continue
		}
		for _, match := range matches {
			out = append(out, candidate{Match: match, rule: i})
		}
	}
	return out
}

func safeFindAll(m Matcher, text string) (matches []Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			matches, err = nil, fmt.Errorf("rule failed: %v", r)
		}
	}()
	return m.FindAll(text), nil
}

// collapse drops matches whose span lies inside an already accepted match,
// so one written value found by several rules counts once. Longer spans
// win; ties go to the earlier rule. Distinct occurrences of the same value
// at different positions are all kept. The result is in text order.
func collapse(cands []candidate) []candidate {
	sorted := append([]candidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := sorted[i].End-sorted[i].Start, sorted[j].End-sorted[j].Start
		if li != lj {
			return li > lj
		}
		if sorted[i].rule != sorted[j].rule {
			return sorted[i].rule < sorted[j].rule
		}
		return sorted[i].Start < sorted[j].Start
	})

	accepted := make([]candidate, 0, len(sorted))
	for _, c := range sorted {
		if within(c, accepted) {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Start != accepted[j].Start {
			return accepted[i].Start < accepted[j].Start
		}
		return accepted[i].rule < accepted[j].rule
	})
	return accepted
}

func within(c candidate, accepted []candidate) bool {
	for _, a := range accepted {
		if a.Start <= c.Start && c.End <= a.End {
			return true
		}
	}
	return false
}

func numbers(cands []candidate) []int {
	out := make([]int, 0, len(cands))
	for _, c := range cands {
		if len(c.Groups) == 0 {
			continue
		}
		if n, ok := normalize.Number(c.Groups[0]); ok {
			out = append(out, n)
		}
	}
	return out
}

func dates(cands []candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if d, ok := normalize.Date(c.Groups); ok {
			out = append(out, d)
		}
	}
	return normalize.Dedupe(out)
}

func cleanStrings(cands []candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if s := normalize.String(c.Groups); s != "" {
			out = append(out, s)
		}
	}
	return normalize.Dedupe(out)
}

func assignNumbers(info *types.AnalyzedInfo, category string, vals []int) {
	switch category {
	case CategoryPrice:
		info.Prices = append(info.Prices, vals...)
	case CategoryQuantity:
		info.Quantities = append(info.Quantities, vals...)
	default:
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = strconv.Itoa(v)
		}
		assignExtra(info, category, strs)
	}
}

func assignStrings(info *types.AnalyzedInfo, category string, vals []string) {
	switch category {
	case CategoryDeadline:
		info.Deadlines = append(info.Deadlines, vals...)
	case CategoryCompany:
		info.Companies = append(info.Companies, vals...)
	case CategoryDate:
		info.Dates = append(info.Dates, vals...)
	case CategoryEventType:
		info.EventTypes = append(info.EventTypes, vals...)
	case CategoryClient:
		info.Clients = append(info.Clients, vals...)
	case CategoryNovelty:
		info.Novelties = append(info.Novelties, vals...)
	default:
		assignExtra(info, category, vals)
	}
}

func assignExtra(info *types.AnalyzedInfo, category string, vals []string) {
	if len(vals) == 0 {
		return
	}
	if info.Extra == nil {
		info.Extra = make(map[string][]string)
	}
	info.Extra[category] = append(info.Extra[category], vals...)
}
