// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/deckminer/internal/normalize"
	"github.com/pdiddy/deckminer/pkg/types"
)

// List caps for the analysis record.
const (
	maxPartnerCompanies = 5
	maxNoveltyItems     = 5
	maxKeywords         = 10
)

var (
	fenceRe  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")
	digitsRe = regexp.MustCompile(`\d[\d,，]*`)
)

// extractPayload picks the JSON document out of a model response: the
// first fenced block if any, narrowed to its outermost object when the
// block carries surrounding prose.
func extractPayload(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if json.Valid([]byte(text)) {
		return text
	}
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		return text[i : j+1]
	}
	return text
}

// parseAnalysis decodes a response into a RemoteAnalysis, coercing loosely
// typed values (numbers as strings, scalars where lists are expected).
func parseAnalysis(text string) (types.RemoteAnalysis, error) {
	dec := json.NewDecoder(strings.NewReader(extractPayload(text)))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return types.RemoteAnalysis{}, fmt.Errorf("parsing response JSON: %w", err)
	}
	if raw == nil {
		return types.RemoteAnalysis{}, errors.New("response JSON is not an object")
	}

	a := types.EmptyRemoteAnalysis()
	a.ClientName = stringValue(raw["client_name"])
	a.EventDate = stringValue(raw["event_date"])
	a.EventType = stringValue(raw["event_type"])
	a.EventDescription = stringValue(raw["event_description"])
	a.UnitPrice = intValue(raw["unit_price"])
	a.TotalCost = intValue(raw["total_cost"])
	a.OrderQuantity = intValue(raw["order_quantity"])
	a.TargetCount = intValue(raw["target_count"])
	a.Deadline = stringValue(raw["deadline"])
	a.Venue = stringValue(raw["venue"])
	a.PartnerCompanies = listValue(raw["partner_companies"], maxPartnerCompanies)
	a.NoveltyItems = listValue(raw["novelty_items"], maxNoveltyItems)
	a.Keywords = listValue(raw["keywords"], maxKeywords)
	a.ConfidenceScore = Confidence(a)
	return a, nil
}

func stringValue(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case []any:
		parts := listValue(t, 0)
		s = strings.Join(parts, "、")
	default:
		return nil
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func intValue(v any) *int64 {
	var n int64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			n = i
		} else if f, err := t.Float64(); err == nil {
			n = int64(math.Round(f))
		}
	case string:
		m := digitsRe.FindString(t)
		if m == "" {
			return nil
		}
		parsed, ok := normalize.Number(m)
		if !ok {
			return nil
		}
		n = int64(parsed)
	default:
		return nil
	}
	if n < normalize.MinNumber || n > normalize.MaxNumber {
		return nil
	}
	return &n
}

// listValue returns the non-empty strings of v, deduplicated and capped at
// limit (0 means no cap). A scalar becomes a one-element list. The result
// is never nil.
func listValue(v any, limit int) []string {
	var items []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := stringValue(item); s != nil {
				items = append(items, *s)
			}
		}
	default:
		if s := stringValue(t); s != nil {
			items = append(items, *s)
		}
	}
	items = normalize.Dedupe(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Confidence scores how complete an analysis is. Each present field adds
// its weight; the total is capped at 100.
func Confidence(a types.RemoteAnalysis) int {
	score := 0
	add := func(present bool, weight int) {
		if present {
			score += weight
		}
	}
	add(a.ClientName != nil && *a.ClientName != "", 15)
	add(a.EventDate != nil && *a.EventDate != "", 15)
	add(a.EventType != nil && *a.EventType != "", 10)
	add(a.EventDescription != nil && *a.EventDescription != "", 10)
	add(a.UnitPrice != nil && *a.UnitPrice != 0, 10)
	add(a.TotalCost != nil && *a.TotalCost != 0, 10)
	add(a.OrderQuantity != nil && *a.OrderQuantity != 0, 5)
	add(a.Deadline != nil && *a.Deadline != "", 5)
	add(len(a.PartnerCompanies) > 0, 10)
	add(len(a.NoveltyItems) > 0, 5)
	add(len(a.Keywords) > 0, 5)
	return min(score, 100)
}
