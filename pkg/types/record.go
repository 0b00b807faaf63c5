// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"time"
)

// MethodLocal names the local rule-engine path in batch summaries. Remote
// results record "<provider>_api".
const MethodLocal = "local_regex"

// AnalyzedInfo holds the facts extracted from one text unit (a slide or a
// whole deck). Every list is non-nil so it marshals as [] rather than null.
type AnalyzedInfo struct {
	Prices     []int    `json:"prices" yaml:"prices"`
	Quantities []int    `json:"quantities" yaml:"quantities"`
	Deadlines  []string `json:"deadlines" yaml:"deadlines"`
	Companies  []string `json:"companies" yaml:"companies"`
	Dates      []string `json:"dates" yaml:"dates"`
	EventTypes []string `json:"event_types" yaml:"event_types"`
	Clients    []string `json:"clients" yaml:"clients"`
	Novelties  []string `json:"novelties" yaml:"novelties"`
	Keywords   []string `json:"keywords" yaml:"keywords"`

	// Extra holds values for categories registered at runtime (custom
	// rule files). Keyed by category name.
	Extra map[string][]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NewAnalyzedInfo returns an AnalyzedInfo with every list initialized empty.
func NewAnalyzedInfo() AnalyzedInfo {
	return AnalyzedInfo{
		Prices:     []int{},
		Quantities: []int{},
		Deadlines:  []string{},
		Companies:  []string{},
		Dates:      []string{},
		EventTypes: []string{},
		Clients:    []string{},
		Novelties:  []string{},
		Keywords:   []string{},
	}
}

// DeckSummary is the deck-level roll-up of AnalyzedInfo.
type DeckSummary struct {
	AllPrices     []int    `json:"all_prices" yaml:"all_prices"`
	AllQuantities []int    `json:"all_quantities" yaml:"all_quantities"`
	AllCompanies  []string `json:"all_companies" yaml:"all_companies"`
	AllKeywords   []string `json:"all_keywords" yaml:"all_keywords"`
	AllDeadlines  []string `json:"all_deadlines" yaml:"all_deadlines"`
	AllDates      []string `json:"all_dates" yaml:"all_dates"`
	AllEventTypes []string `json:"all_event_types" yaml:"all_event_types"`
	AllClients    []string `json:"all_clients" yaml:"all_clients"`
	AllNovelties  []string `json:"all_novelties" yaml:"all_novelties"`

	AllExtra map[string][]string `json:"all_extra,omitempty" yaml:"all_extra,omitempty"`
}

// SlideRecord is the per-slide output of local analysis.
type SlideRecord struct {
	SlideNumber  int          `json:"slide_number" yaml:"slide_number"`
	RawTexts     []string     `json:"raw_texts" yaml:"raw_texts"`
	AnalyzedInfo AnalyzedInfo `json:"analyzed_info" yaml:"analyzed_info"`

	// TextLength is the number of characters (runes) across RawTexts.
	TextLength int `json:"text_length" yaml:"text_length"`
}

// FileInfo identifies the processed deck.
type FileInfo struct {
	FileName         string    `json:"file_name" yaml:"file_name"`
	ProcessedAt      time.Time `json:"processed_at" yaml:"processed_at"`
	SlideCount       int       `json:"slide_count" yaml:"slide_count"`
	ProcessingMethod string    `json:"processing_method,omitempty" yaml:"processing_method,omitempty"`
}

// LocalResult is the result of analyzing a deck with the local rule engine.
type LocalResult struct {
	FileInfo FileInfo      `json:"file_info" yaml:"file_info"`
	Slides   []SlideRecord `json:"slides" yaml:"slides"`
	Summary  DeckSummary   `json:"summary" yaml:"summary"`
}

// RemoteAnalysis is the structured record produced by a completion
// service. Scalar fields are pointers so absent values marshal as null.
type RemoteAnalysis struct {
	ClientName       *string  `json:"client_name" yaml:"client_name"`
	EventDate        *string  `json:"event_date" yaml:"event_date"`
	EventType        *string  `json:"event_type" yaml:"event_type"`
	EventDescription *string  `json:"event_description" yaml:"event_description"`
	NoveltyItems     []string `json:"novelty_items" yaml:"novelty_items"`
	UnitPrice        *int64   `json:"unit_price" yaml:"unit_price"`
	TotalCost        *int64   `json:"total_cost" yaml:"total_cost"`
	OrderQuantity    *int64   `json:"order_quantity" yaml:"order_quantity"`
	TargetCount      *int64   `json:"target_count" yaml:"target_count"`
	Deadline         *string  `json:"deadline" yaml:"deadline"`
	PartnerCompanies []string `json:"partner_companies" yaml:"partner_companies"`
	Venue            *string  `json:"venue" yaml:"venue"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
	ConfidenceScore  int      `json:"confidence_score" yaml:"confidence_score"`
}

// EmptyRemoteAnalysis returns the record used when the service response
// cannot be used: all scalars null, all lists empty, confidence 0.
func EmptyRemoteAnalysis() RemoteAnalysis {
	return RemoteAnalysis{
		NoveltyItems:     []string{},
		PartnerCompanies: []string{},
		Keywords:         []string{},
	}
}

// RemoteResult is the result of analyzing a deck with a completion service.
type RemoteResult struct {
	FileInfo         FileInfo       `json:"file_info" yaml:"file_info"`
	Analysis         RemoteAnalysis `json:"gemini_analysis" yaml:"gemini_analysis"`
	SlideTextsSample string         `json:"slide_texts_sample" yaml:"slide_texts_sample"`
}

// ErrorRecord describes a deck that could not be processed.
type ErrorRecord struct {
	Error       string    `json:"error" yaml:"error"`
	FileName    string    `json:"file_name" yaml:"file_name"`
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// DeckResult is the outcome of processing one deck. Exactly one of Local,
// Remote and Failed is set.
type DeckResult struct {
	Local  *LocalResult
	Remote *RemoteResult
	Failed *ErrorRecord
}

// FileName returns the name of the deck the result belongs to.
func (r DeckResult) FileName() string {
	switch {
	case r.Local != nil:
		return r.Local.FileInfo.FileName
	case r.Remote != nil:
		return r.Remote.FileInfo.FileName
	case r.Failed != nil:
		return r.Failed.FileName
	}
	return ""
}

// OK reports whether the deck was processed successfully.
func (r DeckResult) OK() bool {
	return r.Failed == nil && (r.Local != nil || r.Remote != nil)
}

// MarshalJSON writes whichever variant is set, so a DeckResult serializes
// to exactly the same document as the record it wraps.
func (r DeckResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Local != nil:
		return json.Marshal(r.Local)
	case r.Remote != nil:
		return json.Marshal(r.Remote)
	case r.Failed != nil:
		return json.Marshal(r.Failed)
	}
	return []byte("null"), nil
}

// UnmarshalJSON detects the variant from its distinguishing key: "error"
// for failures, "gemini_analysis" for remote results, otherwise local.
func (r *DeckResult) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*r = DeckResult{}
	switch {
	case probe["error"] != nil:
		r.Failed = &ErrorRecord{}
		return json.Unmarshal(data, r.Failed)
	case probe["gemini_analysis"] != nil:
		r.Remote = &RemoteResult{}
		return json.Unmarshal(data, r.Remote)
	case probe["file_info"] != nil:
		r.Local = &LocalResult{}
		return json.Unmarshal(data, r.Local)
	}
	return errors.New("not a deck result: missing file_info or error")
}
