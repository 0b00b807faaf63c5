// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate runs the local analysis path: per-slide rule
// extraction rolled up into a deck summary.
package aggregate

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/deckminer/internal/normalize"
	"github.com/pdiddy/deckminer/internal/rules"
	"github.com/pdiddy/deckminer/internal/slidetext"
	"github.com/pdiddy/deckminer/pkg/types"
)

// Opener loads a deck from a path. Implementations return an error when the
// file is missing or unreadable.
type Opener interface {
	Open(path string) (*types.Deck, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (*types.Deck, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (*types.Deck, error) { return f(path) }

// Aggregator analyzes decks with a rule registry.
type Aggregator struct {
	rules *rules.Registry
	now   func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the time source used for processed_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New returns an Aggregator using reg. A nil reg uses the built-in rules.
func New(reg *rules.Registry, opts ...Option) *Aggregator {
	if reg == nil {
		reg = rules.DefaultRegistry()
	}
	a := &Aggregator{rules: reg, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// ProcessFile opens and analyzes the deck at path. A deck that cannot be
// opened yields a result carrying only an ErrorRecord.
func (a *Aggregator) ProcessFile(opener Opener, path string) types.DeckResult {
	deck, err := opener.Open(path)
	if err != nil {
		return types.DeckResult{Failed: NewErrorRecord(path, err, a.now())}
	}
	return types.DeckResult{Local: a.AnalyzeDeck(deck)}
}

// AnalyzeDeck extracts facts from every slide in order and builds the deck
// summary.
func (a *Aggregator) AnalyzeDeck(deck *types.Deck) *types.LocalResult {
	result := &types.LocalResult{
		FileInfo: types.FileInfo{
			FileName:    deck.FileName,
			ProcessedAt: a.now(),
			SlideCount:  len(deck.Slides),
		},
		Slides: make([]types.SlideRecord, 0, len(deck.Slides)),
	}

	infos := make([]types.AnalyzedInfo, 0, len(deck.Slides))
	for i, slide := range deck.Slides {
		rec := a.AnalyzeSlide(i+1, slide)
		result.Slides = append(result.Slides, rec)
		infos = append(infos, rec.AnalyzedInfo)
	}
	result.Summary = Summarize(infos)
	return result
}

// AnalyzeSlide extracts the slide's text blocks and runs the rules over
// their newline-joined concatenation. n is the 1-based position of the
// slide in its deck.
func (a *Aggregator) AnalyzeSlide(n int, slide types.Slide) types.SlideRecord {
	texts := slidetext.SlideTexts(slide)
	combined := strings.Join(texts, "\n")
	return types.SlideRecord{
		SlideNumber:  n,
		RawTexts:     texts,
		AnalyzedInfo: a.rules.Analyze(combined),
		TextLength:   utf8.RuneCountInString(combined),
	}
}

// Summarize concatenates per-slide results in order and deduplicates each
// string category once at the end. Prices and quantities keep repeats.
func Summarize(infos []types.AnalyzedInfo) types.DeckSummary {
	var s types.DeckSummary
	s.AllPrices = []int{}
	s.AllQuantities = []int{}
	var companies, keywords, deadlines, dates, events, clients, novelties []string
	extra := make(map[string][]string)

	for _, info := range infos {
		s.AllPrices = append(s.AllPrices, info.Prices...)
		s.AllQuantities = append(s.AllQuantities, info.Quantities...)
		companies = append(companies, info.Companies...)
		keywords = append(keywords, info.Keywords...)
		deadlines = append(deadlines, info.Deadlines...)
		dates = append(dates, info.Dates...)
		events = append(events, info.EventTypes...)
		clients = append(clients, info.Clients...)
		novelties = append(novelties, info.Novelties...)
		for k, v := range info.Extra {
			extra[k] = append(extra[k], v...)
		}
	}

	s.AllCompanies = normalize.Dedupe(companies)
	s.AllKeywords = normalize.Dedupe(keywords)
	s.AllDeadlines = normalize.Dedupe(deadlines)
	s.AllDates = normalize.Dedupe(dates)
	s.AllEventTypes = normalize.Dedupe(events)
	s.AllClients = normalize.Dedupe(clients)
	s.AllNovelties = normalize.Dedupe(novelties)
	if len(extra) > 0 {
		s.AllExtra = make(map[string][]string, len(extra))
		for k, v := range extra {
			s.AllExtra[k] = normalize.Dedupe(v)
		}
	}
	return s
}

// DeckTexts returns every slide's text blocks in slide order, flattened.
func DeckTexts(deck *types.Deck) []string {
	var texts []string
	for _, slide := range deck.Slides {
		texts = append(texts, slidetext.SlideTexts(slide)...)
	}
	return texts
}

// NewErrorRecord describes a deck that could not be processed.
func NewErrorRecord(path string, err error, at time.Time) *types.ErrorRecord {
	return &types.ErrorRecord{
		Error:       err.Error(),
		FileName:    filepath.Base(path),
		ProcessedAt: at,
	}
}
