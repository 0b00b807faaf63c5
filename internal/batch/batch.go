// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives local or remote analysis over many decks: it finds
// the decks, processes them in order, writes one result document per deck
// and a batch summary, and stops early when the remote quota runs out.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/deckminer/internal/aggregate"
	"github.com/pdiddy/deckminer/internal/logging"
	"github.com/pdiddy/deckminer/internal/markdown"
	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/pkg/types"
)

// Summary file names written into the summary directory.
const (
	SummaryFile       = "_batch_summary.json"
	RemoteSummaryFile = "_batch_summary_gemini.json"
)

const (
	deckExt      = ".pptx"
	lockPrefix   = "~$"
	statusOK     = "success"
	statusFailed = "error"
)

// Processor analyzes one deck. Per-deck failures come back as a
// DeckResult carrying an ErrorRecord; an error return stops the run.
type Processor interface {
	Process(ctx context.Context, path string) (types.DeckResult, error)
	Method() string
}

type localProcessor struct {
	agg    *aggregate.Aggregator
	opener aggregate.Opener
}

// Local returns a Processor for the rule-engine path.
func Local(agg *aggregate.Aggregator, opener aggregate.Opener) Processor {
	return localProcessor{agg: agg, opener: opener}
}

func (p localProcessor) Process(_ context.Context, path string) (types.DeckResult, error) {
	return p.agg.ProcessFile(p.opener, path), nil
}

func (p localProcessor) Method() string { return types.MethodLocal }

type remoteProcessor struct {
	adapter *remote.Adapter
	opener  aggregate.Opener
}

// Remote returns a Processor for the completion-service path.
func Remote(adapter *remote.Adapter, opener aggregate.Opener) Processor {
	return remoteProcessor{adapter: adapter, opener: opener}
}

func (p remoteProcessor) Process(ctx context.Context, path string) (types.DeckResult, error) {
	return p.adapter.ProcessFile(ctx, p.opener, path)
}

func (p remoteProcessor) Method() string { return p.adapter.Method() }

// Entry is one deck's line in the batch summary.
type Entry struct {
	File       string `json:"file"`
	Output     string `json:"output,omitempty"`
	Markdown   string `json:"markdown,omitempty"`
	Slides     int    `json:"slides,omitempty"`
	Confidence *int   `json:"confidence,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Summary holds counts and per-deck entries from a batch run.
type Summary struct {
	RunID             string    `json:"run_id"`
	ProcessingMethod  string    `json:"processing_method"`
	StartedAt         time.Time `json:"started_at"`
	Files             int       `json:"total"`
	Success           int       `json:"success"`
	Errors            int       `json:"errors"`
	Skipped           int       `json:"skipped"`
	AverageConfidence *float64  `json:"average_confidence,omitempty"`
	QuotaExceeded     bool      `json:"quota_exceeded,omitempty"`
	Results           []Entry   `json:"results"`
}

// Total returns the number of decks the run covered, processed or not.
func (s Summary) Total() int {
	return s.Success + s.Errors + s.Skipped
}

// HasFailures reports whether any deck failed.
func (s Summary) HasFailures() bool {
	return s.Errors > 0
}

// Options configures a Runner.
type Options struct {
	// OutDir receives per-deck result files. Empty writes each result next
	// to its deck.
	OutDir string

	// SummaryDir receives the batch summary. Empty uses OutDir, then the
	// current directory.
	SummaryDir string

	// Markdown also writes a Markdown document per successful deck.
	Markdown bool

	Now    func() time.Time
	Logger *zap.Logger
}

// Runner processes decks one at a time.
type Runner struct {
	proc   Processor
	opts   Options
	logger *zap.Logger
}

// NewRunner returns a Runner that analyzes decks with proc.
func NewRunner(proc Processor, opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{proc: proc, opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Run processes paths in order, printing per-deck status to w. The summary
// is written even when the run stops early. A remote quota halt is not an
// error: the remaining decks are counted as skipped and QuotaExceeded is
// set. Any other processor error is returned after the summary is written.
func (r *Runner) Run(ctx context.Context, paths []string, w io.Writer) (Summary, error) {
	started := r.opts.Now()
	summary := Summary{
		RunID:            ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()).String(),
		ProcessingMethod: r.proc.Method(),
		StartedAt:        started,
		Files:            len(paths),
		Results:          []Entry{},
	}
	logger := r.logger.With(zap.String("run_id", summary.RunID))

	var runErr error
	var confidences []int
	for i, path := range paths {
		name := filepath.Base(path)
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(paths), name)

		res, err := r.proc.Process(ctx, path)
		if err != nil {
			summary.Skipped = len(paths) - i
			if errors.Is(err, remote.ErrQuotaExceeded) {
				summary.QuotaExceeded = true
				fmt.Fprintf(w, "stopped: %v (%d processed, %d not processed)\n", err, i, summary.Skipped)
				logger.Warn("batch halted on quota", zap.Int("processed", i), zap.Int("skipped", summary.Skipped))
			} else {
				runErr = fmt.Errorf("processing %s: %w", name, err)
			}
			break
		}

		entry := r.record(path, res, w)
		if entry.Confidence != nil {
			confidences = append(confidences, *entry.Confidence)
		}
		summary.Results = append(summary.Results, entry)
		if entry.Status == statusOK {
			summary.Success++
		} else {
			summary.Errors++
		}
	}

	if len(confidences) > 0 {
		sum := 0
		for _, c := range confidences {
			sum += c
		}
		avg := float64(sum) / float64(len(confidences))
		summary.AverageConfidence = &avg
	}

	fmt.Fprintf(w, "\nBatch summary: %d succeeded, %d failed, %d skipped (total: %d)\n",
		summary.Success, summary.Errors, summary.Skipped, summary.Total())
	if summary.AverageConfidence != nil {
		fmt.Fprintf(w, "Average confidence: %.1f%%\n", *summary.AverageConfidence)
	}

	summaryPath, err := r.writeSummary(summary)
	if err != nil {
		return summary, errors.Join(runErr, err)
	}
	fmt.Fprintf(w, "Summary saved to: %s\n", summaryPath)
	logger.Info("batch complete",
		zap.Int("success", summary.Success),
		zap.Int("errors", summary.Errors),
		zap.Int("skipped", summary.Skipped))
	return summary, runErr
}

// record writes the result documents for one deck and returns its entry.
func (r *Runner) record(path string, res types.DeckResult, w io.Writer) Entry {
	entry := Entry{File: filepath.Base(path), Status: statusOK}
	if res.Failed != nil {
		entry.Status = statusFailed
		entry.Error = res.Failed.Error
		fmt.Fprintf(w, "  failed:  %s\n", res.Failed.Error)
		return entry
	}

	dir := r.outDir(path)
	outPath := filepath.Join(dir, markdown.OutputName(entry.File, ".json"))
	if err := WriteJSON(outPath, res); err != nil {
		entry.Status = statusFailed
		entry.Error = err.Error()
		fmt.Fprintf(w, "  failed:  %v\n", err)
		return entry
	}
	entry.Output = filepath.Base(outPath)

	switch {
	case res.Local != nil:
		entry.Slides = res.Local.FileInfo.SlideCount
		s := res.Local.Summary
		fmt.Fprintf(w, "  analyzed: %s (%d slides, %d prices, %d companies, %d keywords)\n",
			entry.Output, entry.Slides, len(s.AllPrices), len(s.AllCompanies), len(s.AllKeywords))
	case res.Remote != nil:
		entry.Slides = res.Remote.FileInfo.SlideCount
		c := res.Remote.Analysis.ConfidenceScore
		entry.Confidence = &c
		fmt.Fprintf(w, "  analyzed: %s (%d slides, confidence %d%%)\n", entry.Output, entry.Slides, c)
	}

	if r.opts.Markdown {
		mdPath := filepath.Join(dir, markdown.OutputName(entry.File, ".md"))
		if err := writeMarkdown(mdPath, res); err != nil {
			r.logger.Warn("markdown output failed", zap.String("file", entry.File), zap.Error(err))
			fmt.Fprintf(w, "  markdown failed: %v\n", err)
		} else {
			entry.Markdown = filepath.Base(mdPath)
		}
	}
	return entry
}

func (r *Runner) outDir(deckPath string) string {
	if r.opts.OutDir != "" {
		return r.opts.OutDir
	}
	return filepath.Dir(deckPath)
}

func (r *Runner) writeSummary(s Summary) (string, error) {
	dir := r.opts.SummaryDir
	if dir == "" {
		dir = r.opts.OutDir
	}
	if dir == "" {
		dir = "."
	}
	name := SummaryFile
	if s.ProcessingMethod != types.MethodLocal {
		name = RemoteSummaryFile
	}
	path := filepath.Join(dir, name)
	if err := WriteJSON(path, s); err != nil {
		return "", err
	}
	return path, nil
}

func writeMarkdown(path string, res types.DeckResult) error {
	md, err := markdown.Render(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, []byte(md), 0o644)
}

// WriteJSON writes v as indented JSON, creating the parent directory.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// FindDecks expands paths into a sorted, de-duplicated list of deck files.
// Directories are walked recursively; Office lock files ("~$...") are
// skipped. A named file is kept as given if it has the deck extension.
func FindDecks(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var decks []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			decks = append(decks, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", root, err)
		}
		if !info.IsDir() {
			if isDeck(filepath.Base(root)) {
				add(filepath.Clean(root))
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDeck(d.Name()) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(decks)
	return decks, nil
}

func isDeck(name string) bool {
	return strings.EqualFold(filepath.Ext(name), deckExt) && !strings.HasPrefix(name, lockPrefix)
}
