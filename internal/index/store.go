// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists deck results in a SQLite database so facts and
// slide text can be searched across many batch runs.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deckminer/internal/rules"
	"github.com/pdiddy/deckminer/pkg/types"
)

const (
	// DefaultDBFile is the database file name used when no path is configured.
	DefaultDBFile = "deckminer.db"

	defaultMaxResults = 20
	summaryPrefix     = "_batch_summary"
)

// Categories stored alongside the rule categories.
const (
	CategoryKeyword     = "keyword"
	CategoryText        = "text"
	CategoryDescription = "description"
	CategoryTotalCost   = "total_cost"
	CategoryTargetCount = "target_count"
	CategoryVenue       = "venue"
)

// Deck status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Store manages the results index database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// NewStore opens or creates the index database at cfg.Path and creates the
// schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultDBFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS decks (
			source TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			processing_method TEXT,
			processed_at TEXT,
			slide_count INTEGER,
			status TEXT NOT NULL,
			error TEXT,
			confidence INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS facts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL REFERENCES decks(source) ON DELETE CASCADE,
			slide_number INTEGER NOT NULL,
			category TEXT NOT NULL,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_source ON facts(source)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_category_value ON facts(category, value)`,
		`CREATE INDEX IF NOT EXISTS idx_decks_file_name ON decks(file_name)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int

	// DeckErrors counts indexed results that record a failed deck.
	DeckErrors int
}

// Total returns the number of result files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks dirs for result JSON files and loads them into the index.
// Batch summaries are ignored. Files whose modification time matches the
// last indexing run are skipped; changed files replace their old facts.
func (s *Store) Ingest(ctx context.Context, dirs []string, w io.Writer) (IngestSummary, error) {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() || !strings.EqualFold(filepath.Ext(name), ".json") || strings.HasPrefix(name, summaryPrefix) {
				return nil
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return IngestSummary{}, fmt.Errorf("walking %s: %w", dir, err)
		}
	}

	var summary IngestSummary
	for _, path := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		source, err := filepath.Abs(path)
		if err != nil {
			source = filepath.Clean(path)
		}
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE source = ?`, source,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		var res types.DeckResult
		if err := json.Unmarshal(data, &res); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}

		facts := factsOf(res)
		if err := s.ingestResult(ctx, source, res, facts, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		if res.Failed != nil {
			summary.DeckErrors++
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d facts)\n", name, len(facts))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d facts)\n", name, len(facts))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

// fact is one searchable row.
type fact struct {
	slide    int
	category string
	value    string
}

func (s *Store) ingestResult(ctx context.Context, source string, res types.DeckResult, facts []fact, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE source = ?`, source); err != nil {
		return fmt.Errorf("deleting old facts: %w", err)
	}

	var (
		info       types.FileInfo
		status     = StatusOK
		errText    sql.NullString
		confidence sql.NullInt64
	)
	switch {
	case res.Local != nil:
		info = res.Local.FileInfo
		if info.ProcessingMethod == "" {
			info.ProcessingMethod = types.MethodLocal
		}
	case res.Remote != nil:
		info = res.Remote.FileInfo
		confidence = sql.NullInt64{Int64: int64(res.Remote.Analysis.ConfidenceScore), Valid: true}
	case res.Failed != nil:
		info = types.FileInfo{FileName: res.Failed.FileName, ProcessedAt: res.Failed.ProcessedAt}
		status = StatusFailed
		errText = sql.NullString{String: res.Failed.Error, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO decks (source, file_name, processing_method, processed_at, slide_count, status, error, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET
			file_name=excluded.file_name, processing_method=excluded.processing_method,
			processed_at=excluded.processed_at, slide_count=excluded.slide_count,
			status=excluded.status, error=excluded.error, confidence=excluded.confidence`,
		source, info.FileName, info.ProcessingMethod, formatTime(info.ProcessedAt),
		info.SlideCount, status, errText, confidence,
	)
	if err != nil {
		return fmt.Errorf("upserting deck: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO facts (source, slide_number, category, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, source, f.slide, f.category, f.value); err != nil {
			return fmt.Errorf("inserting fact %s: %w", f.category, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		source, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}
	return tx.Commit()
}

// factsOf flattens a result into searchable rows. Local facts carry their
// slide number; remote facts and the remote text sample use slide 0.
func factsOf(res types.DeckResult) []fact {
	var facts []fact
	addStrings := func(slide int, category string, values []string) {
		for _, v := range values {
			facts = append(facts, fact{slide, category, v})
		}
	}
	addInts := func(slide int, category string, values []int) {
		for _, v := range values {
			facts = append(facts, fact{slide, category, strconv.Itoa(v)})
		}
	}
	addPtr := func(category string, v *string) {
		if v != nil && *v != "" {
			facts = append(facts, fact{0, category, *v})
		}
	}
	addNum := func(category string, v *int64) {
		if v != nil {
			facts = append(facts, fact{0, category, strconv.FormatInt(*v, 10)})
		}
	}

	switch {
	case res.Local != nil:
		for _, slide := range res.Local.Slides {
			n, info := slide.SlideNumber, slide.AnalyzedInfo
			addInts(n, rules.CategoryPrice, info.Prices)
			addInts(n, rules.CategoryQuantity, info.Quantities)
			addStrings(n, rules.CategoryDeadline, info.Deadlines)
			addStrings(n, rules.CategoryCompany, info.Companies)
			addStrings(n, rules.CategoryDate, info.Dates)
			addStrings(n, rules.CategoryEventType, info.EventTypes)
			addStrings(n, rules.CategoryClient, info.Clients)
			addStrings(n, rules.CategoryNovelty, info.Novelties)
			addStrings(n, CategoryKeyword, info.Keywords)
			for category, values := range info.Extra {
				addStrings(n, category, values)
			}
			addStrings(n, CategoryText, slide.RawTexts)
		}
	case res.Remote != nil:
		a := res.Remote.Analysis
		addPtr(rules.CategoryClient, a.ClientName)
		addPtr(rules.CategoryDate, a.EventDate)
		addPtr(rules.CategoryEventType, a.EventType)
		addPtr(CategoryDescription, a.EventDescription)
		addNum(rules.CategoryPrice, a.UnitPrice)
		addNum(CategoryTotalCost, a.TotalCost)
		addNum(rules.CategoryQuantity, a.OrderQuantity)
		addNum(CategoryTargetCount, a.TargetCount)
		addPtr(rules.CategoryDeadline, a.Deadline)
		addPtr(CategoryVenue, a.Venue)
		addStrings(0, rules.CategoryCompany, a.PartnerCompanies)
		addStrings(0, rules.CategoryNovelty, a.NoveltyItems)
		addStrings(0, CategoryKeyword, a.Keywords)
		if res.Remote.SlideTextsSample != "" {
			facts = append(facts, fact{0, CategoryText, res.Remote.SlideTextsSample})
		}
	}
	return facts
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
