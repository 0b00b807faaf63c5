// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is a substring matched against fact values and slide text.
	Query string

	// Category filters by fact category ("price", "company", "text", ...).
	Category string

	// Value filters by exact fact value.
	Value string

	// FileName filters by deck file name.
	FileName string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Value == "" && q.FileName == ""
}

// QueryResult is one matching fact with its deck.
type QueryResult struct {
	FileName         string `json:"file_name" yaml:"file_name"`
	Source           string `json:"source" yaml:"source"`
	ProcessingMethod string `json:"processing_method" yaml:"processing_method"`
	ProcessedAt      string `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
	SlideNumber      int    `json:"slide_number" yaml:"slide_number"`
	Category         string `json:"category" yaml:"category"`
	Value            string `json:"value" yaml:"value"`
	Confidence       *int   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// likeEscaper escapes LIKE wildcards so Query matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Retrieve queries the index with an optional substring search and
// structured filters. Results are sorted by file name, slide and fact id.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT d.file_name, d.source, d.processing_method, d.processed_at,
			f.slide_number, f.category, f.value, d.confidence
		FROM facts f
		JOIN decks d ON d.source = f.source
		WHERE 1=1`)

	if opts.Query != "" {
		qb.WriteString(` AND f.value LIKE ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(opts.Query)+"%")
	}
	if opts.Category != "" {
		qb.WriteString(` AND f.category = ?`)
		args = append(args, opts.Category)
	}
	if opts.Value != "" {
		qb.WriteString(` AND f.value = ?`)
		args = append(args, opts.Value)
	}
	if opts.FileName != "" {
		qb.WriteString(` AND d.file_name = ?`)
		args = append(args, opts.FileName)
	}

	qb.WriteString(` ORDER BY d.file_name, d.source, f.slide_number, f.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			method      sql.NullString
			processedAt sql.NullString
			confidence  sql.NullInt64
		)
		if err := rows.Scan(
			&qr.FileName, &qr.Source, &method, &processedAt,
			&qr.SlideNumber, &qr.Category, &qr.Value, &confidence,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.ProcessingMethod = method.String
		qr.ProcessedAt = processedAt.String
		if confidence.Valid {
			c := int(confidence.Int64)
			qr.Confidence = &c
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// DeckStats summarizes what the index holds.
type DeckStats struct {
	Decks  int `json:"decks" yaml:"decks"`
	Failed int `json:"failed" yaml:"failed"`
	Facts  int `json:"facts" yaml:"facts"`
}

// Stats counts decks and facts in the index.
func (s *Store) Stats(ctx context.Context) (DeckStats, error) {
	var st DeckStats
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM decks`, StatusFailed,
	).Scan(&st.Decks, &st.Failed)
	if err != nil {
		return DeckStats{}, fmt.Errorf("counting decks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM facts`).Scan(&st.Facts); err != nil {
		return DeckStats{}, fmt.Errorf("counting facts: %w", err)
	}
	return st, nil
}
