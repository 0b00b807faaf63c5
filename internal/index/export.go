// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportDeck groups a deck's facts by category for export.
type ExportDeck struct {
	FileName         string              `json:"file_name" yaml:"file_name"`
	Source           string              `json:"source" yaml:"source"`
	ProcessingMethod string              `json:"processing_method" yaml:"processing_method"`
	ProcessedAt      string              `json:"processed_at,omitempty" yaml:"processed_at,omitempty"`
	Confidence       *int                `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Facts            map[string][]string `json:"facts" yaml:"facts"`
}

const exportLimit = 1000000

// ExportYAML writes the matching facts, grouped per deck, to path. It
// supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, path string, opts QueryOptions) error {
	decks, err := s.exportDecks(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(decks)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportJSON writes the matching facts, grouped per deck, to path. It
// supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, path string, opts QueryOptions) error {
	decks, err := s.exportDecks(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(decks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, data)
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportDecks(ctx context.Context, opts QueryOptions) ([]ExportDeck, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	decks := []ExportDeck{}
	bySource := make(map[string]int)
	for _, r := range results {
		i, ok := bySource[r.Source]
		if !ok {
			i = len(decks)
			bySource[r.Source] = i
			decks = append(decks, ExportDeck{
				FileName:         r.FileName,
				Source:           r.Source,
				ProcessingMethod: r.ProcessingMethod,
				ProcessedAt:      r.ProcessedAt,
				Confidence:       r.Confidence,
				Facts:            map[string][]string{},
			})
		}
		decks[i].Facts[r.Category] = append(decks[i].Facts[r.Category], r.Value)
	}
	return decks, nil
}
