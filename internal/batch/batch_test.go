// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckminer/internal/aggregate"
	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/pkg/types"
)

var runStart = time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC)

// scriptedProcessor returns canned outcomes keyed by deck base name.
type scriptedProcessor struct {
	method  string
	results map[string]types.DeckResult
	errs    map[string]error
	calls   []string
}

func (p *scriptedProcessor) Process(_ context.Context, path string) (types.DeckResult, error) {
	name := filepath.Base(path)
	p.calls = append(p.calls, name)
	if err := p.errs[name]; err != nil {
		return types.DeckResult{}, err
	}
	if res, ok := p.results[name]; ok {
		return res, nil
	}
	return types.DeckResult{Failed: &types.ErrorRecord{Error: "no such deck", FileName: name}}, nil
}

func (p *scriptedProcessor) Method() string { return p.method }

func remoteResult(name string, confidence int) types.DeckResult {
	a := types.EmptyRemoteAnalysis()
	a.ConfidenceScore = confidence
	return types.DeckResult{Remote: &types.RemoteResult{
		FileInfo: types.FileInfo{FileName: name, SlideCount: 3, ProcessingMethod: "gemini_api"},
		Analysis: a,
	}}
}

func readSummary(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRun_Local(t *testing.T) {
	dir := t.TempDir()
	deckDir := filepath.Join(dir, "decks")
	agg := aggregate.New(nil, aggregate.WithClock(func() time.Time { return runStart }))
	opener := aggregate.OpenerFunc(func(path string) (*types.Deck, error) {
		if filepath.Base(path) == "broken.pptx" {
			return nil, errors.New("zip: not a valid zip file")
		}
		return &types.Deck{FileName: filepath.Base(path), Slides: []types.Slide{{Number: 1}}}, nil
	})

	var out bytes.Buffer
	r := NewRunner(Local(agg, opener), Options{Markdown: true, SummaryDir: deckDir, Now: func() time.Time { return runStart }})
	paths := []string{filepath.Join(deckDir, "a.pptx"), filepath.Join(deckDir, "broken.pptx")}
	summary, err := r.Run(context.Background(), paths, &out)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.Total())
	assert.True(t, summary.HasFailures())
	assert.Nil(t, summary.AverageConfidence)
	assert.Len(t, summary.RunID, 26)
	assert.Equal(t, types.MethodLocal, summary.ProcessingMethod)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, Entry{File: "a.pptx", Output: "a.json", Markdown: "a.md", Slides: 1, Status: statusOK}, summary.Results[0])
	assert.Equal(t, "error", summary.Results[1].Status)
	assert.Equal(t, "zip: not a valid zip file", summary.Results[1].Error)

	data, err := os.ReadFile(filepath.Join(deckDir, "a.json"))
	require.NoError(t, err)
	var back types.DeckResult
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.Local)
	assert.Equal(t, 1, back.Local.FileInfo.SlideCount)

	assert.FileExists(t, filepath.Join(deckDir, "a.md"))
	assert.NoFileExists(t, filepath.Join(deckDir, "broken.json"))

	doc := readSummary(t, filepath.Join(deckDir, SummaryFile))
	assert.Equal(t, 2.0, doc["total"])
	assert.Equal(t, 1.0, doc["success"])
	assert.Equal(t, 1.0, doc["errors"])
	assert.NotContains(t, doc, "average_confidence")

	assert.Contains(t, out.String(), "[1/2] a.pptx")
	assert.Contains(t, out.String(), "Batch summary: 1 succeeded, 1 failed, 0 skipped (total: 2)")
}

func TestRun_RemoteQuotaHalt(t *testing.T) {
	dir := t.TempDir()
	proc := &scriptedProcessor{
		method: "gemini_api",
		results: map[string]types.DeckResult{
			"1.pptx": remoteResult("1.pptx", 40),
			"2.pptx": remoteResult("2.pptx", 80),
		},
		errs: map[string]error{
			"3.pptx": fmt.Errorf("%w: daily limit reached", remote.ErrQuotaExceeded),
		},
	}
	var paths []string
	for i := 1; i <= 5; i++ {
		paths = append(paths, filepath.Join(dir, fmt.Sprintf("%d.pptx", i)))
	}

	var out bytes.Buffer
	summary, err := NewRunner(proc, Options{OutDir: filepath.Join(dir, "out")}).Run(context.Background(), paths, &out)
	require.NoError(t, err)

	assert.True(t, summary.QuotaExceeded)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 5, summary.Total())
	assert.Equal(t, []string{"1.pptx", "2.pptx", "3.pptx"}, proc.calls, "nothing is attempted after the halt")
	require.NotNil(t, summary.AverageConfidence)
	assert.InDelta(t, 60.0, *summary.AverageConfidence, 0.001)

	doc := readSummary(t, filepath.Join(dir, "out", RemoteSummaryFile))
	assert.Equal(t, "gemini_api", doc["processing_method"])
	assert.Equal(t, 60.0, doc["average_confidence"])
	assert.Equal(t, true, doc["quota_exceeded"])
	assert.FileExists(t, filepath.Join(dir, "out", "1.json"))
	assert.Contains(t, out.String(), "Average confidence: 60.0%")
}

func TestRun_ProcessorErrorStillWritesSummary(t *testing.T) {
	dir := t.TempDir()
	proc := &scriptedProcessor{
		method: "openai_api",
		errs:   map[string]error{"a.pptx": context.Canceled},
	}
	summary, err := NewRunner(proc, Options{OutDir: dir}).Run(context.Background(), []string{filepath.Join(dir, "a.pptx")}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, summary.QuotaExceeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.FileExists(t, filepath.Join(dir, RemoteSummaryFile))
}

func TestFindDecks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pptx", "~$b.pptx", "notes.txt", "sub/a.pptx", "sub/deeper/C.PPTX"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	got, err := FindDecks([]string{dir, filepath.Join(dir, "b.pptx"), filepath.Join(dir, "notes.txt")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.pptx"),
		filepath.Join(dir, "sub", "a.pptx"),
		filepath.Join(dir, "sub", "deeper", "C.PPTX"),
	}, got)

	_, err = FindDecks([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestFindDecks_Empty(t *testing.T) {
	got, err := FindDecks([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadResults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteJSON(filepath.Join(dir, "b.json"), remoteResult("b.pptx", 50)))
	require.NoError(t, WriteJSON(filepath.Join(dir, "sub", "a.json"), types.DeckResult{Failed: &types.ErrorRecord{Error: "x", FileName: "a.pptx"}}))
	require.NoError(t, WriteJSON(filepath.Join(dir, RemoteSummaryFile), Summary{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"name":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	loaded, skipped, err := LoadResults([]string{dir})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "b.pptx", loaded[0].Result.FileName())
	assert.NotNil(t, loaded[1].Result.Failed)
	assert.Equal(t, []string{filepath.Join(dir, "other.json")}, skipped)
}
