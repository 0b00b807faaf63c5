// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/pdiddy/deckminer/internal/aggregate"
	"github.com/pdiddy/deckminer/internal/usage"
	"github.com/pdiddy/deckminer/pkg/types"
)

// fakeCompleter records prompts and replays a fixed reply.
type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string { return "fake/model-1" }

var now = time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

func newTestAdapter(t *testing.T, c *fakeCompleter, limits usage.Limits) (*Adapter, *usage.Ledger) {
	t.Helper()
	ledger, err := usage.Load(filepath.Join(t.TempDir(), "usage.json"), nil)
	require.NoError(t, err)
	return NewAdapter(c, ledger, Config{Limits: limits, Now: func() time.Time { return now }}), ledger
}

const fencedReply = "以下が結果です。\n```json\n" + `{
  "client_name": "ABC商事",
  "event_date": "2024/08/01",
  "event_type": "キャンペーン",
  "event_description": null,
  "unit_price": "1,500円",
  "total_cost": 300000,
  "order_quantity": 200.0,
  "target_count": null,
  "deadline": "",
  "partner_companies": ["X社", "Y社", "X社"],
  "novelty_items": [],
  "venue": null,
  "keywords": ["ノベルティ"]
}` + "\n```"

func TestAnalyze_ParsesAndCounts(t *testing.T) {
	c := &fakeCompleter{reply: fencedReply}
	a, ledger := newTestAdapter(t, c, usage.Limits{})

	got, err := a.Analyze(context.Background(), "【ABC商事様】企画.pptx", []string{"スライド1", "スライド2"})
	require.NoError(t, err)

	require.NotNil(t, got.ClientName)
	assert.Equal(t, "ABC商事", *got.ClientName)
	require.NotNil(t, got.UnitPrice)
	assert.Equal(t, int64(1500), *got.UnitPrice)
	require.NotNil(t, got.OrderQuantity)
	assert.Equal(t, int64(200), *got.OrderQuantity)
	assert.Nil(t, got.EventDescription)
	assert.Nil(t, got.Deadline)
	assert.Equal(t, []string{"X社", "Y社"}, got.PartnerCompanies)
	assert.Equal(t, []string{}, got.NoveltyItems)
	// client 15 + date 15 + type 10 + unit 10 + total 10 + qty 5 + partners 10 + keywords 5
	assert.Equal(t, 80, got.ConfidenceScore)

	daily, monthly := ledger.Counts(now)
	assert.Equal(t, 1, daily)
	assert.Equal(t, 1, monthly)
	_, err = os.Stat(ledger.Path())
	assert.NoError(t, err, "ledger persisted after increment")

	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "【ABC商事様】企画.pptx")
	assert.Contains(t, c.prompts[0], "クライアント名の手がかり: ABC商事")
	assert.Contains(t, c.prompts[0], "スライド1\n\nスライド2")
}

func TestAnalyze_QuotaExceeded(t *testing.T) {
	c := &fakeCompleter{reply: `{}`}
	a, ledger := newTestAdapter(t, c, usage.Limits{Daily: 2, Monthly: 100})
	require.NoError(t, ledger.Increment(now))
	require.NoError(t, ledger.Increment(now))

	_, err := a.Analyze(context.Background(), "a.pptx", []string{"x"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, c.prompts, "no remote call once the ceiling is reached")

	daily, _ := ledger.Counts(now)
	assert.Equal(t, 2, daily)
	assert.Equal(t, 2, ledger.Total)
}

func TestAnalyze_FailuresYieldEmptyRecord(t *testing.T) {
	tests := []struct {
		name string
		c    *fakeCompleter
	}{
		{"transport failure", &fakeCompleter{err: errors.New("connection reset")}},
		{"prose reply", &fakeCompleter{reply: "申し訳ありませんが抽出できません"}},
		{"array reply", &fakeCompleter{reply: `["a"]`}},
		{"null reply", &fakeCompleter{reply: `null`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ledger := newTestAdapter(t, tt.c, usage.Limits{})

			got, err := a.Analyze(context.Background(), "a.pptx", []string{"x"})
			require.NoError(t, err)
			assert.Equal(t, types.EmptyRemoteAnalysis(), got)
			assert.Zero(t, ledger.Total, "failed calls are not counted")
		})
	}
}

func TestAnalyze_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &fakeCompleter{err: context.Canceled}
	a, _ := newTestAdapter(t, c, usage.Limits{})

	_, err := a.Analyze(ctx, "a.pptx", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_PromptTruncated(t *testing.T) {
	c := &fakeCompleter{reply: `{}`}
	a, _ := newTestAdapter(t, c, usage.Limits{})

	long := strings.Repeat("あ", 2990) + strings.Repeat("い", 100)
	_, err := a.Analyze(context.Background(), "a.pptx", []string{long})
	require.NoError(t, err)

	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], strings.Repeat("あ", 2990)+strings.Repeat("い", 10)+"\n")
	assert.NotContains(t, c.prompts[0], strings.Repeat("い", 11))
}

func TestAnalyze_LimiterSpacesCalls(t *testing.T) {
	c := &fakeCompleter{reply: `{}`}
	ledger := usage.New("")
	a := NewAdapter(c, ledger, Config{Limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1)})

	start := time.Now()
	for range 3 {
		_, err := a.Analyze(context.Background(), "a.pptx", nil)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, 3, ledger.Total)
}

func TestProcessFile(t *testing.T) {
	c := &fakeCompleter{reply: `{"client_name":"ABC","event_date":"2024/07/15","partner_companies":["協力社"]}`}
	a, _ := newTestAdapter(t, c, usage.Limits{})

	blocks := []types.Shape{}
	for i := range 7 {
		blocks = append(blocks, textShape(strings.Repeat(string(rune('a'+i)), 300)))
	}
	deck := &types.Deck{FileName: "deck.pptx", Slides: []types.Slide{{Number: 1, Shapes: blocks}, {Number: 2}}}
	opener := aggregate.OpenerFunc(func(string) (*types.Deck, error) { return deck, nil })

	res, err := a.ProcessFile(context.Background(), opener, "in/deck.pptx")
	require.NoError(t, err)
	require.NotNil(t, res.Remote)

	assert.Equal(t, "fake_api", res.Remote.FileInfo.ProcessingMethod)
	assert.Equal(t, 2, res.Remote.FileInfo.SlideCount)
	assert.Equal(t, 40, res.Remote.Analysis.ConfidenceScore)
	assert.Len(t, []rune(res.Remote.SlideTextsSample), 1000)
	assert.True(t, strings.HasPrefix(res.Remote.SlideTextsSample, strings.Repeat("a", 300)+"\n"))
	assert.NotContains(t, res.Remote.SlideTextsSample, "f")
}

func TestProcessFile_OpenFailure(t *testing.T) {
	c := &fakeCompleter{reply: `{}`}
	a, _ := newTestAdapter(t, c, usage.Limits{})
	opener := aggregate.OpenerFunc(func(string) (*types.Deck, error) { return nil, errors.New("corrupt") })

	res, err := a.ProcessFile(context.Background(), opener, "in/bad.pptx")
	require.NoError(t, err)
	require.NotNil(t, res.Failed)
	assert.Equal(t, "bad.pptx", res.Failed.FileName)
	assert.Empty(t, c.prompts)
}

func TestProcessFile_QuotaChecked(t *testing.T) {
	c := &fakeCompleter{reply: `{}`}
	a, ledger := newTestAdapter(t, c, usage.Limits{Daily: 1, Monthly: 10})
	require.NoError(t, ledger.Increment(now))

	opened := false
	opener := aggregate.OpenerFunc(func(string) (*types.Deck, error) { opened = true; return &types.Deck{}, nil })
	_, err := a.ProcessFile(context.Background(), opener, "x.pptx")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.False(t, opened)
}

type textShape string

func (s textShape) TextFrame() (string, bool)    { return string(s), true }
func (s textShape) Table() (*types.Table, error) { return nil, nil }
func (s textShape) Children() []types.Shape      { return nil }
