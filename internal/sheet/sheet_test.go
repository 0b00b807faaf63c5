// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sheet

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/deckminer/pkg/types"
)

var registered = time.Date(2024, 7, 20, 15, 4, 5, 0, time.UTC)

func localResult() types.DeckResult {
	return types.DeckResult{Local: &types.LocalResult{
		FileInfo: types.FileInfo{FileName: "【ABC商事様】提案.pptx", SlideCount: 2},
		Slides: []types.SlideRecord{
			{SlideNumber: 1, RawTexts: []string{"単価：1,000円", strings.Repeat("あ", 600)}},
		},
		Summary: types.DeckSummary{
			AllPrices:     []int{1000, 2000, 2001},
			AllQuantities: []int{500, 1000},
			AllCompanies:  []string{"株式会社テスト様", "協力社"},
			AllKeywords:   []string{"ノベルティ", "抽選"},
			AllDates:      []string{"2024/07/15"},
		},
	}}
}

func remoteResult() types.DeckResult {
	client, venue := "XYZ", "幕張メッセ"
	price := int64(1500)
	a := types.EmptyRemoteAnalysis()
	a.ClientName, a.Venue, a.UnitPrice = &client, &venue, &price
	a.PartnerCompanies = []string{"X社", "Y社"}
	a.NoveltyItems = []string{"タオル"}
	a.ConfidenceScore = 45
	return types.DeckResult{Remote: &types.RemoteResult{
		FileInfo:         types.FileInfo{FileName: "plan.pptx", ProcessingMethod: "gemini_api"},
		Analysis:         a,
		SlideTextsSample: "サンプル",
	}}
}

func TestRowFrom_Local(t *testing.T) {
	row, ok := RowFrom(localResult())
	require.True(t, ok)

	assert.Equal(t, "ABC商事", row.Client, "client falls back to the file name")
	assert.Equal(t, "2024/07/15", row.EventDate)
	require.NotNil(t, row.UnitPrice)
	assert.Equal(t, int64(1667), *row.UnitPrice)
	require.NotNil(t, row.Quantity)
	assert.Equal(t, int64(1500), *row.Quantity)
	assert.Equal(t, "株式会社テスト様", row.Company)
	assert.Equal(t, "株式会社テスト様, 協力社", row.AllCompanies)
	assert.Equal(t, "ノベルティ, 抽選", row.Tags)
	assert.Equal(t, 0, row.Confidence)
	assert.Len(t, []rune(row.Text), MaxTextChars)
	assert.True(t, strings.HasPrefix(row.Text, "単価：1,000円 あ"))
}

func TestRowFrom_Remote(t *testing.T) {
	row, ok := RowFrom(remoteResult())
	require.True(t, ok)

	assert.Equal(t, "XYZ", row.Client)
	assert.Equal(t, "幕張メッセ", row.Venue)
	assert.Equal(t, "タオル", row.Novelty)
	assert.Equal(t, "X社", row.Company)
	assert.Nil(t, row.Quantity)
	assert.Equal(t, 45, row.Confidence)
	assert.Equal(t, "サンプル", row.Text)

	values := row.Values(registered)
	assert.Len(t, values, len(Headers))
	assert.Equal(t, "2024-07-20 15:04:05", values[0])
	assert.Equal(t, int64(1500), values[7])
	assert.Equal(t, "", values[8])
	assert.Equal(t, 45, values[19])
	assert.Equal(t, "plan.pptx", values[20])
}

func TestRowFrom_Failed(t *testing.T) {
	_, ok := RowFrom(types.DeckResult{Failed: &types.ErrorRecord{Error: "x", FileName: "bad.pptx"}})
	assert.False(t, ok)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.xlsx")
	results := []types.DeckResult{
		localResult(),
		{Failed: &types.ErrorRecord{Error: "x", FileName: "bad.pptx"}},
		remoteResult(),
	}

	summary, err := Write(path, results, registered)
	require.NoError(t, err)
	assert.Equal(t, WriteSummary{Rows: 2, Skipped: 1}, summary)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "ABC商事", rows[1][2])
	assert.Equal(t, "1667", rows[1][7])
	assert.Equal(t, "【ABC商事様】提案.pptx", rows[1][20])
	assert.Equal(t, "XYZ", rows[2][2])
	assert.Equal(t, "45", rows[2][19])
	assert.Equal(t, "X社, Y社", rows[2][22])

	styleID, err := f.GetCellStyle(SheetName, "W1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
	assert.Equal(t, "pattern", style.Fill.Type)
}
