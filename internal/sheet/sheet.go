// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet exports deck results as rows of an .xlsx knowledge sheet.
package sheet

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/pkg/types"
)

// SheetName is the worksheet that receives the rows.
const SheetName = "メインDB"

// MaxTextChars caps the extracted-text column.
const MaxTextChars = 500

const timeLayout = "2006-01-02 15:04:05"

// Headers are the column titles, in order.
var Headers = []string{
	"登録日時", "担当者名", "クライアント名", "実施時期", "イベント種別",
	"景品カテゴリ", "具体的な景品名", "単価", "発注数量", "MOQ", "納期",
	"協力会社名", "協力会社評価", "会場名", "会場費用", "成功要因",
	"失敗・反省点", "企画書URL", "タグ", "信頼度スコア",
	"元ファイル名", "抽出テキスト", "全会社名",
}

// Row is the sheet view of one successfully processed deck. Columns that
// are filled in by hand later stay blank.
type Row struct {
	Client       string
	EventDate    string
	EventType    string
	Novelty      string
	UnitPrice    *int64
	Quantity     *int64
	Deadline     string
	Company      string
	Venue        string
	Tags         string
	Confidence   int
	FileName     string
	Text         string
	AllCompanies string
}

// RowFrom maps a result onto a Row. Failed decks have no row.
func RowFrom(res types.DeckResult) (Row, bool) {
	switch {
	case res.Local != nil:
		return localRow(res.Local), true
	case res.Remote != nil:
		return remoteRow(res.Remote), true
	}
	return Row{}, false
}

func localRow(res *types.LocalResult) Row {
	s := res.Summary
	row := Row{
		Client:       first(s.AllClients),
		EventDate:    first(s.AllDates),
		EventType:    first(s.AllEventTypes),
		Novelty:      first(s.AllNovelties),
		Deadline:     first(s.AllDeadlines),
		Company:      first(s.AllCompanies),
		Tags:         strings.Join(s.AllKeywords, ", "),
		FileName:     res.FileInfo.FileName,
		AllCompanies: strings.Join(s.AllCompanies, ", "),
	}
	if row.Client == "" {
		row.Client = remote.ClientHint(res.FileInfo.FileName)
	}
	if len(s.AllPrices) > 0 {
		sum := 0
		for _, p := range s.AllPrices {
			sum += p
		}
		avg := int64(math.Round(float64(sum) / float64(len(s.AllPrices))))
		row.UnitPrice = &avg
	}
	if len(s.AllQuantities) > 0 {
		var total int64
		for _, q := range s.AllQuantities {
			total += int64(q)
		}
		row.Quantity = &total
	}

	var texts []string
	for _, slide := range res.Slides {
		texts = append(texts, slide.RawTexts...)
	}
	row.Text = truncate(strings.Join(texts, " "), MaxTextChars)
	return row
}

func remoteRow(res *types.RemoteResult) Row {
	a := res.Analysis
	row := Row{
		Client:       deref(a.ClientName),
		EventDate:    deref(a.EventDate),
		EventType:    deref(a.EventType),
		Novelty:      first(a.NoveltyItems),
		UnitPrice:    a.UnitPrice,
		Quantity:     a.OrderQuantity,
		Deadline:     deref(a.Deadline),
		Company:      first(a.PartnerCompanies),
		Venue:        deref(a.Venue),
		Tags:         strings.Join(a.Keywords, ", "),
		Confidence:   a.ConfidenceScore,
		FileName:     res.FileInfo.FileName,
		Text:         truncate(res.SlideTextsSample, MaxTextChars),
		AllCompanies: strings.Join(a.PartnerCompanies, ", "),
	}
	if row.Client == "" {
		row.Client = remote.ClientHint(res.FileInfo.FileName)
	}
	return row
}

// Values returns the row's cells in header order.
func (r Row) Values(registered time.Time) []any {
	return []any{
		registered.Format(timeLayout),
		"",
		r.Client,
		r.EventDate,
		r.EventType,
		"",
		r.Novelty,
		number(r.UnitPrice),
		number(r.Quantity),
		"",
		r.Deadline,
		r.Company,
		"",
		r.Venue,
		"",
		"",
		"",
		"",
		r.Tags,
		r.Confidence,
		r.FileName,
		r.Text,
		r.AllCompanies,
	}
}

// WriteSummary holds counts from an export.
type WriteSummary struct {
	Rows    int
	Skipped int
}

// Write creates an .xlsx workbook at path with one row per successful
// result. Failed results are counted as skipped.
func Write(path string, results []types.DeckResult, registered time.Time) (WriteSummary, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return WriteSummary{}, fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Headers); err != nil {
		return WriteSummary{}, fmt.Errorf("writing header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4285F4"}},
	})
	if err != nil {
		return WriteSummary{}, fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Headers), 1)
	if err != nil {
		return WriteSummary{}, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return WriteSummary{}, fmt.Errorf("styling header: %w", err)
	}

	var summary WriteSummary
	for _, res := range results {
		row, ok := RowFrom(res)
		if !ok {
			summary.Skipped++
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, summary.Rows+2)
		if err != nil {
			return summary, err
		}
		values := row.Values(registered)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return summary, fmt.Errorf("writing row for %s: %w", row.FileName, err)
		}
		summary.Rows++
	}

	if err := f.SaveAs(path); err != nil {
		return summary, fmt.Errorf("saving %s: %w", path, err)
	}
	return summary, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func number(n *int64) any {
	if n == nil {
		return ""
	}
	return *n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
