// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markdown renders deck results as Markdown documents suitable for
// loading into a notebook-style assistant, and converts them to HTML.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pdiddy/deckminer/internal/remote"
	"github.com/pdiddy/deckminer/pkg/types"
)

// ErrEmptyResult is returned when a DeckResult carries no variant.
var ErrEmptyResult = errors.New("empty deck result")

const timeLayout = "2006-01-02 15:04"

var printer = message.NewPrinter(language.Japanese)

// frontmatter is the YAML header written at the top of each document.
type frontmatter struct {
	FileName         string    `yaml:"file_name"`
	ProcessedAt      time.Time `yaml:"processed_at"`
	SlideCount       int       `yaml:"slide_count"`
	ProcessingMethod string    `yaml:"processing_method"`
	Client           string    `yaml:"client,omitempty"`
	Confidence       *int      `yaml:"confidence,omitempty"`
	Error            string    `yaml:"error,omitempty"`
}

// Render returns the Markdown document for r.
func Render(r types.DeckResult) (string, error) {
	switch {
	case r.Local != nil:
		return renderLocal(r.Local)
	case r.Remote != nil:
		return renderRemote(r.Remote)
	case r.Failed != nil:
		return renderFailed(r.Failed)
	}
	return "", ErrEmptyResult
}

// OutputName returns the document file name for a deck, e.g. "a.pptx" with
// ext ".md" gives "a.md".
func OutputName(deckName, ext string) string {
	return strings.TrimSuffix(deckName, filepath.Ext(deckName)) + ext
}

func writeFrontmatter(b *strings.Builder, fm frontmatter) error {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("encoding frontmatter: %w", err)
	}
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return nil
}

func renderLocal(res *types.LocalResult) (string, error) {
	var b strings.Builder
	info := res.FileInfo
	client := remote.ClientHint(info.FileName)
	if client == "" && len(res.Summary.AllClients) > 0 {
		client = res.Summary.AllClients[0]
	}
	method := info.ProcessingMethod
	if method == "" {
		method = types.MethodLocal
	}
	if err := writeFrontmatter(&b, frontmatter{
		FileName:         info.FileName,
		ProcessedAt:      info.ProcessedAt,
		SlideCount:       info.SlideCount,
		ProcessingMethod: method,
		Client:           client,
	}); err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "# %s\n\n", title(info.FileName, client))
	writeFileInfo(&b, info, method)

	s := res.Summary
	b.WriteString("## 抽出情報\n\n")
	writeField(&b, "価格", joinInts(s.AllPrices, "¥", ""))
	writeField(&b, "数量", joinInts(s.AllQuantities, "", "個"))
	writeField(&b, "企業", strings.Join(s.AllCompanies, "、"))
	writeField(&b, "クライアント", strings.Join(s.AllClients, "、"))
	writeField(&b, "日付", strings.Join(s.AllDates, "、"))
	writeField(&b, "納期", strings.Join(s.AllDeadlines, "、"))
	writeField(&b, "イベント種別", strings.Join(s.AllEventTypes, "、"))
	writeField(&b, "ノベルティ", strings.Join(s.AllNovelties, "、"))
	writeField(&b, "キーワード", strings.Join(s.AllKeywords, "、"))
	for _, name := range sortedKeys(s.AllExtra) {
		writeField(&b, name, strings.Join(s.AllExtra[name], "、"))
	}
	b.WriteString("\n")

	b.WriteString("## スライド別テキスト\n\n")
	for _, slide := range res.Slides {
		fmt.Fprintf(&b, "### スライド %d\n\n", slide.SlideNumber)
		if len(slide.RawTexts) == 0 {
			b.WriteString("（テキストなし）\n\n")
			continue
		}
		for _, text := range slide.RawTexts {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}
	return b.String(), nil
}

func renderRemote(res *types.RemoteResult) (string, error) {
	var b strings.Builder
	info := res.FileInfo
	a := res.Analysis
	client := deref(a.ClientName)
	if client == "" {
		client = remote.ClientHint(info.FileName)
	}
	confidence := a.ConfidenceScore
	if err := writeFrontmatter(&b, frontmatter{
		FileName:         info.FileName,
		ProcessedAt:      info.ProcessedAt,
		SlideCount:       info.SlideCount,
		ProcessingMethod: info.ProcessingMethod,
		Client:           client,
		Confidence:       &confidence,
	}); err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "# %s\n\n", title(info.FileName, client))
	writeFileInfo(&b, info, info.ProcessingMethod)

	b.WriteString("## 基本情報\n\n")
	writeField(&b, "クライアント名", client)
	writeField(&b, "実施時期", deref(a.EventDate))
	writeField(&b, "イベント種別", deref(a.EventType))
	writeField(&b, "会場", deref(a.Venue))
	writeField(&b, "ターゲット人数", formatInt(a.TargetCount, "", "名"))
	b.WriteString("\n")

	if desc := deref(a.EventDescription); desc != "" {
		fmt.Fprintf(&b, "## イベント内容\n\n%s\n\n", desc)
	}

	if a.UnitPrice != nil || a.TotalCost != nil || a.OrderQuantity != nil {
		b.WriteString("## 価格情報\n\n")
		writeField(&b, "単価", formatInt(a.UnitPrice, "¥", ""))
		writeField(&b, "総費用", formatInt(a.TotalCost, "¥", ""))
		writeField(&b, "発注数量", formatInt(a.OrderQuantity, "", "個"))
		b.WriteString("\n")
	}

	if deadline := deref(a.Deadline); deadline != "" {
		fmt.Fprintf(&b, "## 納期\n\n- **納期**: %s\n\n", deadline)
	}
	writeList(&b, "協力会社", a.PartnerCompanies)
	writeList(&b, "ノベルティ・景品", a.NoveltyItems)
	writeList(&b, "キーワード", a.Keywords)

	fmt.Fprintf(&b, "## 信頼度\n\n%d%%\n\n", a.ConfidenceScore)

	if res.SlideTextsSample != "" {
		fmt.Fprintf(&b, "## テキスト抜粋\n\n```text\n%s\n```\n", res.SlideTextsSample)
	}
	return b.String(), nil
}

func renderFailed(rec *types.ErrorRecord) (string, error) {
	var b strings.Builder
	if err := writeFrontmatter(&b, frontmatter{
		FileName:    rec.FileName,
		ProcessedAt: rec.ProcessedAt,
		Error:       rec.Error,
	}); err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "# %s\n\n処理に失敗しました: %s\n", rec.FileName, rec.Error)
	return b.String(), nil
}

func title(fileName, client string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if client == "" || strings.Contains(stem, client) {
		return stem
	}
	return fmt.Sprintf("【%s様】%s", client, stem)
}

func writeFileInfo(b *strings.Builder, info types.FileInfo, method string) {
	b.WriteString("## ファイル情報\n\n")
	writeField(b, "ファイル名", info.FileName)
	writeField(b, "スライド数", fmt.Sprint(info.SlideCount))
	if !info.ProcessedAt.IsZero() {
		writeField(b, "処理日時", info.ProcessedAt.Format(timeLayout))
	}
	writeField(b, "処理方式", method)
	b.WriteString("\n")
}

// writeField writes a bullet only when value is non-empty.
func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, value)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt(n *int64, prefix, suffix string) string {
	if n == nil {
		return ""
	}
	return prefix + printer.Sprintf("%d", *n) + suffix
}

func joinInts(values []int, prefix, suffix string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = prefix + printer.Sprintf("%d", v) + suffix
	}
	return strings.Join(parts, "、")
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var engine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// StripFrontmatter removes a leading YAML frontmatter block.
func StripFrontmatter(md string) string {
	if !strings.HasPrefix(md, "---\n") {
		return md
	}
	rest := md[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return md
	}
	return strings.TrimLeft(rest[end+len("\n---\n"):], "\n")
}

// ToHTML converts a Markdown document to a standalone HTML page titled
// title. Frontmatter is dropped.
func ToHTML(md, title string) (string, error) {
	var body bytes.Buffer
	if err := engine.Convert([]byte(StripFrontmatter(md)), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"ja\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", template.HTMLEscapeString(title))
	b.WriteString("</head>\n<body>\n<article>\n")
	b.Write(body.Bytes())
	b.WriteString("</article>\n</body>\n</html>\n")
	return b.String(), nil
}
