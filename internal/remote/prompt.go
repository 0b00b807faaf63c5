// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"bytes"
	"regexp"
	"strings"
	"text/template"
)

// DefaultMaxPromptChars is how much deck text is sent to the service.
const DefaultMaxPromptChars = 3000

var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`あなたは販促・イベント事業の資料を読み解くデータ分析担当です。
次のPowerPoint資料のテキストから、指定した項目を抽出してください。

【ファイル名】
{{.FileName}}
{{- if .ClientHint}}
（クライアント名の手がかり: {{.ClientHint}}）
{{- end}}

【抽出項目】
1. client_name: クライアント名（「様」「株式会社」「有限会社」は付けない）
2. event_date: 実施時期（YYYY/MM/DD 形式。複数ある場合は最も重要なもの）
3. event_type: イベント種別（提案書、運営マニュアル、進行台本、企画書、キャンペーン、イベント、展示会、セミナーなど）
4. event_description: 内容の概要（1〜2文）
5. unit_price: 単価（円。数値のみ）
6. total_cost: 総費用（円。数値のみ）
7. order_quantity: 発注数量（数値のみ）
8. target_count: 対象人数（「先着XX名」など。数値のみ）
9. deadline: 納期（「14営業日」「2024年8月」など資料の表現のまま）
10. partner_companies: 協力会社名のリスト（最大5社）
11. novelty_items: ノベルティ・景品の具体的な名称のリスト（最大5個）
12. venue: 会場名
13. keywords: 重要なキーワードのリスト（最大10個）

【スライドテキスト】
{{.Text}}

【出力形式】
次の形のJSONだけを出力してください。分からない項目は null、該当のないリストは [] とします。
{
  "client_name": "クライアント名",
  "event_date": "2024/01/01",
  "event_type": "種別",
  "event_description": "概要",
  "unit_price": 500,
  "total_cost": 300000,
  "order_quantity": 1000,
  "target_count": 500,
  "deadline": "14営業日",
  "partner_companies": ["会社1", "会社2"],
  "novelty_items": ["景品1", "景品2"],
  "venue": "会場名",
  "keywords": ["キーワード1", "キーワード2"]
}
説明文は不要です。
`))

type promptData struct {
	FileName   string
	ClientHint string
	Text       string
}

var clientHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`【([^】]+)】`),
	regexp.MustCompile(`\[([^\]]+)\]`),
}

// ClientHint extracts a bracketed client name from a deck file name, e.g.
// "【ABC商事様】企画書.pptx" gives "ABC商事". The honorific is dropped.
func ClientHint(fileName string) string {
	for _, re := range clientHintPatterns {
		if m := re.FindStringSubmatch(fileName); m != nil {
			if name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), "様")); name != "" {
				return name
			}
		}
	}
	return ""
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// renderPrompt builds the extraction prompt for one deck.
func renderPrompt(fileName string, texts []string, maxChars int) (string, error) {
	var buf bytes.Buffer
	err := analysisPromptTmpl.Execute(&buf, promptData{
		FileName:   fileName,
		ClientHint: ClientHint(fileName),
		Text:       truncateRunes(strings.Join(texts, "\n\n"), maxChars),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
