// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import "fmt"

// Built-in category names.
const (
	CategoryPrice     = "price"
	CategoryQuantity  = "quantity"
	CategoryDeadline  = "deadline"
	CategoryCompany   = "company"
	CategoryDate      = "date"
	CategoryEventType = "event_type"
	CategoryClient    = "client"
	CategoryNovelty   = "novelty"
)

// SkippedRule records a rule that could not be compiled.
type SkippedRule struct {
	Category string
	Expr     string
	Err      error
}

// Registry maps category names to their rules and holds the keyword
// vocabulary. Categories are evaluated in registration order.
type Registry struct {
	order    []*Category
	byName   map[string]*Category
	keywords []string
	skipped  []SkippedRule
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Category)}
}

// Register adds matchers to the named category, creating it if needed.
// Registering an existing category under a different kind is an error.
func (r *Registry) Register(name string, kind Kind, matchers ...Matcher) error {
	c, ok := r.byName[name]
	if !ok {
		c = &Category{Name: name, Kind: kind}
		r.byName[name] = c
		r.order = append(r.order, c)
	} else if c.Kind != kind {
		return fmt.Errorf("category %q is %s, not %s", name, c.Kind, kind)
	}
	c.Matchers = append(c.Matchers, matchers...)
	return nil
}

// RegisterPatterns compiles each expression and registers it under name.
// Expressions that fail to compile are skipped and reported by Skipped;
// the remaining rules are still registered.
func (r *Registry) RegisterPatterns(name string, kind Kind, exprs ...string) error {
	matchers := make([]Matcher, 0, len(exprs))
	for _, expr := range exprs {
		p, err := Compile(expr)
		if err != nil {
			r.skipped = append(r.skipped, SkippedRule{Category: name, Expr: expr, Err: err})
			continue
		}
		matchers = append(matchers, p)
	}
	return r.Register(name, kind, matchers...)
}

// AddKeywords appends terms to the keyword vocabulary, ignoring repeats.
func (r *Registry) AddKeywords(words ...string) {
	for _, w := range words {
		if w == "" || r.hasKeyword(w) {
			continue
		}
		r.keywords = append(r.keywords, w)
	}
}

func (r *Registry) hasKeyword(w string) bool {
	for _, k := range r.keywords {
		if k == w {
			return true
		}
	}
	return false
}

// Category returns the named category.
func (r *Registry) Category(name string) (*Category, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Categories returns all categories in registration order.
func (r *Registry) Categories() []*Category {
	return append([]*Category(nil), r.order...)
}

// Keywords returns the keyword vocabulary.
func (r *Registry) Keywords() []string {
	return append([]string(nil), r.keywords...)
}

// Skipped returns the rules dropped because they failed to compile.
func (r *Registry) Skipped() []SkippedRule {
	return append([]SkippedRule(nil), r.skipped...)
}

// DefaultKeywords is the built-in domain vocabulary.
var DefaultKeywords = []string{
	"ノベルティ", "景品", "グッズ", "プレゼント",
	"キャンペーン", "展示会", "イベント", "セミナー", "プロモーション",
	"エコ", "環境", "SDGs", "オリジナル", "カスタム",
}

const (
	amount  = `(\d{1,3}(?:,\d{3})+)`
	count   = `(\d{1,3}(?:,\d{3})*)`
	notWord = `[^\s、。\n]`
)

var defaultPatterns = []struct {
	name  string
	kind  Kind
	exprs []string
}{
	{CategoryPrice, KindNumber, []string{
		`(?:単価|価格|費用|金額)[\s:：]*[¥￥\\]?\s*` + amount + `(?:\s*円)?`,
		`[¥￥\\]\s*` + amount,
		amount + `\s*円`,
		`(?:単価|価格|費用|金額)[\s:：]*(\d+)\s*円`,
	}},
	{CategoryQuantity, KindNumber, []string{
		`(?:数量|個数|枚数|ロット|部数)[\s:：]*` + count + `\s*(?:個|枚|部|ロット)?`,
		count + `\s*(?:個|枚|部|ロット)`,
		`最大\s*` + count,
	}},
	{CategoryDeadline, KindString, []string{
		`(?:納期|納品|お届け)[\s:：]*(\d+\s*(?:日|営業日|週間|ヶ月))`,
		`(\d{4}年\d{1,2}月(?:\d{1,2}日)?)\s*(?:納品|納期|想定)`,
		`(\d{1,2}月(?:上旬|中旬|下旬))`,
	}},
	{CategoryCompany, KindString, []string{
		`(?:株式会社|有限会社)\s*(` + notWord + `+)`,
		`(` + notWord + `+)\s*(?:株式会社|有限会社)`,
		`\(株\)\s*(` + notWord + `+)`,
		`(` + notWord + `+)\s*\(株\)`,
		`(` + notWord + `+様)`,
		`クライアント[\s:：]*(` + notWord + `+)`,
	}},
	{CategoryDate, KindDate, []string{
		`(\d{4})[年/\-](\d{1,2})[月/\-](\d{1,2})日?`,
		`(\d{4})[年/](\d{1,2})月`,
		`(\d{1,2})月(\d{1,2})日`,
	}},
	{CategoryEventType, KindString, []string{
		`(キャンペーン|イベント|展示会|セミナー|プロモーション|運営マニュアル|進行台本|提案書|企画書)`,
	}},
	{CategoryClient, KindString, []string{
		`クライアント[\s:：]+([^\s\n]+)`,
		`【([^】]+)様?】`,
	}},
	{CategoryNovelty, KindString, []string{
		`(ノベルティ|景品|グッズ|記念品|プレゼント)`,
		`(オリジナル` + notWord + `{2,10})`,
	}},
}

// DefaultRegistry returns a registry holding the built-in categories and
// keyword vocabulary.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range defaultPatterns {
		// Built-in kinds never conflict.
		_ = r.RegisterPatterns(p.name, p.kind, p.exprs...)
	}
	r.AddKeywords(DefaultKeywords...)
	return r
}
