// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize converts raw pattern captures into canonical values:
// integers for amounts, trimmed strings for names, YYYY/MM/DD for dates.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Numeric captures outside [MinNumber, MaxNumber] are rejected.
const (
	MinNumber = 1
	MaxNumber = 1_000_000_000
)

var (
	currencyPrefixes = []string{"¥", "￥", "\\"}
	unitSuffixes     = []string{"円", "個", "枚", "部", "ロット", "名", "人"}
)

// Number parses a digit string that may carry ASCII or full-width
// thousands separators, whitespace, a leading currency sign and a trailing
// unit ("1,234,567円"). It returns false for anything that is not an
// integer in [MinNumber, MaxNumber].
func Number(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, p := range currencyPrefixes {
		s = strings.TrimPrefix(s, p)
	}
	for _, u := range unitSuffixes {
		s = strings.TrimSuffix(s, u)
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ',' || r == '，' || unicode.IsSpace(r):
			continue
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			return 0, false
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n < MinNumber || n > MaxNumber {
		return 0, false
	}
	return n, true
}

var bracketStripper = strings.NewReplacer(
	"[", "", "]", "",
	"（", "", "）", "",
	"(", "", ")", "",
	"【", "", "】", "",
)

// String returns the cleaned first capture group: surrounding whitespace
// removed and bracket characters stripped. An empty result means the
// capture carried nothing usable.
func String(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return CleanString(groups[0])
}

// CleanString trims s and removes bracket characters.
func CleanString(s string) string {
	return strings.TrimSpace(bracketStripper.Replace(strings.TrimSpace(s)))
}

// Date builds a YYYY/MM/DD string from (year, month[, day]) captures. The
// day defaults to 01 when absent. Captures without a four-digit year, or
// with an out-of-range month or day, are rejected.
func Date(groups []string) (string, bool) {
	if len(groups) < 2 || len(groups[0]) != 4 {
		return "", false
	}
	year, err := strconv.Atoi(groups[0])
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(groups[1])
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day := 1
	if len(groups) > 2 && groups[2] != "" {
		day, err = strconv.Atoi(groups[2])
		if err != nil || day < 1 || day > 31 {
			return "", false
		}
	}
	return fmt.Sprintf("%04d/%02d/%02d", year, month, day), true
}

// Dedupe returns vals with duplicates removed, keeping first-seen order.
// The result is never nil.
func Dedupe[T comparable](vals []T) []T {
	seen := make(map[T]struct{}, len(vals))
	out := make([]T, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FoldWidth maps full-width ASCII variants to their narrow forms and
// half-width katakana to full-width, so one pattern matches both spellings.
func FoldWidth(s string) string {
	return width.Fold.String(s)
}

// FoldSpace maps every space separator (NBSP, ideographic space, the
// U+2000 block) to an ASCII space. Line breaks are left alone.
func FoldSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r != ' ' && unicode.Is(unicode.Zs, r) {
			return ' '
		}
		return r
	}, s)
}

// FoldText applies FoldWidth then FoldSpace. Rule matching runs on its
// output.
func FoldText(s string) string {
	return FoldSpace(FoldWidth(s))
}
