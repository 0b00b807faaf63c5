// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package slidetext walks a slide's shape tree and collects its text in
// traversal order.
package slidetext

import (
	"fmt"
	"strings"

	"github.com/pdiddy/deckminer/pkg/types"
)

// CellSeparator joins the non-empty cells of a table row.
const CellSeparator = " | "

// ShapeText returns all text owned by shape and its descendants. The text
// frame comes first (followed by a newline), then one line per non-empty
// table row, then each child shape in order.
//
// A table that cannot be read contributes nothing. Any other fault while
// walking the shape is returned as an error together with an empty string.
func ShapeText(shape types.Shape) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("reading shape: %v", r)
		}
	}()

	var b strings.Builder
	writeShape(&b, shape)
	return b.String(), nil
}

func writeShape(b *strings.Builder, shape types.Shape) {
	if shape == nil {
		return
	}
	if frame, ok := shape.TextFrame(); ok {
		b.WriteString(frame)
		b.WriteString("\n")
	}

	if lines, ok := tableLines(shape); ok {
		b.WriteString(lines)
	}

	for _, child := range shape.Children() {
		writeShape(b, child)
	}
}

// tableLines renders one line per non-empty table row. A table that errors
// or panics yields nothing; the rest of the shape is still read.
func tableLines(shape types.Shape) (lines string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			lines, ok = "", false
		}
	}()

	table, err := shape.Table()
	if err != nil || table == nil {
		return "", false
	}
	var b strings.Builder
	for _, row := range table.Rows {
		if line := rowLine(row); line != "" {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String(), true
}

func rowLine(cells []string) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, CellSeparator)
}

// SlideTexts returns the trimmed, non-empty text of each top-level shape on
// the slide, in shape order. Shapes that fail or yield only whitespace are
// omitted.
func SlideTexts(slide types.Slide) []string {
	texts := make([]string, 0, len(slide.Shapes))
	for _, shape := range slide.Shapes {
		text, err := ShapeText(shape)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
