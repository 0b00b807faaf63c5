// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package slidetext

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deckminer/pkg/types"
)

// fakeShape is a configurable types.Shape.
type fakeShape struct {
	text     *string
	table    *types.Table
	tableErr error
	children []types.Shape
	panicMsg string
	// tablePanic makes Table panic.
	tablePanic string
}

func (s fakeShape) TextFrame() (string, bool) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.text == nil {
		return "", false
	}
	return *s.text, true
}

func (s fakeShape) Table() (*types.Table, error) {
	if s.tablePanic != "" {
		panic(s.tablePanic)
	}
	return s.table, s.tableErr
}

func (s fakeShape) Children() []types.Shape { return s.children }

func textShape(s string) fakeShape { return fakeShape{text: &s} }

func TestShapeText_TextFrameOnly(t *testing.T) {
	for _, frame := range []string{"hello", "", "two\nlines", "  padded  "} {
		got, err := ShapeText(textShape(frame))
		require.NoError(t, err)
		assert.Equal(t, frame+"\n", got)
	}
}

func TestShapeText_Table(t *testing.T) {
	shape := fakeShape{table: &types.Table{Rows: [][]string{
		{"品名", " 単価 ", "数量"},
		{"", "  ", ""},
		{"ボールペン", "", "500"},
	}}}

	got, err := ShapeText(shape)
	require.NoError(t, err)
	assert.Equal(t, "品名 | 単価 | 数量\nボールペン | 500\n", got)
}

func TestShapeText_BrokenTableSwallowed(t *testing.T) {
	s := "caption"
	shape := fakeShape{text: &s, tableErr: errors.New("no table")}

	got, err := ShapeText(shape)
	require.NoError(t, err)
	assert.Equal(t, "caption\n", got)
}

func TestShapeText_PanickingTableKeepsFrame(t *testing.T) {
	s := "caption"
	shape := fakeShape{
		text:       &s,
		tablePanic: "corrupt table",
		children:   []types.Shape{textShape("child")},
	}

	got, err := ShapeText(shape)
	require.NoError(t, err)
	assert.Equal(t, "caption\nchild\n", got)

	alone := fakeShape{text: &s, tablePanic: "corrupt table"}
	got, err = ShapeText(alone)
	require.NoError(t, err)
	assert.Equal(t, "caption\n", got)
}

func TestShapeText_GroupRecursion(t *testing.T) {
	group := fakeShape{children: []types.Shape{
		textShape("first"),
		fakeShape{children: []types.Shape{textShape("nested")}},
		textShape("last"),
	}}

	got, err := ShapeText(group)
	require.NoError(t, err)
	assert.Equal(t, "first\nnested\nlast\n", got)
}

func TestShapeText_PanicRecovered(t *testing.T) {
	got, err := ShapeText(fakeShape{panicMsg: "corrupt xml"})
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestSlideTexts(t *testing.T) {
	slide := types.Slide{Number: 1, Shapes: []types.Shape{
		textShape("  タイトル  "),
		textShape("   "),
		fakeShape{panicMsg: "boom"},
		fakeShape{},
		fakeShape{table: &types.Table{Rows: [][]string{{"a", "b"}}}},
	}}

	assert.Equal(t, []string{"タイトル", "a | b"}, SlideTexts(slide))
}

func TestSlideTexts_Empty(t *testing.T) {
	texts := SlideTexts(types.Slide{Number: 2})
	assert.NotNil(t, texts)
	assert.Empty(t, texts)
}
