// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pptx

import "github.com/pdiddy/deckminer/pkg/types"

// shape is the types.Shape built from one shape-tree element.
type shape struct {
	text     string
	hasText  bool
	table    *types.Table
	tableErr error
	children []types.Shape
}

func (s *shape) TextFrame() (string, bool)    { return s.text, s.hasText }
func (s *shape) Table() (*types.Table, error) { return s.table, s.tableErr }
func (s *shape) Children() []types.Shape      { return s.children }

// buildShapes converts the shape elements under a spTree or grpSp.
// Non-shape children (properties, extensions) are ignored.
func buildShapes(parent *node) []types.Shape {
	shapes := make([]types.Shape, 0, len(parent.Nodes))
	for i := range parent.Nodes {
		el := &parent.Nodes[i]
		switch el.XMLName.Local {
		case "sp":
			s := &shape{}
			if body := el.child("txBody"); body != nil {
				s.text, s.hasText = bodyText(body), true
			}
			shapes = append(shapes, s)
		case "graphicFrame":
			s := &shape{}
			if tbl := el.path("graphic", "graphicData", "tbl"); tbl != nil {
				s.table = readTable(tbl)
			} else {
				s.tableErr = ErrNoTable
			}
			shapes = append(shapes, s)
		case "grpSp":
			shapes = append(shapes, &shape{children: buildShapes(el)})
		case "pic", "cxnSp", "contentPart":
			shapes = append(shapes, &shape{})
		case "AlternateContent":
			// Prefer the fallback rendering, which uses only core elements.
			alt := el.child("Fallback")
			if alt == nil {
				alt = el.child("Choice")
			}
			if alt != nil {
				shapes = append(shapes, buildShapes(alt)...)
			}
		}
	}
	return shapes
}

func readTable(tbl *node) *types.Table {
	rows := tbl.children("tr")
	t := &types.Table{Rows: make([][]string, 0, len(rows))}
	for _, tr := range rows {
		cells := tr.children("tc")
		row := make([]string, 0, len(cells))
		for _, tc := range cells {
			text := ""
			if body := tc.child("txBody"); body != nil {
				text = bodyText(body)
			}
			row = append(row, text)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
