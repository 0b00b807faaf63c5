// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pptx

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// node is a generic XML element that keeps its children in document
// order. Slide shape trees interleave several element types, so ordered
// generic decoding is simpler than typed structs.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

// decode parses one XML part. Parts declaring a non-UTF-8 encoding are
// transcoded.
func decode(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	var root node
	if err := dec.Decode(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// child returns the first direct child with the given local name.
func (n *node) child(local string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

// children returns all direct children with the given local name.
func (n *node) children(local string) []*node {
	var out []*node
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// path follows a chain of first-child lookups.
func (n *node) path(locals ...string) *node {
	cur := n
	for _, l := range locals {
		if cur = cur.child(l); cur == nil {
			return nil
		}
	}
	return cur
}

func (n *node) attr(local string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// bodyText renders a txBody: paragraphs joined by newlines, runs and
// fields concatenated, line breaks as newlines.
func bodyText(body *node) string {
	paras := body.children("p")
	lines := make([]string, 0, len(paras))
	for _, p := range paras {
		var b strings.Builder
		for i := range p.Nodes {
			el := &p.Nodes[i]
			switch el.XMLName.Local {
			case "r", "fld":
				if t := el.child("t"); t != nil {
					b.WriteString(t.Text)
				}
			case "br":
				b.WriteString("\n")
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
