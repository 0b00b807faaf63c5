// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Deck is an opened presentation: its file name and slides in
// presentation order.
type Deck struct {
	// FileName is the base name of the deck file (e.g. "proposal.pptx").
	FileName string

	// Path is the location the deck was read from.
	Path string

	// Slides lists the deck's slides, 1-based numbering preserved in Slide.Number.
	Slides []Slide
}

// Slide is one page of a deck.
type Slide struct {
	// Number is the 1-based slide position within the deck.
	Number int

	// Shapes are the slide's top-level shapes in document order.
	Shapes []Shape
}

// Shape is a drawable element on a slide. A shape may carry a text frame,
// a table, child shapes (groups), or none of these.
type Shape interface {
	// TextFrame returns the frame's text and true when the shape has a
	// text frame.
	TextFrame() (string, bool)

	// Table returns the shape's table. Shapes without table capability
	// return nil, nil. A shape that claims a table but cannot produce
	// one returns an error.
	Table() (*Table, error)

	// Children returns the shapes nested inside a group shape.
	Children() []Shape
}

// Table is a grid of cell texts, row-major.
type Table struct {
	Rows [][]string
}
