// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pptx reads PowerPoint (.pptx) files into types.Deck. A .pptx is
// a zip of XML parts; only the parts needed to recover slide order and
// slide shape trees are read.
package pptx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/deckminer/pkg/types"
)

var (
	// ErrCorrupt wraps every failure caused by the file's content rather
	// than by the filesystem.
	ErrCorrupt = errors.New("corrupt presentation")

	// ErrNoTable is returned by Shape.Table for graphic frames that hold
	// something other than a table (charts, diagrams, media).
	ErrNoTable = errors.New("graphic frame has no table")
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	relationshipsNS  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Reader opens decks from the filesystem.
type Reader struct{}

// Open implements the deck opener used by the analysis paths.
func (Reader) Open(path string) (*types.Deck, error) { return Open(path) }

// Open reads the deck at path.
func Open(path string) (*types.Deck, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	deck, err := read(&zr.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	deck.FileName = filepath.Base(path)
	deck.Path = path
	return deck, nil
}

// Read reads a deck from an in-memory or otherwise random-access source.
func Read(r io.ReaderAt, size int64, name string) (*types.Deck, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	deck, err := read(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	deck.FileName = filepath.Base(name)
	return deck, nil
}

func read(zr *zip.Reader) (*types.Deck, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[strings.TrimPrefix(f.Name, "/")] = f
	}

	parts, err := slideParts(files)
	if err != nil {
		return nil, err
	}

	deck := &types.Deck{Slides: make([]types.Slide, 0, len(parts))}
	for i, name := range parts {
		f, ok := files[name]
		if !ok {
			return nil, fmt.Errorf("missing slide part %s", name)
		}
		shapes, err := readSlide(f)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+1, err)
		}
		deck.Slides = append(deck.Slides, types.Slide{Number: i + 1, Shapes: shapes})
	}
	return deck, nil
}

// slideParts returns slide part names in presentation order. The order
// comes from the presentation's slide id list; when that is unavailable
// the slide parts are ordered by their number.
func slideParts(files map[string]*zip.File) ([]string, error) {
	if parts, err := orderedSlideParts(files); err != nil {
		return nil, err
	} else if parts != nil {
		return parts, nil
	}

	if _, ok := files[presentationPart]; !ok && !hasSlides(files) {
		return nil, errors.New("not a presentation: no slides and no presentation part")
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for name := range files {
		if m := slidePartRe.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			found = append(found, numbered{name, n})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	parts := make([]string, len(found))
	for i, f := range found {
		parts[i] = f.name
	}
	return parts, nil
}

func hasSlides(files map[string]*zip.File) bool {
	for name := range files {
		if slidePartRe.MatchString(name) {
			return true
		}
	}
	return false
}

// orderedSlideParts resolves ppt/presentation.xml's sldIdLst through the
// presentation relationships. It returns nil, nil when either part is
// absent or the list is empty.
func orderedSlideParts(files map[string]*zip.File) ([]string, error) {
	presFile, ok := files[presentationPart]
	if !ok {
		return nil, nil
	}
	relsFile, ok := files[presentationRels]
	if !ok {
		return nil, nil
	}

	pres, err := decodeFile(presFile)
	if err != nil {
		return nil, fmt.Errorf("presentation part: %w", err)
	}
	list := pres.child("sldIdLst")
	if list == nil {
		return nil, nil
	}

	rels, err := decodeFile(relsFile)
	if err != nil {
		return nil, fmt.Errorf("presentation relationships: %w", err)
	}
	targets := make(map[string]string)
	for _, rel := range rels.children("Relationship") {
		targets[rel.attr("Id")] = rel.attr("Target")
	}

	var parts []string
	for _, id := range list.children("sldId") {
		target, ok := targets[relID(id)]
		if !ok {
			return nil, fmt.Errorf("slide relationship %q not found", relID(id))
		}
		parts = append(parts, resolveTarget(target))
	}
	return parts, nil
}

func relID(n *node) string {
	for _, a := range n.Attrs {
		if a.Name.Local == "id" && a.Name.Space == relationshipsNS {
			return a.Value
		}
	}
	return ""
}

func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("ppt", target)
}

func decodeFile(f *zip.File) (*node, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return decode(rc)
}

func readSlide(f *zip.File) ([]types.Shape, error) {
	root, err := decodeFile(f)
	if err != nil {
		return nil, err
	}
	tree := root.path("cSld", "spTree")
	if tree == nil {
		return []types.Shape{}, nil
	}
	return buildShapes(tree), nil
}
