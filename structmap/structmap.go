package structmap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsawler/tablemap/model"
)

// Element type tags used in structure-map JSON.
const (
	ElementText  = "text_block"
	ElementLine  = "line"
	ElementRect  = "rect"
	ElementTable = "table"
	ElementImage = "image"
)

// Geometry type tags.
const (
	GeomHorizontal = "line_horizontal"
	GeomVertical   = "line_vertical"
	GeomVirtual    = "virtual_line"
	GeomRect       = "rect"
)

// Parsing strategy tags on pre-tagged table regions.
const (
	StrategyLattice  = "lattice"
	StrategyStream   = "stream"
	StrategyTextOnly = "text_only"
)

// Map is a decoded structure map: the upstream parser's per-page record of
// positioned primitives.
type Map struct {
	SourcePath string     `json:"pdf_path"`
	Pages      []PageData `json:"pages"`
}

// PageData is the raw JSON form of one page.
type PageData struct {
	PageNumber  int       `json:"page_number"`
	Dimensions  []float64 `json:"dimensions"`
	Orientation string    `json:"orientation"`
	Elements    []Element `json:"elements"`
}

// Element is one structure-map primitive. The set of populated fields
// depends on Type.
type Element struct {
	Type            string     `json:"type"`
	BBox            []float64  `json:"bbox"`
	Text            string     `json:"text,omitempty"`
	Words           []Word     `json:"words,omitempty"`
	GeomType        string     `json:"geom_type,omitempty"`
	LineWidth       float64    `json:"linewidth,omitempty"`
	ParsingStrategy string     `json:"parsing_strategy,omitempty"`
	Geometries      []Geometry `json:"geometries,omitempty"`
}

// Word is one positioned word inside a text block.
type Word struct {
	Text   string  `json:"text"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Size   float64 `json:"size,omitempty"`
}

// Geometry is a line or virtual line attached to a pre-tagged table region.
type Geometry struct {
	X0       float64 `json:"x0"`
	Top      float64 `json:"top"`
	X1       float64 `json:"x1"`
	Bottom   float64 `json:"bottom"`
	GeomType string  `json:"geom_type"`
}

// MalformedInputError reports a page whose geometry is unusable. The page
// is skipped; the rest of the document continues.
type MalformedInputError struct {
	Page   int
	Detail string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed structure map: page %d: %s", e.Page, e.Detail)
}

// Load reads and parses a structure-map JSON file.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structure map: %w", err)
	}
	return Parse(data)
}

// Parse decodes structure-map JSON.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse structure map: %w", err)
	}
	return &m, nil
}

// BuildPage converts one page record into a model page, validating required
// geometry. Returns a MalformedInputError when dimensions are missing or
// degenerate, or when an element carries an unusable bounding box.
func BuildPage(pd PageData) (*model.Page, error) {
	if pd.PageNumber <= 0 {
		return nil, &MalformedInputError{Page: pd.PageNumber, Detail: "missing page number"}
	}
	if len(pd.Dimensions) < 2 {
		return nil, &MalformedInputError{Page: pd.PageNumber, Detail: "missing dimensions"}
	}
	width, height := pd.Dimensions[0], pd.Dimensions[1]
	if width <= 0 || height <= 0 {
		return nil, &MalformedInputError{Page: pd.PageNumber, Detail: fmt.Sprintf("degenerate dimensions %gx%g", width, height)}
	}

	page := &model.Page{
		Number: pd.PageNumber,
		Width:  width,
		Height: height,
	}

	for i, el := range pd.Elements {
		switch el.Type {
		case ElementText:
			runs, err := runsFromBlock(pd.PageNumber, i, el)
			if err != nil {
				return nil, err
			}
			page.Runs = append(page.Runs, runs...)

		case ElementLine, ElementRect:
			ruling, ok, err := rulingFromElement(pd.PageNumber, i, el)
			if err != nil {
				return nil, err
			}
			if ok {
				page.Rulings = append(page.Rulings, ruling)
			}

		case ElementTable:
			hint, err := hintFromElement(pd.PageNumber, i, el)
			if err != nil {
				return nil, err
			}
			page.Hints = append(page.Hints, hint)

		case ElementImage:
			// Images carry no tabular structure.

		default:
			// Unknown element types are ignored rather than fatal; the
			// upstream parser adds kinds faster than consumers do.
		}
	}

	return page, nil
}

func elementBBox(page, idx int, el Element) (model.BBox, error) {
	if len(el.BBox) < 4 {
		return model.BBox{}, &MalformedInputError{
			Page:   page,
			Detail: fmt.Sprintf("element %d (%s) missing bbox", idx, el.Type),
		}
	}
	return model.NewBBox(el.BBox[0], el.BBox[1], el.BBox[2], el.BBox[3]), nil
}

func runsFromBlock(page, idx int, el Element) ([]model.TextRun, error) {
	if len(el.Words) == 0 {
		// A block without word detail degrades to a single run.
		box, err := elementBBox(page, idx, el)
		if err != nil {
			return nil, err
		}
		if el.Text == "" {
			return nil, nil
		}
		return []model.TextRun{{
			Text:     el.Text,
			BBox:     box,
			Baseline: box.Bottom,
		}}, nil
	}
	runs := make([]model.TextRun, 0, len(el.Words))
	for _, w := range el.Words {
		if w.Text == "" {
			continue
		}
		runs = append(runs, model.TextRun{
			Text:     w.Text,
			BBox:     model.NewBBox(w.X0, w.Top, w.X1, w.Bottom),
			Baseline: w.Bottom,
			FontSize: w.Size,
		})
	}
	return runs, nil
}

// rulingFromElement converts a line element, or a rectangle thin enough to
// be a drawn border, into a ruling. Fat rectangles are dropped: filled
// panels say nothing about grid structure.
func rulingFromElement(page, idx int, el Element) (model.Ruling, bool, error) {
	box, err := elementBBox(page, idx, el)
	if err != nil {
		return model.Ruling{}, false, err
	}

	thin := func() bool {
		return (box.Width() > 5 && box.Height() <= 1) || (box.Height() > 5 && box.Width() <= 1)
	}

	if el.Type == ElementRect && !thin() {
		return model.Ruling{}, false, nil
	}

	r := model.Ruling{Thickness: el.LineWidth}
	if box.Width() >= box.Height() {
		y := (box.Top + box.Bottom) / 2
		r.X0, r.Y0, r.X1, r.Y1 = box.X0, y, box.X1, y
		if r.Thickness == 0 {
			r.Thickness = box.Height()
		}
	} else {
		x := (box.X0 + box.X1) / 2
		r.X0, r.Y0, r.X1, r.Y1 = x, box.Top, x, box.Bottom
		if r.Thickness == 0 {
			r.Thickness = box.Width()
		}
	}
	return r, true, nil
}

func hintFromElement(page, idx int, el Element) (model.RegionHint, error) {
	box, err := elementBBox(page, idx, el)
	if err != nil {
		return model.RegionHint{}, err
	}
	hint := model.RegionHint{BBox: box}
	switch el.ParsingStrategy {
	case StrategyLattice:
		hint.Strategy = model.KindBordered
	case StrategyStream:
		hint.Strategy = model.KindSpatial
	case StrategyTextOnly:
		hint.Strategy = model.KindAlignmentOnly
	default:
		hint.Strategy = model.KindSpatial
	}
	for _, g := range el.Geometries {
		if g.GeomType == GeomVirtual && g.X0 == g.X1 {
			hint.Separators = append(hint.Separators, g.X0)
		}
	}
	return hint, nil
}

// BuildPages converts every page record, collecting per-page errors instead
// of aborting. The returned slice holds the pages that validated, in map
// order; errs holds one MalformedInputError per skipped page.
func (m *Map) BuildPages() (pages []*model.Page, errs []error) {
	for _, pd := range m.Pages {
		page, err := BuildPage(pd)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pages = append(pages, page)
	}
	return pages, errs
}
