package model

// Orientation describes the aspect of a page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// TextRun is a contiguous span of characters on one page with its position.
// Runs are produced by the upstream document parser and are read-only input.
type TextRun struct {
	Text     string
	BBox     BBox
	Baseline float64 // y coordinate of the text baseline; 0 when unknown
	FontSize float64 // 0 when unknown
}

// CharWidth estimates the average character width of the run.
func (r TextRun) CharWidth() float64 {
	n := len([]rune(r.Text))
	if n == 0 {
		return 0
	}
	return r.BBox.Width() / float64(n)
}

// Ruling is a drawn line segment on one page. Thin filled rectangles are
// normalized into rulings by the structure-map loader.
type Ruling struct {
	X0, Y0    float64
	X1, Y1    float64
	Thickness float64
}

// IsHorizontal reports whether the ruling runs left to right. A perfectly
// flat segment is horizontal; otherwise the longer axis decides.
func (r Ruling) IsHorizontal() bool {
	if r.Y0 == r.Y1 {
		return true
	}
	if r.X0 == r.X1 {
		return false
	}
	return abs(r.X1-r.X0) > abs(r.Y1-r.Y0)
}

// IsVertical reports whether the ruling runs top to bottom.
func (r Ruling) IsVertical() bool {
	return !r.IsHorizontal()
}

// Position returns the ruling's coordinate on its alignment axis: y for a
// horizontal ruling, x for a vertical one.
func (r Ruling) Position() float64 {
	if r.IsHorizontal() {
		return (r.Y0 + r.Y1) / 2
	}
	return (r.X0 + r.X1) / 2
}

// Extent returns the ruling's span on the perpendicular axis.
func (r Ruling) Extent() (min, max float64) {
	if r.IsHorizontal() {
		if r.X0 <= r.X1 {
			return r.X0, r.X1
		}
		return r.X1, r.X0
	}
	if r.Y0 <= r.Y1 {
		return r.Y0, r.Y1
	}
	return r.Y1, r.Y0
}

// Length returns the ruling's length along its alignment axis.
func (r Ruling) Length() float64 {
	min, max := r.Extent()
	return max - min
}

// BBox returns the ruling's bounding box.
func (r Ruling) BBox() BBox {
	return NewBBox(r.X0, r.Y0, r.X1, r.Y1)
}

// RegionHint marks a region the upstream parser already tagged as a table,
// together with the strategy it suggested. Detectors treat hints as
// candidate regions but still scan the rest of the page.
type RegionHint struct {
	BBox     BBox
	Strategy Kind
	// Separators holds pre-computed column separator x positions for
	// alignment-only hints (virtual lines in the structure map).
	Separators []float64
}

// Page is the per-page slice of the structure map: positioned text runs and
// rulings plus the page dimensions. Read-only input.
type Page struct {
	Number  int // 1-indexed
	Width   float64
	Height  float64
	Runs    []TextRun
	Rulings []Ruling
	Hints   []RegionHint
}

// Orientation derives the page orientation: landscape iff width > height.
func (p *Page) Orientation() Orientation {
	if p.Width > p.Height {
		return Landscape
	}
	return Portrait
}

// RunsIn returns the text runs whose boxes lie inside the region, allowing
// the given padding on every side.
func (p *Page) RunsIn(region BBox, pad float64) []TextRun {
	expanded := region.Expand(pad)
	var out []TextRun
	for _, r := range p.Runs {
		if r.BBox.X0 >= expanded.X0 && r.BBox.X1 <= expanded.X1 &&
			r.BBox.Top >= expanded.Top && r.BBox.Bottom <= expanded.Bottom {
			out = append(out, r)
		}
	}
	return out
}

// RulingsIn returns the rulings intersecting the region.
func (p *Page) RulingsIn(region BBox) []Ruling {
	var out []Ruling
	for _, r := range p.Rulings {
		if r.BBox().Intersects(region) {
			out = append(out, r)
		}
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
