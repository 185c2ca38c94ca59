package structmap

import (
	"errors"
	"testing"

	"github.com/tsawler/tablemap/model"
)

const sampleMap = `{
  "pdf_path": "/tmp/report.pdf",
  "pages": [
    {
      "page_number": 1,
      "dimensions": [612, 792],
      "orientation": "portrait",
      "elements": [
        {
          "type": "text_block",
          "bbox": [100, 100, 220, 115],
          "text": "Name Amount",
          "words": [
            {"text": "Name", "x0": 100, "x1": 140, "top": 100, "bottom": 115},
            {"text": "Amount", "x0": 180, "x1": 220, "top": 100, "bottom": 115}
          ]
        },
        {"type": "line", "bbox": [90, 95, 400, 95], "geom_type": "line_horizontal"},
        {"type": "rect", "bbox": [90, 120, 400, 120.5], "geom_type": "rect"},
        {"type": "rect", "bbox": [90, 95, 400, 180], "geom_type": "rect"},
        {
          "type": "table",
          "bbox": [90, 95, 400, 180],
          "parsing_strategy": "text_only",
          "geometries": [
            {"x0": 160, "top": 95, "x1": 160, "bottom": 180, "geom_type": "virtual_line"}
          ]
        },
        {"type": "image", "bbox": [0, 600, 100, 700]}
      ]
    },
    {
      "page_number": 2,
      "dimensions": [792, 612],
      "orientation": "landscape",
      "elements": []
    }
  ]
}`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleMap))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if m.SourcePath != "/tmp/report.pdf" {
		t.Errorf("SourcePath = %q", m.SourcePath)
	}
	if len(m.Pages) != 2 {
		t.Fatalf("Pages = %d, want 2", len(m.Pages))
	}
}

func TestBuildPage(t *testing.T) {
	m, err := Parse([]byte(sampleMap))
	if err != nil {
		t.Fatal(err)
	}

	page, err := BuildPage(m.Pages[0])
	if err != nil {
		t.Fatalf("BuildPage() failed: %v", err)
	}

	if page.Number != 1 || page.Width != 612 || page.Height != 792 {
		t.Errorf("page header = %d %gx%g", page.Number, page.Width, page.Height)
	}
	if page.Orientation() != model.Portrait {
		t.Error("page 1 should be portrait")
	}

	if len(page.Runs) != 2 {
		t.Fatalf("Runs = %d, want 2 (one per word)", len(page.Runs))
	}
	if page.Runs[0].Text != "Name" || page.Runs[1].Text != "Amount" {
		t.Errorf("run texts = %q, %q", page.Runs[0].Text, page.Runs[1].Text)
	}

	// One real line plus one thin rect reclassified as a ruling; the fat
	// rect is dropped.
	if len(page.Rulings) != 2 {
		t.Fatalf("Rulings = %d, want 2", len(page.Rulings))
	}
	for _, r := range page.Rulings {
		if !r.IsHorizontal() {
			t.Errorf("ruling %+v should be horizontal", r)
		}
	}

	if len(page.Hints) != 1 {
		t.Fatalf("Hints = %d, want 1", len(page.Hints))
	}
	hint := page.Hints[0]
	if hint.Strategy != model.KindAlignmentOnly {
		t.Errorf("hint strategy = %v, want alignment-only", hint.Strategy)
	}
	if len(hint.Separators) != 1 || hint.Separators[0] != 160 {
		t.Errorf("hint separators = %v", hint.Separators)
	}
}

func TestBuildPageMissingDimensions(t *testing.T) {
	_, err := BuildPage(PageData{PageNumber: 3})
	if err == nil {
		t.Fatal("missing dimensions should fail")
	}
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("error type = %T, want MalformedInputError", err)
	}
	if malformed.Page != 3 {
		t.Errorf("error page = %d, want 3", malformed.Page)
	}
}

func TestBuildPageDegenerateDimensions(t *testing.T) {
	_, err := BuildPage(PageData{PageNumber: 1, Dimensions: []float64{612, 0}})
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("degenerate dimensions should yield MalformedInputError, got %v", err)
	}
}

func TestBuildPageMissingElementBBox(t *testing.T) {
	pd := PageData{
		PageNumber: 1,
		Dimensions: []float64{612, 792},
		Elements:   []Element{{Type: ElementLine}},
	}
	_, err := BuildPage(pd)
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("element without bbox should yield MalformedInputError, got %v", err)
	}
}

func TestBuildPagesIsolatesFailures(t *testing.T) {
	m := &Map{Pages: []PageData{
		{PageNumber: 1, Dimensions: []float64{612, 792}},
		{PageNumber: 2}, // malformed
		{PageNumber: 3, Dimensions: []float64{612, 792}},
	}}
	pages, errs := m.BuildPages()
	if len(pages) != 2 {
		t.Errorf("pages = %d, want 2", len(pages))
	}
	if len(errs) != 1 {
		t.Errorf("errs = %d, want 1", len(errs))
	}
}

func TestBuildPageTextBlockWithoutWords(t *testing.T) {
	pd := PageData{
		PageNumber: 1,
		Dimensions: []float64{612, 792},
		Elements: []Element{{
			Type: ElementText,
			BBox: []float64{10, 10, 60, 25},
			Text: "whole block",
		}},
	}
	page, err := BuildPage(pd)
	if err != nil {
		t.Fatalf("BuildPage() failed: %v", err)
	}
	if len(page.Runs) != 1 || page.Runs[0].Text != "whole block" {
		t.Errorf("runs = %+v", page.Runs)
	}
}
