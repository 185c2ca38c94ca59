package merge

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/tablemap/model"
)

// Config holds the merge acceptance thresholds.
type Config struct {
	// BottomTolerance is how far above the bottom content edge a table
	// may end and still count as running to the page break.
	BottomTolerance float64

	// TopTolerance is how far below the top content edge a continuation
	// table may start.
	TopTolerance float64

	// SignatureTolerance is the allowed relative deviation between
	// normalized column boundary positions, as a fraction of table width.
	SignatureTolerance float64

	// TrimRepeatedHeaders drops continuation-page rows whose text repeats
	// the leading rows of the first fragment. MaxHeaderRows caps how many
	// leading rows are compared.
	TrimRepeatedHeaders bool
	MaxHeaderRows       int
}

// DefaultConfig returns the standard merge thresholds.
func DefaultConfig() Config {
	return Config{
		BottomTolerance:     12.0,
		TopTolerance:        2.0,
		SignatureTolerance:  0.02,
		TrimRepeatedHeaders: true,
		MaxHeaderRows:       3,
	}
}

// PageTables pairs a page with the tables detected on it, the unit the
// merger folds over.
type PageTables struct {
	Page   *model.Page
	Tables []*model.Table
}

// Merger folds per-page detection results into logical tables, joining
// fragments that continue across page breaks.
type Merger struct {
	config Config
	log    *zap.Logger
}

// New returns a Merger. A nil logger disables merge-decision logging.
func New(config Config, log *zap.Logger) *Merger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{config: config, log: log}
}

// contentEdges holds the extreme table edges observed for one page
// orientation. Documents place tables at consistent margins, so the
// extremes across all pages serve as the content edges to test page-break
// cuts against.
type contentEdges struct {
	top    float64
	bottom float64
}

// Merge folds the pages, in page order, into logical tables. Tables that
// never qualify for continuation pass through unchanged. The result keeps
// document order.
func (m *Merger) Merge(pages []PageTables) []model.LogicalTable {
	sorted := make([]PageTables, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Page.Number < sorted[j].Page.Number
	})
	edges := collectEdges(sorted)

	var out []model.LogicalTable
	var open *model.MergedTable
	openPage := 0

	flush := func() {
		if open == nil {
			return
		}
		if parts := open.Constituents(); len(parts) == 1 {
			out = append(out, parts[0])
		} else {
			out = append(out, open)
		}
		open = nil
	}

	for _, pt := range sorted {
		tables := make([]*model.Table, len(pt.Tables))
		copy(tables, pt.Tables)
		sort.Slice(tables, func(i, j int) bool {
			return tables[i].BBox.Top < tables[j].BBox.Top
		})

		for i, t := range tables {
			last := i == len(tables)-1
			if open != nil && i == 0 {
				if reason := m.continuationBlocked(open, openPage, pt.Page, t, edges); reason == "" {
					open.Append(t, m.headerSkip(open, t))
					openPage = pt.Page.Number
					if !(last && m.reachesBottom(t, edges)) {
						flush()
					}
					continue
				} else {
					m.log.Debug("merge rejected",
						zap.Int("open_page", openPage),
						zap.Int("page", pt.Page.Number),
						zap.String("reason", reason))
				}
			}
			flush()
			if t.Kind == model.KindBordered && last && m.reachesBottom(t, edges) {
				open = model.NewMergedTable(t)
				openPage = pt.Page.Number
			} else {
				out = append(out, t)
			}
		}
		if len(tables) == 0 {
			// A page with no tables breaks any open chain.
			flush()
		}
	}
	flush()
	return out
}

// continuationBlocked returns the empty string when t may continue the
// open chain, or the first failed condition otherwise.
func (m *Merger) continuationBlocked(open *model.MergedTable, openPage int, page *model.Page, t *model.Table, edges map[model.Orientation]contentEdges) string {
	if t.Kind != model.KindBordered {
		return fmt.Sprintf("extraction kind %s", t.Kind)
	}
	if page.Number != openPage+1 {
		return fmt.Sprintf("pages %d and %d not consecutive", openPage, page.Number)
	}
	prev := open.Last()
	if t.Orientation != prev.Orientation {
		return fmt.Sprintf("orientation %s does not match %s", t.Orientation, prev.Orientation)
	}
	e, ok := edges[t.Orientation]
	if !ok {
		return "no content edges for orientation"
	}
	if t.BBox.Top > e.top+m.config.TopTolerance {
		return fmt.Sprintf("table starts %.1f below top content edge", t.BBox.Top-e.top)
	}
	if !open.Signature().Matches(t.Signature(), m.config.SignatureTolerance) {
		return "column signatures differ"
	}
	return ""
}

func (m *Merger) reachesBottom(t *model.Table, edges map[model.Orientation]contentEdges) bool {
	e, ok := edges[t.Orientation]
	if !ok {
		return false
	}
	return t.BBox.Bottom >= e.bottom-m.config.BottomTolerance
}

// collectEdges finds the extreme top and bottom table edges per page
// orientation across the whole document.
func collectEdges(pages []PageTables) map[model.Orientation]contentEdges {
	edges := map[model.Orientation]contentEdges{}
	for _, pt := range pages {
		for _, t := range pt.Tables {
			if t.Kind != model.KindBordered {
				continue
			}
			e, ok := edges[t.Orientation]
			if !ok {
				e = contentEdges{top: math.Inf(1), bottom: math.Inf(-1)}
			}
			e.top = math.Min(e.top, t.BBox.Top)
			e.bottom = math.Max(e.bottom, t.BBox.Bottom)
			edges[t.Orientation] = e
		}
	}
	return edges
}

// headerSkip counts leading rows of t whose text repeats the leading rows
// of the chain's first fragment.
func (m *Merger) headerSkip(open *model.MergedTable, t *model.Table) int {
	if !m.config.TrimRepeatedHeaders {
		return 0
	}
	first := open.First().Grid()
	next := t.Grid()
	limit := m.config.MaxHeaderRows
	if limit > len(first) {
		limit = len(first)
	}
	// Never skip every row of the continuation.
	if limit > len(next)-1 {
		limit = len(next) - 1
	}
	skip := 0
	for skip < limit && rowKey(first[skip]) == rowKey(next[skip]) && rowKey(next[skip]) != "" {
		skip++
	}
	return skip
}

// rowKey builds a comparison key from a grid row: case-folded, Unicode
// normalized, whitespace collapsed.
func rowKey(row []model.CellData) string {
	parts := make([]string, len(row))
	for i, cell := range row {
		parts[i] = normalizeText(cell.Text)
	}
	key := strings.Join(parts, "\x1f")
	if strings.Trim(key, "\x1f") == "" {
		return ""
	}
	return key
}

func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
