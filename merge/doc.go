// Package merge joins tables that continue across page breaks.
//
// A table qualifies for continuation only when the evidence is strong:
// both fragments are bordered, the pages are consecutive with the same
// orientation, the first fragment runs to the bottom content edge of its
// page, the second starts at the top content edge of the next, and their
// column-boundary signatures agree after normalizing for page offset.
// Anything weaker stays as separate per-page tables; a wrong merge
// corrupts data while a missed merge only leaves two tables.
//
// Repeated header rows on continuation pages are recognized by normalized
// text comparison and dropped from the combined row sequence.
package merge
