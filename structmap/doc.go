// Package structmap reads the structure-map JSON produced by the upstream
// document parser and converts it into model pages. A structure map holds
// one entry per page: dimensions, orientation, and a flat element list of
// text blocks (with positioned words), line segments, rectangles, and
// pre-tagged table regions.
//
// Thin rectangles are normalized into ruling lines during conversion, the
// same reclassification the upstream parser applies. Pages missing required
// geometry produce a MalformedInputError so callers can skip them while the
// rest of the document proceeds.
package structmap
