// Package model defines the shared data types for table reconstruction:
// page-level input primitives (text runs, ruling lines), detected table
// structure (bands, cells, tables), and the merged cross-page output.
//
// Coordinates follow the structure-map convention: the origin is the top-left
// corner of the page, x increases to the right and y increases downward. A
// bounding box is stored as (X0, Top, X1, Bottom) with Top < Bottom.
//
// Input types (TextRun, Ruling, Page) are produced by the upstream document
// parser and are never mutated here. Output types (Band, Cell, Table,
// MergedTable) are created per detection pass.
package model
