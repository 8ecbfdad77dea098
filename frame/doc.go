// Package frame implements a small column-oriented table used throughout
// the library: named, typed columns over a shared integer row index.
//
// It is deliberately minimal. Feature generators, transformers, models and
// evaluators all exchange *frame.Frame values; the row index survives
// filtering and splitting so that downstream consumers (per-row caches,
// train/test splits) can refer back to original rows.
package frame
