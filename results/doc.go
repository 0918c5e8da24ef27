// Package results holds sparse search hits in compressed-sparse-row form.
//
// A SearchResults value has one row per query. Row i lists the target slot
// numbers and scores of query i's hits. Rows can be reordered or cleared
// independently; no operation recomputes scores.
package results
