// Package conv converts between integer widths with bounds checks.
//
// Binary fingerprint files store counts, strides and popcount offsets in
// fixed-width fields, and result indices are kept as uint32. Values read
// from disk are untrusted, so every conversion reports ErrOverflow instead
// of wrapping. Conversions that are safe by construction, such as loop
// indices, use plain casts.
package conv
