// Package metadata describes a fingerprint collection and decides whether two
// collections can be searched against each other.
package metadata

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Metadata is descriptive information about a fingerprint collection.
//
// Only NumBits and NumBytes affect search math; the remaining fields are
// reported back as warnings when query and target disagree.
type Metadata struct {
	NumBits     int      `json:"num_bits,omitempty"`
	NumBytes    int      `json:"num_bytes,omitempty"`
	Type        string   `json:"type,omitempty"`
	Aromaticity string   `json:"aromaticity,omitempty"`
	Software    string   `json:"software,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Date        string   `json:"date,omitempty"`
}

// ErrInvalid is returned by Validate for inconsistent sizes.
var ErrInvalid = errors.New("metadata: invalid")

// BytesForBits returns ceil(numBits/8).
func BytesForBits(numBits int) int {
	return (numBits + 7) / 8
}

// Validate checks that the sizes are non-negative and agree with each other.
func (m Metadata) Validate() error {
	if m.NumBits < 0 || m.NumBytes < 0 {
		return fmt.Errorf("%w: negative size (num_bits=%d, num_bytes=%d)", ErrInvalid, m.NumBits, m.NumBytes)
	}
	if m.NumBits > 0 && m.NumBytes > 0 && BytesForBits(m.NumBits) != m.NumBytes {
		return fmt.Errorf("%w: num_bytes=%d does not hold num_bits=%d", ErrInvalid, m.NumBytes, m.NumBits)
	}
	return nil
}

// Normalize fills NumBytes from NumBits when only the latter is known.
func (m Metadata) Normalize() Metadata {
	if m.NumBits > 0 && m.NumBytes == 0 {
		m.NumBytes = BytesForBits(m.NumBits)
	}
	return m
}

// WithSize returns a copy with the sizes derived from a fingerprint of
// numBytes bytes. A known NumBits is kept.
func (m Metadata) WithSize(numBytes int) Metadata {
	m.NumBytes = numBytes
	if m.NumBits == 0 {
		m.NumBits = 8 * numBytes
	}
	return m
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	m.Sources = slices.Clone(m.Sources)
	return m
}

func (m Metadata) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "num_bits=%d num_bytes=%d", m.NumBits, m.NumBytes)
	if m.Type != "" {
		fmt.Fprintf(&b, " type=%q", m.Type)
	}
	if m.Software != "" {
		fmt.Fprintf(&b, " software=%q", m.Software)
	}
	return b.String()
}
