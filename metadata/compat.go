package metadata

import (
	"errors"
	"fmt"
)

// ErrIncompatible is the sentinel wrapped by MismatchError.
var ErrIncompatible = errors.New("incompatible fingerprints")

// MismatchError reports query and target collections whose fingerprints
// cannot be compared.
type MismatchError struct {
	Field  string // "num_bits" or "num_bytes"
	Query  int
	Target int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: query has %s=%d, target has %s=%d", ErrIncompatible, e.Field, e.Query, e.Field, e.Target)
}

func (e *MismatchError) Unwrap() error { return ErrIncompatible }

// Warning is a descriptive mismatch that does not prevent searching.
type Warning struct {
	Field  string
	Query  string
	Target string
}

func (w Warning) String() string {
	return fmt.Sprintf("query fingerprints have %s %q but target fingerprints have %s %q", w.Field, w.Query, w.Field, w.Target)
}

// CheckCompatible decides whether query fingerprints can be searched against
// target fingerprints.
//
// NumBits must match when both sides know it; otherwise NumBytes must match
// when both sides know it. Differences in type, aromaticity or software are
// returned as warnings.
func CheckCompatible(query, target Metadata) ([]Warning, error) {
	switch {
	case query.NumBits > 0 && target.NumBits > 0:
		if query.NumBits != target.NumBits {
			return nil, &MismatchError{Field: "num_bits", Query: query.NumBits, Target: target.NumBits}
		}
	case query.NumBytes > 0 && target.NumBytes > 0:
		if query.NumBytes != target.NumBytes {
			return nil, &MismatchError{Field: "num_bytes", Query: query.NumBytes, Target: target.NumBytes}
		}
	}

	var warnings []Warning
	warn := func(field, q, t string) {
		if q != "" && t != "" && q != t {
			warnings = append(warnings, Warning{Field: field, Query: q, Target: t})
		}
	}
	warn("type", query.Type, target.Type)
	warn("aromaticity", query.Aromaticity, target.Aromaticity)
	warn("software", query.Software, target.Software)
	return warnings, nil
}
