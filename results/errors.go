package results

import "errors"

var (
	// ErrUnknownOrder is returned for an order name that is not recognized.
	ErrUnknownOrder = errors.New("results: unknown order")

	// ErrNoTargetIDs is returned by id-based accessors when the results
	// were built without target identifiers.
	ErrNoTargetIDs = errors.New("results: target ids not available")

	// ErrInvalidCSR is returned by FromCSR for inconsistent arrays.
	ErrInvalidCSR = errors.New("results: invalid CSR arrays")
)
