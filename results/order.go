package results

import (
	"fmt"
	"strings"
)

// Order names a way to arrange the hits of a row.
type Order uint8

const (
	// DecreasingScore puts the best hits first; ties by increasing index.
	DecreasingScore Order = iota
	// IncreasingScore puts the worst hits first; ties by increasing index.
	IncreasingScore
	// IncreasingIndex sorts by target slot.
	IncreasingIndex
	// DecreasingIndex sorts by target slot, highest first.
	DecreasingIndex
	// IncreasingID sorts by target identifier; needs target ids.
	IncreasingID
	// DecreasingID sorts by target identifier, highest first; needs target ids.
	DecreasingID
	// MoveClosestFirst moves the highest-scoring hit to the front and keeps
	// the rest in their current order.
	MoveClosestFirst
	// Reverse reverses the current order.
	Reverse
)

var orderNames = [...]string{
	DecreasingScore:  "decreasing-score",
	IncreasingScore:  "increasing-score",
	IncreasingIndex:  "increasing-index",
	DecreasingIndex:  "decreasing-index",
	IncreasingID:     "increasing-id",
	DecreasingID:     "decreasing-id",
	MoveClosestFirst: "move-closest-first",
	Reverse:          "reverse",
}

func (o Order) String() string {
	if int(o) < len(orderNames) {
		return orderNames[o]
	}
	return fmt.Sprintf("Order(%d)", o)
}

// ParseOrder parses an order name. The empty string means DecreasingScore.
func ParseOrder(s string) (Order, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DecreasingScore, nil
	}
	for o, name := range orderNames {
		if name == s {
			return Order(o), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

func (o Order) needsIDs() bool {
	return o == IncreasingID || o == DecreasingID
}
