package fpsim_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/fpsim"
	"github.com/hupe1980/fpsim/arena"
)

func exampleTargets() []arena.Record {
	return []arena.Record{
		{ID: "a", Fingerprint: []byte{0x0f}},
		{ID: "b", Fingerprint: []byte{0x0e}},
		{ID: "c", Fingerprint: []byte{0xf0}},
		{ID: "d", Fingerprint: []byte{0x00}},
	}
}

// Example_kNearest loads a popcount-sorted arena and finds the two best
// matches for one fingerprint.
func Example_kNearest() {
	ctx := context.Background()

	e, err := fpsim.New(fpsim.WithThreads(1))
	if err != nil {
		log.Fatal(err)
	}

	targets, err := e.Load(ctx, arena.FromSlice(exampleTargets()), true)
	if err != nil {
		log.Fatal(err)
	}

	row, err := e.KNearestTanimotoSearchFP(ctx, []byte{0x0f}, targets, 2, 0.0)
	if err != nil {
		log.Fatal(err)
	}
	for hit := range row.Hits() {
		fmt.Printf("%s %.2f\n", hit.ID, hit.Score)
	}
	// Output:
	// a 1.00
	// b 0.75
}

// Example_symmetricCounts counts, for every fingerprint, the other
// fingerprints of the same arena at or above the threshold.
func Example_symmetricCounts() {
	ctx := context.Background()

	e, err := fpsim.New(fpsim.WithThreads(1))
	if err != nil {
		log.Fatal(err)
	}

	a, err := e.Load(ctx, arena.FromSlice(exampleTargets()), true)
	if err != nil {
		log.Fatal(err)
	}

	counts, err := e.CountTanimotoHitsSymmetric(ctx, a, 0.5)
	if err != nil {
		log.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		slot, _ := a.IndexOf(id)
		fmt.Println(id, counts[slot])
	}
	// Output:
	// a 1
	// b 1
	// c 0
	// d 0
}
