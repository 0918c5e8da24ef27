package simd

import (
	"os"
	"strings"
)

// hasPOPCNT is set by the platform init and read-only afterwards. It covers
// x86-64 POPCNT and the ARM64 CNT instruction, which is part of base ASIMD.
var hasPOPCNT bool

// initCapabilities applies the FPSIM_SIMD override once the platform init has
// detected the CPU features.
func initCapabilities() {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("FPSIM_SIMD")), "generic") {
		hasPOPCNT = false
	}
}

// HasPOPCNT reports whether the CPU has a native population-count instruction.
func HasPOPCNT() bool {
	return hasPOPCNT
}
