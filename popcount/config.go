package popcount

import (
	"fmt"
	"strings"
	"sync"
)

// Config holds the method selected for each alignment class.
//
// A Config is safe for concurrent use. Reads take a shared lock, so searches
// may run while another goroutine reconfigures; each search resolves its
// kernels once at start.
type Config struct {
	mu      sync.RWMutex
	methods [numClasses]Method
}

// NewConfig returns a Config with the preferred available method for every
// class. It does not benchmark; see AutoSelect.
func NewConfig() *Config {
	c := &Config{}
	for _, class := range Classes {
		c.methods[class] = Preferred(class)
	}
	return c
}

// Preferred returns the first method in Methods that is available and
// supports the class.
func Preferred(class AlignmentClass) Method {
	for _, m := range Methods {
		if m.Available() && m.Supports(class) {
			return m
		}
	}
	return MethodLUT8
}

// Validate checks that m can serve class on this CPU.
func Validate(class AlignmentClass, m Method) error {
	if class >= numClasses {
		return fmt.Errorf("%w: %d", ErrUnknownClass, class)
	}
	if m >= numMethods {
		return fmt.Errorf("%w: %d", ErrUnknownMethod, m)
	}
	if !m.Supports(class) {
		return &MethodError{Method: m, Class: class, cause: ErrMethodUnsupported}
	}
	if !m.Available() {
		return &MethodError{Method: m, Class: class, cause: ErrMethodUnavailable}
	}
	return nil
}

// Set selects the method for a class. An unsupported or unavailable method is
// rejected and the previous selection is kept.
func (c *Config) Set(class AlignmentClass, m Method) error {
	if err := Validate(class, m); err != nil {
		return err
	}
	c.mu.Lock()
	c.methods[class] = m
	c.mu.Unlock()
	return nil
}

// Method returns the method selected for a class.
func (c *Config) Method(class AlignmentClass) Method {
	if class >= numClasses {
		return MethodLUT8
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.methods[class]
}

// Kernels returns the kernels selected for a class.
func (c *Config) Kernels(class AlignmentClass) Kernels {
	return kernelsFor(c.Method(class))
}

// Methods returns a copy of the selection, keyed by class.
func (c *Config) Methods() map[AlignmentClass]Method {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[AlignmentClass]Method, numClasses)
	for _, class := range Classes {
		out[class] = c.methods[class]
	}
	return out
}

// Clone returns an independent copy of c.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Config{methods: c.methods}
}

// String renders the selection as "align1=lut8 align4=popcnt ...".
func (c *Config) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	parts := make([]string, 0, numClasses)
	for _, class := range Classes {
		parts = append(parts, class.String()+"="+c.methods[class].String())
	}
	return strings.Join(parts, " ")
}
