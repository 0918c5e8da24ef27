// Package codec encodes the metadata block of binary fingerprint files.
//
// An encoded block carries the name of the codec that wrote it, so a file
// written with one codec is decoded with the same one regardless of Default.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"
)

var (
	// ErrUnknown is returned when a block names a codec that is not built in.
	ErrUnknown = errors.New("codec: unknown codec")
	// ErrTruncated is returned when a block is too short for its name prefix.
	ErrTruncated = errors.New("codec: truncated block")
)

// Codec encodes and decodes values. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for new files.
var Default Codec = GoJSON{}

// JSON is the standard-library JSON codec.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// GoJSON is backed by github.com/goccy/go-json. Its output is readable by
// JSON and the other way round.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }

// ByName returns a built-in codec by its stored name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Encode marshals v with c into a block: one length byte, the codec name,
// then the payload.
func Encode(c Codec, v any) ([]byte, error) {
	name := c.Name()
	if len(name) > math.MaxUint8 {
		return nil, fmt.Errorf("codec: name %q too long", name)
	}
	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	block := make([]byte, 0, 1+len(name)+len(data))
	block = append(block, byte(len(name)))
	block = append(block, name...)
	return append(block, data...), nil
}

// Peek splits a block into the codec name and the payload.
func Peek(block []byte) (name string, payload []byte, err error) {
	if len(block) == 0 || len(block) < 1+int(block[0]) {
		return "", nil, ErrTruncated
	}
	n := 1 + int(block[0])
	return string(block[1:n]), block[n:], nil
}

// Decode unmarshals a block written by Encode into v and returns the name
// of the codec that wrote it.
func Decode(block []byte, v any) (string, error) {
	name, payload, err := Peek(block)
	if err != nil {
		return "", err
	}
	c, ok := ByName(name)
	if !ok {
		return name, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return name, c.Unmarshal(payload, v)
}
