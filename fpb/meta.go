package fpb

import (
	"fmt"

	"github.com/hupe1980/fpsim/codec"
	"github.com/hupe1980/fpsim/metadata"
)

func decodeMeta(p []byte) (metadata.Metadata, error) {
	var m metadata.Metadata
	if _, err := codec.Decode(p, &m); err != nil {
		return m, fmt.Errorf("%w: META chunk: %w", ErrCorrupt, err)
	}
	return m, nil
}
