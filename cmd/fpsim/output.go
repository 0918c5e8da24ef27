package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/metadata"
	"github.com/hupe1980/fpsim/results"
)

// output is a buffered result writer on stdout or a blob.
type output struct {
	*bufio.Writer
	blob blobstore.WritableBlob
}

func (a *app) createOutput(ctx context.Context, loc string) (*output, error) {
	if loc == "" || loc == "-" {
		return &output{Writer: bufio.NewWriter(a.stdout)}, nil
	}
	l, err := parseLocation(loc)
	if err != nil {
		return nil, err
	}
	st, name, err := a.cfg.store(ctx, l)
	if err != nil {
		return nil, err
	}
	wb, err := st.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &output{Writer: bufio.NewWriter(wb), blob: wb}, nil
}

// finish flushes the output. On failure a blob output is discarded.
func (o *output) finish(err error) error {
	if err == nil {
		err = o.Flush()
	}
	if o.blob == nil {
		return err
	}
	if err != nil {
		return errors.Join(err, o.blob.Abort())
	}
	return o.blob.Close()
}

type header struct {
	format    string
	meta      metadata.Metadata
	k         int
	threshold float64
	queries   string
	targets   string
}

func (h header) write(w io.Writer) error {
	params := "threshold=" + strconv.FormatFloat(h.threshold, 'g', -1, 64)
	if h.k > 0 {
		params = "k=" + strconv.Itoa(h.k) + " " + params
	}
	_, err := fmt.Fprintf(w, "#%s\n#num_bits=%d\n#type=Tanimoto %s\n#software=fpsim/%s\n",
		h.format, h.meta.NumBits, params, version)
	if err != nil {
		return err
	}
	if h.queries != "" {
		if _, err := fmt.Fprintf(w, "#queries=%s\n", h.queries); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "#targets=%s\n", h.targets)
	return err
}

// writeRows writes one line per query of res.
func writeRows(w *bufio.Writer, res *results.SearchResults) error {
	for _, row := range res.Rows() {
		if err := writeRow(w, row, row.QueryID()); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes the hit count, the query id and the target id and score
// of every hit.
func writeRow(w *bufio.Writer, row results.Row, queryID string) error {
	w.WriteString(strconv.Itoa(row.Len()))
	w.WriteByte('\t')
	w.WriteString(queryID)
	for hit := range row.Hits() {
		w.WriteByte('\t')
		w.WriteString(hit.ID)
		w.WriteByte('\t')
		w.WriteString(strconv.FormatFloat(hit.Score, 'f', 5, 64))
	}
	return w.WriteByte('\n')
}

// writeCounts writes one "count<TAB>id" line per query.
func writeCounts(w *bufio.Writer, ids []string, counts []int) error {
	for i, c := range counts {
		w.WriteString(strconv.Itoa(c))
		w.WriteByte('\t')
		w.WriteString(ids[i])
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

