package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/fpb"
	"github.com/hupe1980/fpsim/fps"
)

func isFPB(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".fpb")
}

type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for _, c := range cs {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// openSource opens a fingerprint file as a record source. FPB files load as
// arenas; FPS files stream through the engine's IO limit.
func (a *app) openSource(ctx context.Context, loc string) (arena.Source, io.Closer, error) {
	l, err := parseLocation(loc)
	if err != nil {
		return nil, nil, err
	}
	b, err := a.cfg.openBlob(ctx, l)
	if err != nil {
		return nil, nil, err
	}

	if isFPB(l.name()) {
		ar, err := fpb.Read(ctx, b)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", loc, err)
		}
		return ar, ar, nil
	}

	rc, err := blobstore.NewReader(ctx, b)
	if err != nil {
		return nil, nil, errors.Join(err, b.Close())
	}
	lr := a.engine.LimitReader(ctx, rc)
	r, err := fps.NewReader(lr)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("%s: %w", loc, err), lr.Close(), b.Close())
	}
	for _, w := range r.Warnings() {
		a.logger.WarnContext(ctx, "unknown header", "file", loc, "line", w.Line, "key", w.Key)
	}
	return r, closers{r, lr, b}, nil
}

// loadTargets loads a whole file as a popcount-sorted arena. A sorted FPB
// file is used as is.
func (a *app) loadTargets(ctx context.Context, loc string) (*arena.Arena, io.Closer, error) {
	src, c, err := a.openSource(ctx, loc)
	if err != nil {
		return nil, nil, err
	}
	ar, err := a.engine.LoadArena(ctx, src, true)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("%s: %w", loc, err), c.Close())
	}
	return ar, c, nil
}

// writeArena stores ar at loc as FPB or FPS, chosen by the file name.
func (a *app) writeArena(ctx context.Context, loc string, ar *arena.Arena, compressIDs bool) error {
	l, err := parseLocation(loc)
	if err != nil {
		return err
	}
	st, name, err := a.cfg.store(ctx, l)
	if err != nil {
		return err
	}
	if isFPB(name) {
		return fpb.WriteBlob(ctx, st, name, ar, fpb.WithCompressedIDs(compressIDs))
	}

	wb, err := st.Create(ctx, name)
	if err != nil {
		return err
	}
	w, err := fps.NewWriter(wb, ar.Metadata(), fps.WithCompression(fps.CompressionFor(name)))
	if err != nil {
		return errors.Join(err, wb.Abort())
	}
	if err := w.WriteAll(ar.Records()); err != nil {
		return errors.Join(err, wb.Abort())
	}
	if err := w.Close(); err != nil {
		return errors.Join(err, wb.Abort())
	}
	return wb.Close()
}
