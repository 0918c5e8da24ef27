package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/fpsim"
	"github.com/hupe1980/fpsim/arena"
	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/fpb"
	"github.com/hupe1980/fpsim/results"
)

type searchFlags struct {
	queries   string
	targets   string
	hexFP     string
	id        string
	k         int
	threshold float64
	out       string
	order     string
	scan      bool
}

func (f *searchFlags) register(cmd *cobra.Command, withK bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.queries, "queries", "q", "", "query fingerprint file")
	fs.StringVar(&f.targets, "targets", "", "target fingerprint file")
	fs.StringVar(&f.hexFP, "hex", "", "single query fingerprint in hex")
	fs.StringVar(&f.id, "id", "", "use the target with this id as the query")
	fs.Float64VarP(&f.threshold, "threshold", "t", 0.7, "minimum Tanimoto score")
	fs.StringVarP(&f.out, "out", "o", "", "output location (default stdout)")
	fs.BoolVar(&f.scan, "scan", false, "read the targets once, --batch-size at a time, instead of loading them")
	if withK {
		fs.IntVarP(&f.k, "k", "k", 3, "hits per query; 0 reports every hit at or above the threshold")
		fs.StringVar(&f.order, "order", "", "hit order: decreasing-score, increasing-score, increasing-index, decreasing-index, increasing-id, decreasing-id")
	}
	_ = cmd.MarkFlagRequired("targets")
}

func (f *searchFlags) single() bool { return f.hexFP != "" || f.id != "" }

func (f *searchFlags) queryID() string {
	if f.id != "" {
		return f.id
	}
	return "query"
}

func (f *searchFlags) check() error {
	n := 0
	for _, s := range []string{f.queries, f.hexFP, f.id} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of --queries, --hex or --id is required")
	}
	if f.k < 0 {
		return fmt.Errorf("-k must not be negative, got %d", f.k)
	}
	if f.scan && f.id != "" {
		return errors.New("--id needs loaded targets and cannot be combined with --scan")
	}
	return nil
}

// scanQueries loads every query into one arena. With --scan the targets are
// read only once, so all queries must be at hand.
func (a *app) scanQueries(ctx context.Context, f *searchFlags) (*arena.Arena, io.Closer, error) {
	if f.hexFP != "" {
		fp, err := hex.DecodeString(f.hexFP)
		if err != nil {
			return nil, nil, fmt.Errorf("--hex: %w", err)
		}
		q, err := arena.FromRecords([]arena.Record{{ID: f.queryID(), Fingerprint: fp}}, a.engine.ArenaOptions()...)
		return q, closers{}, err
	}
	src, c, err := a.openSource(ctx, f.queries)
	if err != nil {
		return nil, nil, err
	}
	q, err := a.engine.LoadArena(ctx, src, false)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("%s: %w", f.queries, err), c.Close())
	}
	return q, c, nil
}

func (a *app) searchCommand() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find the nearest targets for every query",
		Example: `  fpsim search -q queries.fps --targets chembl.fpb -k 5 -t 0.6
  fpsim search --hex 0f00a1 --targets targets.fps.gz -k 0 -t 0.8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.check(); err != nil {
				return err
			}
			order, err := results.ParseOrder(f.order)
			if err != nil {
				return err
			}
			return a.search(cmd.Context(), &f, order)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *app) search(ctx context.Context, f *searchFlags, order results.Order) error {
	if f.scan {
		return a.searchScan(ctx, f, order)
	}
	targets, closer, err := a.loadTargets(ctx, f.targets)
	if err != nil {
		return err
	}
	defer closer.Close()

	out, err := a.createOutput(ctx, f.out)
	if err != nil {
		return err
	}
	h := header{format: "Simsearch/1", meta: targets.Metadata(), k: f.k, threshold: f.threshold, queries: f.queries, targets: f.targets}
	if err := h.write(out); err != nil {
		return out.finish(err)
	}

	if f.single() {
		row, err := a.searchOne(ctx, f, targets)
		if err == nil {
			err = row.Reorder(order)
		}
		if err == nil {
			err = writeRow(out.Writer, row, f.queryID())
		}
		return out.finish(err)
	}

	queries, qcloser, err := a.openSource(ctx, f.queries)
	if err != nil {
		return out.finish(err)
	}
	defer qcloser.Close()

	var s *fpsim.Stream
	if f.k == 0 {
		s, err = a.engine.ThresholdTanimotoSearch(ctx, queries, targets, f.threshold)
	} else {
		s, err = a.engine.KNearestTanimotoSearch(ctx, queries, targets, f.k, f.threshold)
	}
	if err != nil {
		return out.finish(err)
	}
	defer s.Close()

	for b, err := range s.All() {
		if err == nil {
			err = b.Results.Reorder(order)
		}
		if err == nil {
			err = writeRows(out.Writer, b.Results)
		}
		if err != nil {
			return out.finish(err)
		}
	}
	return out.finish(nil)
}

// searchScan searches a targets file without loading it.
func (a *app) searchScan(ctx context.Context, f *searchFlags, order results.Order) error {
	queries, qcloser, err := a.scanQueries(ctx, f)
	if err != nil {
		return err
	}
	defer qcloser.Close()
	targets, closer, err := a.openSource(ctx, f.targets)
	if err != nil {
		return err
	}
	defer closer.Close()

	var res *results.SearchResults
	if f.k == 0 {
		res, err = a.engine.ThresholdTanimotoSearchSource(ctx, queries, targets, f.threshold)
	} else {
		res, err = a.engine.KNearestTanimotoSearchSource(ctx, queries, targets, f.k, f.threshold)
	}
	if err != nil {
		return err
	}
	if err := res.Reorder(order); err != nil {
		return err
	}

	out, err := a.createOutput(ctx, f.out)
	if err != nil {
		return err
	}
	h := header{format: "Simsearch/1", meta: targets.Metadata(), k: f.k, threshold: f.threshold, queries: f.queries, targets: f.targets}
	err = h.write(out)
	if err == nil {
		err = writeRows(out.Writer, res)
	}
	return out.finish(err)
}

// searchOne runs the single-fingerprint form for --hex or --id.
func (a *app) searchOne(ctx context.Context, f *searchFlags, targets *arena.Arena) (results.Row, error) {
	if f.id != "" && f.k > 0 {
		return a.engine.SearchByID(ctx, targets, f.id, f.k, f.threshold)
	}
	fp, _, err := a.singleFingerprint(f, targets)
	if err != nil {
		return results.Row{}, err
	}
	if f.k == 0 {
		return a.engine.ThresholdTanimotoSearchFP(ctx, fp, targets, f.threshold)
	}
	return a.engine.KNearestTanimotoSearchFP(ctx, fp, targets, f.k, f.threshold)
}

func (a *app) countCommand() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count the targets at or above the threshold for every query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.check(); err != nil {
				return err
			}
			return a.count(cmd.Context(), &f)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *app) count(ctx context.Context, f *searchFlags) error {
	if f.scan {
		return a.countScan(ctx, f)
	}
	targets, closer, err := a.loadTargets(ctx, f.targets)
	if err != nil {
		return err
	}
	defer closer.Close()

	out, err := a.createOutput(ctx, f.out)
	if err != nil {
		return err
	}
	h := header{format: "Count/1", meta: targets.Metadata(), threshold: f.threshold, queries: f.queries, targets: f.targets}
	if err := h.write(out); err != nil {
		return out.finish(err)
	}

	if f.single() {
		fp, id, err := a.singleFingerprint(f, targets)
		if err != nil {
			return out.finish(err)
		}
		n, err := a.engine.CountTanimotoHitsFP(ctx, fp, targets, f.threshold)
		if err == nil {
			err = writeCounts(out.Writer, []string{id}, []int{n})
		}
		return out.finish(err)
	}

	queries, qcloser, err := a.openSource(ctx, f.queries)
	if err != nil {
		return out.finish(err)
	}
	defer qcloser.Close()

	s, err := a.engine.CountTanimotoHits(ctx, queries, targets, f.threshold)
	if err != nil {
		return out.finish(err)
	}
	defer s.Close()
	for b, err := range s.All() {
		if err == nil {
			err = writeCounts(out.Writer, b.Queries.IDs(), b.Counts)
		}
		if err != nil {
			return out.finish(err)
		}
	}
	return out.finish(nil)
}

// countScan counts against a targets file without loading it.
func (a *app) countScan(ctx context.Context, f *searchFlags) error {
	queries, qcloser, err := a.scanQueries(ctx, f)
	if err != nil {
		return err
	}
	defer qcloser.Close()
	targets, closer, err := a.openSource(ctx, f.targets)
	if err != nil {
		return err
	}
	defer closer.Close()

	counts, err := a.engine.CountTanimotoHitsSource(ctx, queries, targets, f.threshold)
	if err != nil {
		return err
	}

	out, err := a.createOutput(ctx, f.out)
	if err != nil {
		return err
	}
	h := header{format: "Count/1", meta: targets.Metadata(), threshold: f.threshold, queries: f.queries, targets: f.targets}
	err = h.write(out)
	if err == nil {
		err = writeCounts(out.Writer, queries.IDs(), counts)
	}
	return out.finish(err)
}

func (a *app) singleFingerprint(f *searchFlags, targets *arena.Arena) ([]byte, string, error) {
	if f.id != "" {
		i, ok := targets.IndexOf(f.id)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", fpsim.ErrUnknownID, f.id)
		}
		return targets.Fingerprint(i), f.id, nil
	}
	fp, err := hex.DecodeString(f.hexFP)
	if err != nil {
		return nil, "", fmt.Errorf("--hex: %w", err)
	}
	return fp, f.queryID(), nil
}

func (a *app) symmetricCommand() *cobra.Command {
	var (
		targets   string
		threshold float64
		k         int
		countOnly bool
		out       string
		order     string
	)
	cmd := &cobra.Command{
		Use:   "symmetric",
		Short: "Search a file against itself, skipping self-matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if k < 0 {
				return fmt.Errorf("-k must not be negative, got %d", k)
			}
			o, err := results.ParseOrder(order)
			if err != nil {
				return err
			}
			return a.symmetric(cmd.Context(), targets, threshold, k, countOnly, out, o)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&targets, "targets", "", "fingerprint file")
	fs.Float64VarP(&threshold, "threshold", "t", 0.7, "minimum Tanimoto score")
	fs.IntVarP(&k, "k", "k", 3, "hits per fingerprint; 0 reports every hit at or above the threshold")
	fs.BoolVar(&countOnly, "count", false, "only count the hits")
	fs.StringVarP(&out, "out", "o", "", "output location (default stdout)")
	fs.StringVar(&order, "order", "", "hit order")
	_ = cmd.MarkFlagRequired("targets")
	return cmd
}

func (a *app) symmetric(ctx context.Context, loc string, threshold float64, k int, countOnly bool, outLoc string, order results.Order) error {
	targets, closer, err := a.loadTargets(ctx, loc)
	if err != nil {
		return err
	}
	defer closer.Close()

	out, err := a.createOutput(ctx, outLoc)
	if err != nil {
		return err
	}

	if countOnly {
		h := header{format: "Count/1", meta: targets.Metadata(), threshold: threshold, targets: loc}
		err := h.write(out)
		var counts []int
		if err == nil {
			counts, err = a.engine.CountTanimotoHitsSymmetric(ctx, targets, threshold)
		}
		if err == nil {
			err = writeCounts(out.Writer, targets.IDs(), counts)
		}
		return out.finish(err)
	}

	h := header{format: "Simsearch/1", meta: targets.Metadata(), k: k, threshold: threshold, targets: loc}
	if err := h.write(out); err != nil {
		return out.finish(err)
	}
	var res *results.SearchResults
	if k == 0 {
		res, err = a.engine.ThresholdTanimotoSearchSymmetric(ctx, targets, threshold)
	} else {
		res, err = a.engine.KNearestTanimotoSearchSymmetric(ctx, targets, k, threshold)
	}
	if err == nil {
		err = res.Reorder(order)
	}
	if err == nil {
		err = writeRows(out.Writer, res)
	}
	return out.finish(err)
}

func (a *app) convertCommand() *cobra.Command {
	var (
		reorder     bool
		compressIDs bool
	)
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert between FPS and FPB files",
		Long: `Convert reads a fingerprint file and writes it in the format given by
the output name: .fpb for binary, .fps, .fps.gz, .fps.zst or .fps.lz4 for text.`,
		Example: "  fpsim convert chembl.fps.gz chembl.fpb",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, closer, err := a.openSource(ctx, args[0])
			if err != nil {
				return err
			}
			defer closer.Close()
			ar, err := a.engine.LoadArena(ctx, src, reorder)
			if err != nil {
				return err
			}
			if err := a.writeArena(ctx, args[1], ar, compressIDs); err != nil {
				return err
			}
			a.logger.InfoContext(ctx, "converted", "in", args[0], "out", args[1], "fingerprints", ar.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&reorder, "reorder", true, "sort fingerprints by popcount")
	cmd.Flags().BoolVar(&compressIDs, "compress-ids", false, "zstd-compress the ids of FPB output")
	return cmd
}

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Describe a fingerprint file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.info(cmd.Context(), cmd, args[0])
		},
	}
}

func (a *app) info(ctx context.Context, cmd *cobra.Command, loc string) error {
	w := cmd.OutOrStdout()
	l, err := parseLocation(loc)
	if err != nil {
		return err
	}

	if isFPB(l.name()) {
		b, err := a.cfg.openBlob(ctx, l)
		if err != nil {
			return err
		}
		defer b.Close()
		data, err := blobstore.ReadAll(ctx, b)
		if err != nil {
			return err
		}
		st, err := fpb.Stat(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "format:\tFPB v%d\nchunks:\t%v\ncodec:\t%s\nalignment:\t%d\nstride:\t%d\nsorted:\t%t\n",
			st.Version, st.Chunks, st.Codec, st.Alignment, st.Stride, st.Sorted)
	} else {
		fmt.Fprintln(w, "format:\tFPS")
	}

	src, closer, err := a.openSource(ctx, loc)
	if err != nil {
		return err
	}
	defer closer.Close()
	ar, err := a.engine.LoadArena(ctx, src, false)
	if err != nil {
		return err
	}
	m := ar.Metadata()
	fmt.Fprintf(w, "fingerprints:\t%d\nnum_bits:\t%d\nnum_bytes:\t%d\n", ar.Len(), m.NumBits, m.NumBytes)
	for _, kv := range [][2]string{{"type", m.Type}, {"aromaticity", m.Aromaticity}, {"software", m.Software}, {"date", m.Date}} {
		if kv[1] != "" {
			fmt.Fprintf(w, "%s:\t%s\n", kv[0], kv[1])
		}
	}
	for _, s := range m.Sources {
		fmt.Fprintf(w, "source:\t%s\n", s)
	}
	return nil
}
