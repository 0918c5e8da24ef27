// Command fpsim searches fingerprint files by Tanimoto similarity.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/fpsim"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// app is the state shared by the subcommands once flags are parsed.
type app struct {
	cfg    *Config
	engine *fpsim.Engine
	logger *fpsim.Logger
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	root := &cobra.Command{
		Use:   "fpsim",
		Short: "Tanimoto similarity search over binary fingerprints",
		Long: `fpsim searches collections of binary molecular fingerprints by
Tanimoto similarity.

Fingerprint files are FPS text files (optionally .gz, .zst or .lz4) or FPB
binary files. Locations may be local paths, s3://bucket/key or
minio://bucket/key.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.String("config", os.Getenv("FPSIM_CONFIG"), "YAML configuration file")
	pf.Int("threads", 0, "worker goroutines per search (0 = all CPUs)")
	pf.Int("alignment", 0, "slot alignment for loaded arenas: 1, 4, 8, 32 or 64 (0 = automatic)")
	pf.Int("batch-size", 0, "queries per batch (0 = all at once)")
	pf.String("memory-limit", "", "memory for in-flight query batches (e.g. 512MB, 0 = unlimited)")
	pf.String("io-limit", "", "read throughput limit per second (e.g. 100MB, 0 = unlimited)")
	pf.Bool("autoselect", false, "benchmark popcount methods at startup")
	pf.StringSlice("popcount", nil, "popcount method per alignment class, as class=method")
	pf.String("log-level", "warn", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "fpsim v%s (%s)\n", version, commit)
			},
		},
		a.searchCommand(),
		a.countCommand(),
		a.symmetricCommand(),
		a.convertCommand(),
		a.infoCommand(),
	)
	return root
}

// setup resolves the configuration and builds the engine.
func (a *app) setup(cmd *cobra.Command) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if err := cfg.applyFlags(cmd); err != nil {
		return err
	}
	opts, err := cfg.engineOptions()
	if err != nil {
		return err
	}
	e, err := fpsim.New(opts...)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.engine = e
	a.logger, _ = cfg.logger()
	a.logger.DebugContext(cmd.Context(), "engine ready",
		"threads", e.Threads(), "batch_size", e.BatchSize(), "popcount", e.PopcountConfig().String())
	return nil
}
