package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/initlevel5/squarebench/internal/bench"
	"github.com/initlevel5/squarebench/internal/config"
	"github.com/initlevel5/squarebench/internal/logging"
)

type options struct {
	configPath string
	count      int
	workers    int
	queueLen   int
	modes      []string
	noVerify   bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "squarebench",
		Short: "Time squaring an integer sequence sequentially and on a worker pool",
		Long: `squarebench squares every integer in 1 .. count-1 once per mode and prints
the elapsed wall-clock time of each run.

Modes:
  - sequential: direct iteration on one goroutine
  - threaded:   one pool task per element, results kept in input order
  - chunked:    one contiguous chunk per worker`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.IntVarP(&opts.count, "count", "n", config.DefaultCount, "exclusive upper bound of the input sequence")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "pool size (0 = min(32, NumCPU+4))")
	flags.IntVar(&opts.queueLen, "queue-len", 0, "pool queue length (0 = default)")
	flags.StringSliceVarP(&opts.modes, "mode", "m", []string{"sequential", "threaded"}, "modes to run, in order")
	flags.BoolVar(&opts.noVerify, "no-verify", false, "skip comparing results")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Count = opts.count
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("queue-len") {
		cfg.QueueLen = opts.queueLen
	}
	if flags.Changed("mode") {
		cfg.Modes = opts.modes
	}
	if opts.noVerify {
		cfg.Verify = false
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("config loaded",
		zap.String("path", opts.configPath),
		zap.Int("count", cfg.Count),
		zap.Int("workers", cfg.Workers),
		zap.Bool("verify", cfg.Verify))

	results, err := bench.NewRunner(cfg, bench.WithLogger(logger)).Run(cmd.Context())
	if err != nil {
		logger.Error("benchmark failed", zap.Error(err))
		return err
	}

	return bench.Report(cmd.OutOrStdout(), results)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "err:", err)
		stop()
		os.Exit(1)
	}
}
