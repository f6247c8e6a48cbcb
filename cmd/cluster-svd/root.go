package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-cluster/algorithms/cluster"
	"github.com/RyanBlaney/sonido-cluster/config"
	"github.com/RyanBlaney/sonido-cluster/dataio"
	"github.com/RyanBlaney/sonido-cluster/logging"
	"github.com/RyanBlaney/sonido-cluster/pipeline"
)

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	configPath    string
	clusters      int
	maxIter       int
	seed          uint64
	initMethod    string
	emptyPolicy   string
	workers       int
	whiten        bool
	noRestoreMean bool
	summaryPath   string
	logLevel      string
	color         bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cluster-svd <nsv> <train> <centers>",
		Short: "Cluster a training matrix after SVD reduction",
		Long: `Cluster the rows of a training matrix with k-means, optionally after
reducing them to their leading singular directions.

<nsv> is the number of singular components kept; 0 clusters the
mean-centred data without transformation. <train> holds a "<rows> <columns>"
header followed by the values in row-major order. The ranked centers are
written to <centers> in the same layout, largest cluster first.

Examples:
  cluster-svd 0 train.txt centers.txt
  cluster-svd 3 train.txt centers.txt --clusters 4 --seed 42
  cluster-svd 2 train.txt centers.txt --config cluster.yaml --summary -`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.IntVarP(&opts.clusters, "clusters", "k", config.DefaultMaxClusters, "number of clusters")
	flags.IntVar(&opts.maxIter, "max-iter", cluster.DefaultMaxIterations, "iteration ceiling")
	flags.Uint64Var(&opts.seed, "seed", 0, "random seed (0 seeds from the clock)")
	flags.StringVar(&opts.initMethod, "init", string(cluster.InitPoints), "seeding method: points, range")
	flags.StringVar(&opts.emptyPolicy, "empty-policy", string(cluster.EmptyKeep), "empty cluster policy: keep, farthest")
	flags.IntVar(&opts.workers, "workers", 1, "assignment workers")
	flags.BoolVar(&opts.whiten, "whiten", false, "cluster on unit-scale singular coordinates")
	flags.BoolVar(&opts.noRestoreMean, "no-restore-mean", false, "report centers without the column means")
	flags.StringVar(&opts.summaryPath, "summary", "", "write a JSON summary to this file (- for stdout)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.color, "color", false, "colorize log output")

	return cmd
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	nsv, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid number of singular components %q: %w", args[0], err)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg.Reduction.Components = nsv
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries the summary document when it is written there
	logOut := cmd.OutOrStdout()
	if opts.summaryPath == "-" {
		logOut = cmd.ErrOrStderr()
	}
	logger := cfg.Logging.NewLogger(logOut, cmd.ErrOrStderr())
	logging.SetGlobalLogger(logger)

	p := pipeline.New(cfg)
	p.SetLogger(logger.WithFields(logging.Fields{"component": "pipeline"}))
	if level, _ := logging.ParseLevel(cfg.Logging.Level); level == logging.DebugLevel {
		p.SetObserver(cluster.LogObserver(logger.WithFields(logging.Fields{"component": "kmeans"})))
	}

	out, err := p.RunFiles(cmd.Context(), args[1], args[2])
	if err != nil {
		return err
	}

	if opts.summaryPath != "" {
		if err := writeSummary(cmd.OutOrStdout(), opts.summaryPath, out.Summary()); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	cc := &cfg.Clustering
	if flags.Changed("clusters") {
		cc.NumClusters = opts.clusters
	}
	if flags.Changed("max-iter") {
		cc.MaxIterations = opts.maxIter
	}
	if flags.Changed("seed") {
		cc.Seed = opts.seed
	}
	if flags.Changed("init") {
		cc.InitMethod = opts.initMethod
	}
	if flags.Changed("empty-policy") {
		cc.EmptyPolicy = opts.emptyPolicy
	}
	if flags.Changed("workers") {
		cc.Workers = opts.workers
	}
	if flags.Changed("whiten") {
		cfg.Reduction.Whiten = opts.whiten
	}
	if flags.Changed("no-restore-mean") {
		cfg.Reduction.RestoreMean = !opts.noRestoreMean
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("color") {
		cfg.Logging.Color = opts.color
	}
	return cfg, nil
}

func writeSummary(stdout io.Writer, path string, summary pipeline.Summary) error {
	if path == "-" {
		return dataio.WriteJSON(stdout, summary)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := dataio.WriteJSON(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
