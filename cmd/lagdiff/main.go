package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ppiankov/lagdiff/internal/config"
	"github.com/ppiankov/lagdiff/internal/kafka"
	"github.com/ppiankov/lagdiff/internal/logging"
	"github.com/ppiankov/lagdiff/internal/monitor"
	"github.com/ppiankov/lagdiff/internal/reporter"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const toolName = "lagdiff"

func main() {
	logging.Init(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		slog.Error("command failed", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "Tip: Use 'lagdiff --help' for usage information.\n")
	}
	os.Exit(classifyError(err))
}

type clusterOptions struct {
	bootstrapServer string
	commandConfig   string
	cliDir          string
}

type watchOptions struct {
	cluster1 clusterOptions
	cluster2 clusterOptions
	tool     string
	summary  bool
	interval time.Duration
	once     bool
	output   string
	pretty   bool
}

type diffOptions struct {
	cluster1File string
	cluster2File string
	summary      bool
	output       string
	pretty       bool
}

func newRootCmd() *cobra.Command {
	var (
		verbose   bool
		logFormat string
	)

	cmd := &cobra.Command{
		Use:           toolName,
		Short:         "lagdiff compares consumer group offsets between two Kafka clusters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.InitWithFormat(verbose, logFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format (text|json)")

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "version: %s\n", Version); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "commit:  %s\n", GitCommit); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "date:    %s\n", BuildDate); err != nil {
				return err
			}
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	opts := watchOptions{
		tool:     kafka.DefaultTool,
		interval: monitor.DefaultInterval,
		output:   reporter.FormatText,
	}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Compare both clusters on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveWatchOptions(cmd, opts)
			if err != nil {
				return err
			}
			return runWatch(cmd, resolved)
		},
	}

	flags := cmd.Flags()
	flags.AddFlagSet(clusterFlags("cluster1", &opts.cluster1))
	flags.AddFlagSet(clusterFlags("cluster2", &opts.cluster2))
	flags.StringVar(&opts.tool, "tool", opts.tool, "Name of the consumer group admin tool inside the CLI directories")
	flags.BoolVar(&opts.summary, "summary", false, "Print only the summary with the top lagging partitions")
	flags.DurationVar(&opts.interval, "interval", opts.interval, "Pause between two comparisons (for example: 15s, 1m)")
	flags.BoolVar(&opts.once, "once", false, "Run a single comparison and exit")
	flags.StringVar(&opts.output, "output", opts.output, "Output format (text|json|sarif|spectrehub)")
	flags.BoolVar(&opts.pretty, "pretty", false, "Indent json and sarif output")

	return cmd
}

// clusterFlags returns the --<name>-* flags describing one cluster.
func clusterFlags(name string, opts *clusterOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&opts.bootstrapServer, name+"-bootstrap-server", "", "Bootstrap server(s) of "+name+" (host:port, comma-separated)")
	fs.StringVar(&opts.commandConfig, name+"-command-config", "", "Admin client properties file for "+name)
	fs.StringVar(&opts.cliDir, name+"-cli-dir", "", "Directory containing the Kafka CLI tools for "+name)
	return fs
}

func newDiffCmd() *cobra.Command {
	opts := diffOptions{output: reporter.FormatText}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two captured consumer group listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveDiffOptions(cmd, opts)
			if err != nil {
				return err
			}
			return runDiff(cmd, resolved)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.cluster1File, "cluster1-file", "", "Saved describe output of cluster1")
	flags.StringVar(&opts.cluster2File, "cluster2-file", "", "Saved describe output of cluster2")
	flags.BoolVar(&opts.summary, "summary", false, "Print only the summary with the top lagging partitions")
	flags.StringVar(&opts.output, "output", opts.output, "Output format (text|json|sarif|spectrehub)")
	flags.BoolVar(&opts.pretty, "pretty", false, "Indent json and sarif output")

	for _, name := range []string{"cluster1-file", "cluster2-file"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}

func resolveWatchOptions(cmd *cobra.Command, opts watchOptions) (watchOptions, error) {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		return opts, err
	}
	if cfg != nil {
		slog.Debug("loaded defaults", "path", cfgPath)
		if err := applyLogConfig(cmd, cfg); err != nil {
			return opts, err
		}
		opts = applyWatchConfigDefaults(cmd, opts, cfg)
	}

	return opts, nil
}

func resolveDiffOptions(cmd *cobra.Command, opts diffOptions) (diffOptions, error) {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		return opts, err
	}
	if cfg != nil {
		slog.Debug("loaded defaults", "path", cfgPath)
		if err := applyLogConfig(cmd, cfg); err != nil {
			return opts, err
		}
		if !flagChanged(cmd, "summary") && cfg.Summary != nil {
			opts.summary = *cfg.Summary
		}
		if !flagChanged(cmd, "output") && cfg.Output != "" {
			opts.output = cfg.Output
		}
	}

	return opts, nil
}

func applyWatchConfigDefaults(cmd *cobra.Command, opts watchOptions, cfg *config.Config) watchOptions {
	opts.cluster1 = applyClusterDefaults(cmd, "cluster1", opts.cluster1, cfg.Cluster1)
	opts.cluster2 = applyClusterDefaults(cmd, "cluster2", opts.cluster2, cfg.Cluster2)

	if !flagChanged(cmd, "tool") && strings.TrimSpace(cfg.Tool) != "" {
		opts.tool = cfg.Tool
	}
	if !flagChanged(cmd, "summary") && cfg.Summary != nil {
		opts.summary = *cfg.Summary
	}
	if !flagChanged(cmd, "interval") && cfg.HasInterval {
		opts.interval = cfg.Interval
	}
	if !flagChanged(cmd, "output") && cfg.Output != "" {
		opts.output = cfg.Output
	}

	return opts
}

func applyClusterDefaults(cmd *cobra.Command, name string, opts clusterOptions, cfg config.Cluster) clusterOptions {
	if !flagChanged(cmd, name+"-bootstrap-server") && strings.TrimSpace(cfg.BootstrapServer) != "" {
		opts.bootstrapServer = cfg.BootstrapServer
	}
	if !flagChanged(cmd, name+"-command-config") && strings.TrimSpace(cfg.CommandConfig) != "" {
		opts.commandConfig = cfg.CommandConfig
	}
	if !flagChanged(cmd, name+"-cli-dir") && strings.TrimSpace(cfg.CLIDir) != "" {
		opts.cliDir = cfg.CLIDir
	}
	return opts
}

// applyLogConfig switches the log format to the configured one unless
// --log-format was given.
func applyLogConfig(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.LogFormat == "" || flagChanged(cmd, "log-format") {
		return nil
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	return logging.InitWithFormat(verbose, cfg.LogFormat)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}

	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	return flag.Changed
}

type requiredValue struct {
	flag  string
	value string
}

func (o watchOptions) validate() error {
	required := []requiredValue{
		{"--cluster1-bootstrap-server", o.cluster1.bootstrapServer},
		{"--cluster1-command-config", o.cluster1.commandConfig},
		{"--cluster1-cli-dir", o.cluster1.cliDir},
		{"--cluster2-bootstrap-server", o.cluster2.bootstrapServer},
		{"--cluster2-command-config", o.cluster2.commandConfig},
		{"--cluster2-cli-dir", o.cluster2.cliDir},
	}
	missing := lo.FilterMap(required, func(r requiredValue, _ int) (string, bool) {
		return r.flag, strings.TrimSpace(r.value) == ""
	})
	if len(missing) > 0 {
		return fmt.Errorf("%s required (flag, config file or environment)", strings.Join(missing, ", "))
	}
	if strings.TrimSpace(o.tool) == "" {
		return errors.New("--tool must not be empty")
	}
	if o.interval <= 0 {
		return errors.New("interval must be greater than zero")
	}
	return nil
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rep, err := reporter.New(opts.output, out, reporter.Options{
		Summary: opts.summary,
		Color:   colorEnabled(out),
		Pretty:  opts.pretty,
	})
	if err != nil {
		return err
	}

	cluster1 := kafka.NewCommandSource(kafka.ClusterConfig{
		Name:            "cluster1",
		CLIDir:          opts.cluster1.cliDir,
		Tool:            opts.tool,
		BootstrapServer: opts.cluster1.bootstrapServer,
		CommandConfig:   opts.cluster1.commandConfig,
	})
	cluster2 := kafka.NewCommandSource(kafka.ClusterConfig{
		Name:            "cluster2",
		CLIDir:          opts.cluster2.cliDir,
		Tool:            opts.tool,
		BootstrapServer: opts.cluster2.bootstrapServer,
		CommandConfig:   opts.cluster2.commandConfig,
	})

	m := monitor.New(cluster1, cluster2, rep, monitor.Config{
		Interval: opts.interval,
		Once:     opts.once,
		Tool:     toolName,
		Version:  Version,
		Cluster1: opts.cluster1.bootstrapServer,
		Cluster2: opts.cluster2.bootstrapServer,
	})

	return m.Run(cmd.Context())
}

func runDiff(cmd *cobra.Command, opts diffOptions) error {
	if strings.TrimSpace(opts.cluster1File) == "" || strings.TrimSpace(opts.cluster2File) == "" {
		return errors.New("--cluster1-file and --cluster2-file are required")
	}

	out := cmd.OutOrStdout()
	rep, err := reporter.New(opts.output, out, reporter.Options{
		Summary: opts.summary,
		Color:   colorEnabled(out),
		Pretty:  opts.pretty,
	})
	if err != nil {
		return err
	}

	m := monitor.New(
		kafka.NewFileSource("cluster1", opts.cluster1File),
		kafka.NewFileSource("cluster2", opts.cluster2File),
		rep,
		monitor.Config{
			Once:     true,
			Tool:     toolName,
			Version:  Version,
			Cluster1: opts.cluster1File,
			Cluster2: opts.cluster2File,
		},
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	_, err = m.RunCycle(ctx)
	return err
}

// colorEnabled reports whether w is a terminal that accepts ANSI colors.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
