package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/tdconv/config"
	"github.com/pbaille/tdconv/internal/api"
	"github.com/pbaille/tdconv/internal/convert"
	"github.com/pbaille/tdconv/internal/fetcher"
	"github.com/pbaille/tdconv/internal/store"
	"github.com/pbaille/tdconv/pkg/log"
)

type globalFlags struct {
	configPath string
	dbPath     string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "tdconv",
		Short:        "Convert Todoist CSV exports to OPML, TaskPaper and Markdown",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: tdconv.yaml in ./config, . or ~/.tdconv)")
	rootCmd.PersistentFlags().StringVar(&g.dbPath, "db", "", "history database path (overrides history.db_path)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(convertCmd(g))
	rootCmd.AddCommand(historyCmd(g))
	rootCmd.AddCommand(serveCmd(g))
	rootCmd.AddCommand(configCmd(g))
	return rootCmd
}

// setup loads the configuration and builds the logger.
func setup(g *globalFlags) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.dbPath != "" {
		cfg.History.DBPath = g.dbPath
	}
	if g.verbose {
		cfg.Logger.Level = "debug"
	}

	l := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})
	return cfg, l, nil
}

// getStore opens the history store, or returns nil when history is off.
func getStore(cfg *config.Config) (*store.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	return store.New(cfg.History.DBPath)
}

func newFetcher(cfg config.DownloadConfig) *fetcher.Client {
	return fetcher.New().
		WithTimeout(cfg.Timeout).
		WithUserAgent(cfg.UserAgent).
		WithMaxBytes(cfg.MaxBytes).
		WithRateLimit(cfg.RateLimit)
}

func convertCmd(g *globalFlags) *cobra.Command {
	var (
		format          string
		output          string
		download        bool
		continueOnError bool
		attachmentsDir  string
	)

	cmd := &cobra.Command{
		Use:   "convert [source]",
		Short: "Convert a file, a directory or a zip archive",
		Long: `Convert a Todoist CSV export (or, with -f todoist, an OPML outline) to the
selected format. A directory or zip archive source converts every matching
file it contains into the target directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup(g)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			flags := cmd.Flags()
			if !flags.Changed("format") {
				format = cfg.Convert.Format
			}
			if !flags.Changed("download") {
				download = cfg.Convert.Download
			}
			if !flags.Changed("attachments-dir") {
				attachmentsDir = cfg.Convert.AttachmentsDir
			}

			f, known := convert.ParseFormat(format)
			if !known {
				l.Warnf(ctx, "unknown format %q, using %s", format, f)
			}

			policy, err := convert.ParseBatchPolicy(cfg.Convert.BatchPolicy)
			if err != nil {
				return err
			}
			if continueOnError {
				policy = convert.PolicyContinue
			}

			opts := []convert.Option{
				convert.WithFetcher(newFetcher(cfg.Download)),
				convert.WithAttachmentsDir(attachmentsDir),
			}
			s, err := getStore(cfg)
			if err != nil {
				l.Warnf(ctx, "history disabled: %v", err)
			} else if s != nil {
				defer s.Close()
				opts = append(opts, convert.WithRecorder(s))
			}

			engine := convert.New(l, opts...)
			report, err := engine.Convert(ctx, convert.Request{
				Source:   args[0],
				Format:   f,
				Output:   output,
				Download: download,
				Policy:   policy,
			})
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "target format: "+convert.FormatNames())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file name, or target directory for batches")
	cmd.Flags().BoolVarP(&download, "download", "d", false, "download attachments (md and taskpaper)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "keep converting a batch after a file fails")
	cmd.Flags().StringVar(&attachmentsDir, "attachments-dir", "attachments", "download directory, relative to the target")
	return cmd
}

func printReport(w io.Writer, r *convert.Report) {
	if len(r.Members) == 0 {
		fmt.Fprintf(w, "Nothing to convert in %s\n", r.Target.Path)
		return
	}
	for _, m := range r.Members {
		if m.Err != nil {
			fmt.Fprintf(w, "FAIL  %s\n", m.Source)
			continue
		}
		fmt.Fprintf(w, "ok    %s -> %s (%d records)\n", m.Source, m.Target, m.Records)
	}
	if failed := len(r.Failed()); failed > 0 {
		fmt.Fprintf(w, "%d of %d files failed\n", failed, len(r.Members))
	}
}

func historyCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(g)
			if err != nil {
				return err
			}
			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			if s == nil {
				return errors.New("history is disabled (history.enabled=false)")
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No conversions yet. Use 'tdconv convert' to run one.")
				return nil
			}

			for _, r := range runs {
				line := fmt.Sprintf("%s  %s  %-6s  %-9s  %s -> %s",
					shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Format, r.Source, r.Target)
				if r.Error != "" {
					line += "  (" + truncate(r.Error, 60) + ")"
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultLimit, "number of runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup(g)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.HTTPServer.Addr
			}

			srvCfg := api.Config{Addr: addr, Mode: cfg.HTTPServer.Mode}
			s, err := getStore(cfg)
			if err != nil {
				l.Warnf(cmd.Context(), "history disabled: %v", err)
			} else if s != nil {
				defer s.Close()
				srvCfg.History = s
			}

			return api.New(l, srvCfg).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if g.dbPath != "" {
				cfg.History.DBPath = g.dbPath
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}
