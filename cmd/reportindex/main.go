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
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/reportindex/internal/app"
	"github.com/hyperifyio/reportindex/internal/loader"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdin, &options{}).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps errors to the process status: 2 when no index source was
// available, 1 for any other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoSource):
		return 2
	default:
		return 1
	}
}

type options struct {
	configPath string
	envFile    string
	verbose    bool

	baseURL     string
	index       string
	interactive bool
	keywords    string
	llmModel    string

	jsonOut string
	htmlOut string
	pdfOut  string
	font    string

	listen  string
	pdfDir  string
	origins []string
	watch   bool
}

// newRootCmd binds every flag into o.
func newRootCmd(stdin io.Reader, o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "reportindex",
		Short:         "Extract structured report records from a report index page",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "Path to a YAML or JSON config file")
	pf.StringVar(&o.envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&o.baseURL, "base-url", "", "Base URL the index candidates are resolved against")
	pf.StringVar(&o.index, "index", "", "Read the index from this local file instead of the network")
	pf.BoolVar(&o.interactive, "interactive", false, "Ask on the terminal for a local file when no candidate loads")
	pf.StringVar(&o.keywords, "keywords", "", "Keyword tagging: rules, detail or llm (empty disables)")
	pf.StringVar(&o.llmModel, "llm.model", "", "Model name for llm keyword tagging")

	newApp := func(cmd *cobra.Command) (*app.App, error) {
		cfg, err := buildConfig(cmd, o)
		if err != nil {
			return nil, err
		}
		if cfg.Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return app.New(cfg, app.WithPrompter(&loader.Prompter{In: stdin, Out: cmd.ErrOrStderr()}))
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract records once and write them to the configured outputs",
		Long: `Loads the report index, extracts its records in document order and writes
them as JSON, HTML and/or a PDF catalog. Without any output flag the JSON
goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
	addOutputFlags(extractCmd, o)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the index, the PDF directory and the records API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context(), o.watch, cmd.OutOrStdout())
		},
	}
	serveCmd.Flags().StringVar(&o.listen, "listen", "", "Listen address (default :5001)")
	serveCmd.Flags().StringVar(&o.pdfDir, "pdf-dir", "", "Directory served under /pdfs/")
	serveCmd.Flags().StringSliceVar(&o.origins, "origin", nil, "Allowed CORS origin (repeatable; default any)")
	serveCmd.Flags().BoolVar(&o.watch, "watch", false, "Re-export outputs when the index file changes")
	addOutputFlags(serveCmd, o)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-export outputs whenever the index file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context(), cmd.OutOrStdout())
		},
	}
	addOutputFlags(watchCmd, o)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.VersionString())
		},
	}

	root.AddCommand(extractCmd, serveCmd, watchCmd, versionCmd)
	return root
}

func addOutputFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.jsonOut, "json", "", "Write records as JSON to this path (- for stdout)")
	f.StringVar(&o.htmlOut, "html", "", "Write an HTML index to this path (- for stdout)")
	f.StringVar(&o.pdfOut, "pdf", "", "Write a PDF catalog to this path")
	f.StringVar(&o.font, "font", "", "UTF-8 TrueType font for the PDF catalog")
}

// buildConfig layers defaults, the config file, the environment and finally
// explicitly set flags.
func buildConfig(cmd *cobra.Command, o *options) (app.Config, error) {
	if err := app.LoadEnvFiles(o.envFile); err != nil {
		return app.Config{}, err
	}
	cfg := app.DefaultConfig()
	if strings.TrimSpace(o.configPath) != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	set := func(name string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	set("verbose", func() { cfg.Verbose = o.verbose })
	set("base-url", func() { cfg.BaseURL = o.baseURL })
	set("index", func() { cfg.IndexPath = o.index })
	set("interactive", func() { cfg.Interactive = o.interactive })
	set("keywords", func() { cfg.Keywords = o.keywords })
	set("llm.model", func() { cfg.LLMModel = o.llmModel })
	set("json", func() { cfg.JSONOut = o.jsonOut })
	set("html", func() { cfg.HTMLOut = o.htmlOut })
	set("pdf", func() { cfg.PDFOut = o.pdfOut })
	set("font", func() { cfg.FontPath = o.font })
	set("listen", func() { cfg.Listen = o.listen })
	set("pdf-dir", func() { cfg.PDFDir = o.pdfDir })
	set("origin", func() { cfg.AllowedOrigins = o.origins })
	return cfg, nil
}
