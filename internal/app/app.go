package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/reportindex/internal/extract"
	"github.com/hyperifyio/reportindex/internal/fetch"
	"github.com/hyperifyio/reportindex/internal/keywords"
	"github.com/hyperifyio/reportindex/internal/llm"
	"github.com/hyperifyio/reportindex/internal/loader"
	"github.com/hyperifyio/reportindex/internal/render"
	"github.com/hyperifyio/reportindex/internal/report"
	"github.com/hyperifyio/reportindex/internal/server"
	"github.com/hyperifyio/reportindex/internal/watch"
)

// ErrNoSource is returned when the index could not be obtained from any
// candidate and the operator did not supply a file. The CLI exits with
// status 2 on it.
var ErrNoSource = loader.ErrNoSource

// Stdout is the JSONOut/HTMLOut value that writes to the caller's writer.
const Stdout = "-"

type App struct {
	cfg        Config
	httpClient *http.Client
	fetcher    *fetch.Client
	extractor  extract.Extractor
	tagger     keywords.Tagger
	detail     *keywords.DetailEnricher
	prompter   *loader.Prompter
	chat       llm.Client
	now        func() time.Time
}

// Option customizes an App.
type Option func(*App)

// WithPrompter sets the terminal used for the manual selection fallback.
// Defaults to stdin and stderr.
func WithPrompter(p *loader.Prompter) Option { return func(a *App) { a.prompter = p } }

// WithChatClient replaces the OpenAI client used by the llm keywords mode.
func WithChatClient(c llm.Client) Option { return func(a *App) { a.chat = c } }

// WithClock sets the time source stamped into rendered outputs.
func WithClock(now func() time.Time) Option { return func(a *App) { a.now = now } }

func New(cfg Config, opts ...Option) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	ex, err := extract.NewSelectorExtractor(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	a := &App{cfg: cfg, httpClient: newHTTPClient(), extractor: ex, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.fetcher = &fetch.Client{
		HTTPClient:        a.httpClient,
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.FetchTimeout,
	}
	if a.prompter == nil {
		a.prompter = &loader.Prompter{In: os.Stdin, Out: os.Stderr}
	}
	switch cfg.Keywords {
	case KeywordsRules:
		a.tagger = keywords.RuleTagger{}
	case KeywordsDetail:
		a.tagger = keywords.RuleTagger{}
		a.detail = &keywords.DetailEnricher{Getter: a.fetcher}
	case KeywordsLLM:
		if a.chat == nil {
			a.chat = llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, a.httpClient)
		}
		// Best-effort connectivity check; tagging falls back to rules anyway.
		llm.Preflight(context.Background(), a.chat)
		a.tagger = &keywords.LLMTagger{Client: a.chat, Model: cfg.LLMModel, Fallback: keywords.RuleTagger{}}
	}
	return a, nil
}

// Records loads the index and extracts its records in document order.
func (a *App) Records(ctx context.Context) ([]report.Record, error) {
	return a.records(ctx, a.cfg.Interactive)
}

func (a *App) records(ctx context.Context, interactive bool) ([]report.Record, error) {
	body, origin, err := a.load(ctx, interactive)
	if err != nil {
		return nil, err
	}
	recs := a.extractor.Extract(body)
	log.Info().Str("origin", origin).Int("records", len(recs)).Msg("extracted records")
	if a.tagger != nil {
		if err := keywords.Annotate(ctx, a.tagger, recs); err != nil {
			return nil, err
		}
	}
	if a.detail != nil {
		if err := a.detail.Enrich(ctx, recs); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// load reads IndexPath when configured, otherwise runs the candidate loader.
func (a *App) load(ctx context.Context, interactive bool) ([]byte, string, error) {
	if p := strings.TrimSpace(a.cfg.IndexPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, "", fmt.Errorf("read index: %w", err)
		}
		return b, p, nil
	}
	return a.newLoader(interactive).Acquire(ctx)
}

func (a *App) newLoader(interactive bool) *loader.Loader {
	l := &loader.Loader{
		BaseURL:    a.cfg.BaseURL,
		Candidates: a.cfg.Candidates,
		Getter:     a.fetcher,
	}
	if b := strings.TrimSpace(a.cfg.BaseURL); b != "" {
		l.PlacementHint = "the directory served at " + b
	}
	if interactive {
		l.Decider = &loader.TerminalDecider{Prompter: a.prompter}
		l.Picker = &loader.TerminalPicker{Prompter: a.prompter}
	}
	return l
}

// Export writes records to every configured output. With no output
// configured, JSON goes to stdout.
func (a *App) Export(records []report.Record, stdout io.Writer) error {
	jsonOut, htmlOut := a.cfg.JSONOut, a.cfg.HTMLOut
	if jsonOut == "" && htmlOut == "" && a.cfg.PDFOut == "" {
		jsonOut = Stdout
	}
	generated := a.now()
	if jsonOut != "" {
		if err := writeOutput(jsonOut, stdout, func(w io.Writer) error { return render.JSON(w, records) }); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if htmlOut != "" {
		if err := writeOutput(htmlOut, stdout, func(w io.Writer) error { return render.HTML(w, records, generated) }); err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	if a.cfg.PDFOut != "" {
		if err := ensureDir(a.cfg.PDFOut); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		opts := render.PDFOptions{BaseURL: a.cfg.BaseURL, FontPath: a.cfg.FontPath, GeneratedAt: generated}
		if err := render.PDF(a.cfg.PDFOut, records, opts); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("path", a.cfg.PDFOut).Msg("wrote pdf catalog")
	}
	return nil
}

// Run extracts once and exports the result.
func (a *App) Run(ctx context.Context, stdout io.Writer) error {
	recs, err := a.Records(ctx)
	if err != nil {
		return err
	}
	return a.Export(recs, stdout)
}

// Watch runs once, then again whenever the index file changes.
func (a *App) Watch(ctx context.Context, stdout io.Writer) error {
	w, err := a.watcher(stdout)
	if err != nil {
		return err
	}
	if err := a.Run(ctx, stdout); err != nil {
		log.Error().Err(err).Msg("initial export failed")
	}
	return w.Run(ctx)
}

func (a *App) watcher(stdout io.Writer) (*watch.FileWatcher, error) {
	if strings.TrimSpace(a.cfg.IndexPath) == "" {
		return nil, fmt.Errorf("watch: an index file is required (--index or REPORTS_INDEX)")
	}
	return &watch.FileWatcher{
		Path:     a.cfg.IndexPath,
		OnChange: func(ctx context.Context) error { return a.Run(ctx, stdout) },
	}, nil
}

// Server builds the HTTP surface. Requests never prompt the operator.
func (a *App) Server() *server.Server {
	src := server.RecordSourceFunc(func(ctx context.Context) ([]report.Record, error) {
		return a.records(ctx, false)
	})
	return server.New(server.Options{
		Addr:           a.cfg.Listen,
		IndexPath:      a.cfg.IndexPath,
		PDFDir:         a.cfg.PDFDir,
		AllowedOrigins: a.cfg.AllowedOrigins,
	}, src)
}

// Serve runs the HTTP server until ctx ends. With watchIndex it also
// re-exports on index changes; either failing stops both.
func (a *App) Serve(ctx context.Context, watchIndex bool, stdout io.Writer) error {
	srv := a.Server()
	if !watchIndex {
		return srv.ListenAndServe(ctx)
	}
	w, err := a.watcher(stdout)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return w.Run(gctx) })
	return g.Wait()
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == Stdout {
		return write(stdout)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("wrote output")
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
