// Command docfill-cli fills a document template from the terminal and
// writes an HTML preview page. Templates come from a local bundle file or
// from the document backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/internal/bundlefile"
	"github.com/goliatone/go-docfill/internal/config"
	"github.com/goliatone/go-docfill/internal/drafts"
	"github.com/goliatone/go-docfill/internal/logging"
	"github.com/goliatone/go-docfill/internal/prompt"
	"github.com/goliatone/go-docfill/internal/themes"
	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/preview"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/sections"
	"github.com/goliatone/go-docfill/pkg/session"
)

// cliOwner owns drafts saved by the CLI.
const cliOwner = "cli"

type options struct {
	bundlePath  string
	templateID  string
	output      string
	bare        bool
	interactive bool
	process     bool
	format      string
	download    string
	theme       string
	variant     string
	locale      string
	debounce    time.Duration
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, prompt.NewSurveyDriver(os.Stdout)); err != nil {
		switch {
		case errors.Is(err, pflag.ErrHelp):
			return
		case errors.Is(err, prompt.ErrAborted):
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "docfill-cli:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, driver prompt.PromptDriver) error {
	fs := pflag.NewFlagSet("docfill-cli", pflag.ContinueOnError)
	config.Flags(fs)
	var opts options
	fs.StringVar(&opts.bundlePath, "bundle", "", "local bundle file (YAML or JSON)")
	fs.StringVar(&opts.templateID, "template", "", "backend template id")
	fs.StringVarP(&opts.output, "output", "o", "", "preview page output (stdout if empty)")
	fs.BoolVar(&opts.bare, "bare", false, "write the filled document alone instead of the page shell")
	fs.BoolVar(&opts.interactive, "prompt", true, "ask for field values")
	fs.BoolVar(&opts.process, "process", false, "generate the document after review (backend only)")
	fs.StringVar(&opts.format, "format", "pdf", "download format (docx or pdf)")
	fs.StringVar(&opts.download, "download", "", "write the generated document to this path")
	fs.StringVar(&opts.theme, "theme", "", "section color theme")
	fs.StringVar(&opts.variant, "variant", "", "theme variant")
	fs.StringVar(&opts.locale, "locale", "th", "section label locale")
	fs.DurationVar(&opts.debounce, "debounce", 150*time.Millisecond, "live preview debounce")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts.logLevel = "warn"
	if flag := fs.Lookup("log-level"); flag != nil && flag.Changed {
		opts.logLevel = flag.Value.String()
	}

	if (opts.bundlePath == "") == (opts.templateID == "") {
		return errors.New("exactly one of --bundle or --template is required")
	}

	logger, err := logging.New(opts.logLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := themes.NewCatalog()
	if err != nil {
		return err
	}
	palette, err := catalog.Palette(opts.theme, opts.variant)
	if err != nil {
		return err
	}
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLocale(opts.locale),
		session.WithPalette(palette),
	}

	var filler *session.Filler
	if opts.bundlePath != "" {
		filler, err = localFiller(opts, sessionOpts)
	} else {
		var cfg *config.Config
		if cfg, err = config.Load(fs); err != nil {
			return err
		}
		if !fs.Changed("debounce") {
			opts.debounce = cfg.Preview.Debounce
		}
		filler, err = backendFiller(ctx, cfg, opts.templateID, logger, sessionOpts)
	}
	if err != nil {
		return err
	}
	for _, warning := range filler.Bundle().Warnings {
		logger.Warn(warning, zap.String("template", filler.TemplateID()))
	}

	pages, err := render.New(
		render.WithPalette(palette),
		render.WithLocale(opts.locale),
		render.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	if opts.interactive {
		if err := fillInteractively(ctx, driver, filler, pages, palette, opts, logger); err != nil {
			return err
		}
		filler.Wizard().GoToReview()
	}

	if err := writePreview(ctx, pages, filler, filler.Preview(), opts, stdout); err != nil {
		return err
	}

	if !opts.process {
		return nil
	}
	return processDocument(ctx, driver, filler, opts)
}

func localFiller(opts options, sessionOpts []session.Option) (*session.Filler, error) {
	file, err := bundlefile.Read(opts.bundlePath)
	if err != nil {
		return nil, err
	}
	filler := session.NewFiller(nil, file.Bundle(sessionOpts...), session.Capabilities{}, sessionOpts...)
	filler.Merge(file.Values)
	return filler, nil
}

func backendFiller(ctx context.Context, cfg *config.Config, templateID string, logger *zap.Logger, sessionOpts []session.Option) (*session.Filler, error) {
	client, err := apiclient.New(cfg.Backend.BaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		apiclient.WithToken(cfg.Backend.Token),
		apiclient.WithRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.Burst),
		apiclient.WithBreaker(cfg.Backend.BreakerFailures, cfg.Backend.BreakerCooldown),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.SQLitePath != "" {
		store, err := drafts.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, session.WithDrafts(store, cliOwner))
	}

	// the backend decides who may generate; the CLI acts as a signed in user
	caps := session.Capabilities{Authenticated: true, CanGenerate: true}
	filler, err := session.LoadFiller(ctx, client, templateID, caps, sessionOpts...)
	if err != nil {
		return nil, err
	}
	restored, err := filler.RestoreDraft(ctx)
	if err != nil {
		logger.Warn("draft restore failed", zap.Error(err))
	} else if restored {
		logger.Info("restored draft", zap.String("template", templateID))
	}
	return filler, nil
}

// fillInteractively prompts for every field. When an output file is set the
// preview page is rewritten after each answer through a debounced renderer.
func fillInteractively(ctx context.Context, driver prompt.PromptDriver, filler *session.Filler, pages *render.PageRenderer, palette sections.Palette, opts options, logger *zap.Logger) error {
	var fillOpts []prompt.FillOption
	if opts.output != "" {
		var (
			mu   sync.Mutex
			done bool
		)
		live := preview.NewDeferred(
			preview.NewRenderer(preview.WithPalette(palette), preview.WithLogger(logger)),
			preview.Compile(filler.Bundle().HTML),
			opts.debounce,
			func(result preview.Result) {
				mu.Lock()
				defer mu.Unlock()
				if done {
					return
				}
				if err := writePreview(ctx, pages, filler, result, opts, nil); err != nil {
					logger.Warn("live preview failed", zap.Error(err))
				}
			},
		)
		defer func() {
			live.Close()
			mu.Lock()
			done = true
			mu.Unlock()
		}()
		fillOpts = append(fillOpts, prompt.WithOnAnswer(func(string) {
			live.Schedule(filler.Input())
		}))
	}
	return prompt.Fill(ctx, driver, filler, fillOpts...)
}

// writePreview renders result into the page shell, or with --bare into a
// standalone document carrying only the highlight stylesheet.
func writePreview(ctx context.Context, pages *render.PageRenderer, filler *session.Filler, result preview.Result, opts options, stdout io.Writer) error {
	page, err := previewBytes(ctx, pages, filler, result, opts.bare)
	if err != nil {
		return err
	}
	output := opts.output
	if output == "" {
		if stdout == nil {
			return nil
		}
		_, err = stdout.Write(page)
		return err
	}
	if err := os.WriteFile(output, page, 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}

func previewBytes(ctx context.Context, pages *render.PageRenderer, filler *session.Filler, result preview.Result, bare bool) ([]byte, error) {
	if bare {
		doc, err := preview.Document(result.HTML, preview.StyleSheet)
		if err != nil {
			return nil, err
		}
		return []byte(doc), nil
	}
	return pages.Render(ctx, render.PageData{
		Title:      filler.Bundle().Template.Title(),
		TemplateID: filler.TemplateID(),
		Rendered:   result.HTML,
		Sections:   filler.Sections(),
		Step:       filler.Wizard().Current(),
		Unmatched:  result.Unmatched,
	})
}

func processDocument(ctx context.Context, driver prompt.PromptDriver, filler *session.Filler, opts options) error {
	if opts.templateID == "" {
		return errors.New("--process needs --template")
	}
	ok, err := prompt.Review(ctx, driver, filler)
	if err != nil || !ok {
		return err
	}

	outcome, err := filler.ConfirmAndProcess(ctx)
	if err != nil {
		if banner := filler.Banner(); banner != nil {
			_ = driver.Info(ctx, banner.Message)
		}
		return err
	}
	if outcome.Redirect != nil {
		return fmt.Errorf("not allowed to generate: %s (%s)", outcome.Redirect.Reason, outcome.Redirect.Location)
	}
	if err := driver.Info(ctx, "document "+outcome.Document.DocumentID); err != nil {
		return err
	}

	if opts.download == "" {
		return nil
	}
	blob, err := filler.Download(ctx, opts.format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.download, blob, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return driver.Info(ctx, "saved "+opts.download)
}
