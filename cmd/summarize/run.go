package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/infra/fetcher"
	"github.com/davisbuilds/summarize/internal/infra/firecrawl"
	"github.com/davisbuilds/summarize/internal/infra/nitter"
	"github.com/davisbuilds/summarize/internal/infra/summarizer"
	"github.com/davisbuilds/summarize/internal/infra/transcripts"
	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/metrics"
	"github.com/davisbuilds/summarize/internal/observability/runid"
	"github.com/davisbuilds/summarize/internal/usecase/linkpreview"
	"github.com/davisbuilds/summarize/internal/usecase/summarize"
	"github.com/davisbuilds/summarize/internal/utils/text"
	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
)

const usage = "Usage: summarize [flags] <url>"

// deps are the process handles a run needs. Tests replace all of them.
type deps struct {
	Env        pkgconfig.Env
	Stdout     io.Writer
	Stderr     io.Writer
	HTTPClient *http.Client
}

// cliFlags holds raw flag values.
type cliFlags struct {
	run         config.CLIRunInput
	model       string
	extractOnly bool
	promptOnly  bool
	jsonOutput  bool
	configPath  string
	metricsFile string
	verbose     bool
}

// jsonOutput is the --json document.
type jsonOutput struct {
	RunID       string                         `json:"run_id"`
	URL         string                         `json:"url"`
	SourceURL   string                         `json:"source_url,omitempty"`
	Title       string                         `json:"title,omitempty"`
	SiteName    string                         `json:"site_name,omitempty"`
	Model       string                         `json:"model,omitempty"`
	Summary     string                         `json:"summary,omitempty"`
	Prompt      string                         `json:"prompt,omitempty"`
	Content     string                         `json:"content,omitempty"`
	Truncated   bool                           `json:"truncated"`
	Characters  int                            `json:"total_characters,omitempty"`
	Attempts    int                            `json:"attempts,omitempty"`
	Diagnostics entity.ContentFetchDiagnostics `json:"diagnostics"`
}

// run executes one CLI invocation and returns the exit code. stdout receives
// output only when the run succeeds.
func run(ctx context.Context, args []string, d deps) int {
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{}
	}

	flags, url, err := parseArgs(args, d.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(d.Stderr, err)
		}
		fmt.Fprintln(d.Stderr, usage)
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logger := newLogger(d, flags.verbose)
	ctx, id := runid.Ensure(ctx)
	logger = logging.WithRunID(ctx, logger)
	ctx = logging.WithLogger(ctx, logger)

	out, model, err := execute(ctx, url, flags, d)
	if flags.metricsFile != "" {
		if mErr := metrics.WriteTextfile(flags.metricsFile); mErr != nil {
			logger.Warn("failed to write metrics file",
				slog.String("path", flags.metricsFile),
				slog.Any("error", mErr))
		}
	}
	if err != nil {
		logger.Debug("run failed", slog.Any("error", err))
		fmt.Fprintln(d.Stderr, err)
		return 1
	}

	if flags.jsonOutput {
		if err := writeJSON(d.Stdout, id, model, out); err != nil {
			fmt.Fprintln(d.Stderr, err)
			return 1
		}
		return 0
	}

	result := out.Text()
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	if _, err := io.WriteString(d.Stdout, result); err != nil {
		fmt.Fprintln(d.Stderr, err)
		return 1
	}
	return 0
}

// parseArgs accepts flags before and after the URL.
func parseArgs(args []string, stderr io.Writer) (cliFlags, string, error) {
	var f cliFlags
	fs := flag.NewFlagSet("summarize", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.run.Length, "length", "", "summary length: short|medium|long|xl|xxl or a character count")
	fs.StringVar(&f.run.Firecrawl, "firecrawl", "", "Firecrawl fallback: off|auto|always")
	fs.StringVar(&f.run.Format, "format", "", "content format: text|markdown")
	fs.StringVar(&f.run.MarkdownMode, "markdown-mode", "", "markdown conversion: off|auto|readability")
	fs.StringVar(&f.run.Preprocess, "preprocess", "", "content preprocessing: off|auto|always")
	fs.StringVar(&f.run.Youtube, "youtube", "", "transcript mode: auto|web|yt-dlp|apify")
	fs.StringVar(&f.run.Timeout, "timeout", "", "per-request timeout, e.g. 30s or 2m")
	fs.StringVar(&f.run.Retries, "retries", "", "completion retries (0-10)")
	fs.StringVar(&f.run.MaxOutputTokens, "max-output-tokens", "", "completion token ceiling, e.g. 2000 or 4k")
	fs.StringVar(&f.model, "model", "", "model id, e.g. openai/gpt-4o-mini or anthropic/claude-sonnet-4-5")
	fs.BoolVar(&f.extractOnly, "extract-only", false, "print the extracted content and exit")
	fs.BoolVar(&f.promptOnly, "prompt", false, "print the prompt instead of calling the model")
	fs.BoolVar(&f.jsonOutput, "json", false, "print a JSON document")
	fs.StringVar(&f.configPath, "config", "", "config file path (default ~/.summarize/config.yaml)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	fs.BoolVar(&f.verbose, "verbose", false, "log progress to stderr")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return f, "", err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if f.promptOnly && f.extractOnly {
		return f, "", summarize.ErrConflictingModes
	}
	switch len(positional) {
	case 0:
		return f, "", errors.New("missing URL")
	case 1:
		return f, strings.TrimSpace(positional[0]), nil
	}
	return f, "", fmt.Errorf("expected one URL, got %d arguments", len(positional))
}

func newLogger(d deps, verbose bool) *slog.Logger {
	if verbose {
		return logging.New(d.Stderr, logging.FormatText, slog.LevelDebug)
	}
	return logging.New(d.Stderr, logging.FormatJSON, logging.ParseLevel(d.Env.String("LOG_LEVEL", ""), slog.LevelWarn))
}

// execute wires the pipeline for one run.
func execute(ctx context.Context, url string, flags cliFlags, d deps) (*summarize.Output, string, error) {
	logger := logging.FromContext(ctx)

	fileCfg, err := loadFileConfig(flags.configPath, d.Env)
	if err != nil {
		return nil, "", err
	}

	settings, err := resolveSettings(fileCfg, flags.run)
	if err != nil {
		return nil, "", err
	}

	firecrawlCfg, err := firecrawl.LoadConfigFromEnv(d.Env)
	if err != nil {
		return nil, "", err
	}
	if settings.Firecrawl == config.FirecrawlAlways && !firecrawlCfg.Enabled() {
		return nil, "", errors.New("--firecrawl always requires FIRECRAWL_API_KEY")
	}

	fetchCfg, err := fetcher.LoadConfigFromEnv(d.Env)
	if err != nil {
		return nil, "", err
	}

	modelID := flags.model
	if modelID == "" {
		modelID = fileCfg.Model
	}
	aiCfg, err := config.LoadAIConfig(d.Env, modelID)
	if err != nil {
		return nil, "", err
	}

	linkDeps := linkpreview.Deps{
		HTML: fetcher.NewHTMLFetcher(fetchCfg, d.HTTPClient),
		Transcripts: transcripts.NewDefaultChain(transcripts.Options{
			YouTubeBaseURL: d.Env.String("SUMMARIZE_YOUTUBE_BASE_URL", ""),
			YtDlpBinary:    d.Env.String("YT_DLP_PATH", ""),
			ApifyBaseURL:   d.Env.String("APIFY_BASE_URL", ""),
			ApifyActor:     d.Env.String("APIFY_YOUTUBE_ACTOR", ""),
		}),
		ResourceKey: transcripts.ResourceKey,
		HTTPClient:  d.HTTPClient,
		ApifyToken:  d.Env.String("APIFY_API_TOKEN", ""),
		Heuristics:  fetcher.LoadBlockHeuristics(d.Env),
		Mirrors:     nitter.NewRotation(d.Env.StringList("SUMMARIZE_NITTER_HOSTS", nil)),
	}
	if firecrawlCfg.Enabled() {
		linkDeps.Scraper = firecrawl.NewClient(firecrawlCfg, d.HTTPClient)
	}

	var completer summarizer.Completer
	if !flags.extractOnly && !flags.promptOnly {
		if completer, err = summarizer.New(aiCfg, d.HTTPClient); err != nil {
			return nil, "", err
		}
	}

	svc := summarize.NewService(linkpreview.NewClient(linkDeps), completer, summarize.Config{
		ContentBudget: d.Env.Int("SUMMARIZE_CONTENT_BUDGET", summarize.DefaultContentBudget),
		Model:         aiCfg.Model.Model,
	})
	if flags.verbose {
		svc.WithTokenEstimator(text.EstimateTokens)
	}

	logger.Info("run started",
		slog.String("url", url),
		slog.String("model", aiCfg.Model.String()),
		slog.String("length", settings.Length.String()),
		slog.String("firecrawl", string(settings.Firecrawl)),
		slog.Duration("timeout", settings.Timeout),
		slog.Int("retries", settings.Retries))

	out, err := svc.Run(ctx, url, settings, summarize.RunOptions{
		ExtractOnly: flags.extractOnly,
		PromptOnly:  flags.promptOnly,
	})
	if err != nil {
		return nil, "", err
	}
	return out, aiCfg.Model.String(), nil
}

// loadFileConfig picks --config, then SUMMARIZE_CONFIG, then the file in the
// home directory. Only the default location may be missing.
func loadFileConfig(flagPath string, env pkgconfig.Env) (*config.FileConfig, error) {
	if flagPath != "" {
		return config.LoadFileConfig(flagPath, true)
	}
	if path := env.String("SUMMARIZE_CONFIG", ""); path != "" {
		return config.LoadFileConfig(path, true)
	}
	path := config.DefaultConfigPath()
	if home := env.String("HOME", ""); home != "" {
		path = filepath.Join(home, ".summarize", "config.yaml")
	}
	return config.LoadFileConfig(path, false)
}

// resolveSettings layers defaults, the config file and flags, in that order.
func resolveSettings(fileCfg *config.FileConfig, in config.CLIRunInput) (config.ResolvedRunSettings, error) {
	base := config.ApplyOverrides(config.DefaultRunSettings(), fileCfg.Overrides)
	if fileCfg.Length != "" {
		length, err := config.ParseLength(fileCfg.Length)
		if err != nil {
			return base, fmt.Errorf("%s: %w", fileCfg.Path, err)
		}
		base.Length = length
	}
	return config.ResolveCLIRunSettings(in, base)
}

func writeJSON(w io.Writer, id, model string, out *summarize.Output) error {
	doc := jsonOutput{
		RunID:    id,
		URL:      out.URL,
		Summary:  out.Summary,
		Prompt:   out.Prompt,
		Attempts: out.Attempts,
	}
	if out.Summary != "" {
		doc.Model = model
	}
	if out.Fetch != nil {
		doc.SourceURL = out.Fetch.SourceURL
		doc.Title = out.Fetch.Title
		doc.SiteName = out.Fetch.SiteName
		doc.Diagnostics = out.Fetch.Diagnostics
		if out.Summary == "" && out.Prompt == "" {
			doc.Content = out.Fetch.Content
		}
	}
	if out.Budget != nil {
		doc.Truncated = out.Budget.Truncated
		doc.Characters = out.Budget.TotalCharacters
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON output: %w", err)
	}
	return nil
}
