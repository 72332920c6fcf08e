package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ozevents/marquee/internal/browser"
	"github.com/ozevents/marquee/internal/cache"
	"github.com/ozevents/marquee/internal/catalog"
	"github.com/ozevents/marquee/internal/compliance"
	"github.com/ozevents/marquee/internal/dedup"
	"github.com/ozevents/marquee/internal/fetch"
	"github.com/ozevents/marquee/internal/model"
	"github.com/ozevents/marquee/internal/orchestrator"
	"github.com/ozevents/marquee/internal/sources"
	"github.com/ozevents/marquee/internal/worker"
)

var (
	ingestSources  []string
	ingestMode     string
	maxItems       int
	fetchDetails   bool
	detailDelay    time.Duration
	categoryFilter []string
	outPath        string
	ingestTimeout  time.Duration
	userAgent      string
	noCache        bool
	httpProxy      string
	httpsProxy     string
	challengeLLM   string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the ingestion pipeline and write the merged catalog",
	Long: `Ingest runs the selected source adapters, deduplicates the combined
candidate pool, and writes the merged catalog as JSON.

Adapters run with partial-failure isolation: one source failing leaves
the others untouched, and per-source stats stay attributable.

Example:
  marquee ingest
  marquee ingest --sources whatson,eventbrite --mode sequential
  marquee ingest --details --delay 1200ms --max-items 50 --out catalog.json`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil, "sources to run (default: all registered)")
	ingestCmd.Flags().StringVar(&ingestMode, "mode", "parallel", "scheduling mode (parallel or sequential)")
	ingestCmd.Flags().IntVar(&maxItems, "max-items", 0, "max items per source (0 = unlimited)")
	ingestCmd.Flags().BoolVar(&fetchDetails, "details", true, "fetch detail pages (slower, richer records)")
	ingestCmd.Flags().DurationVar(&detailDelay, "delay", 800*time.Millisecond, "politeness delay between detail fetches")
	ingestCmd.Flags().StringSliceVar(&categoryFilter, "categories", nil, "restrict to these categories")
	ingestCmd.Flags().StringVar(&outPath, "out", "catalog.json", "output catalog path")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 20*time.Minute, "overall ingestion timeout")
	ingestCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent override")
	ingestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the fetched-page cache")
	ingestCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	ingestCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	ingestCmd.Flags().StringVar(&challengeLLM, "challenge-llm", "", "OpenAI model for the optional LLM challenge solver")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags beat the resolved file/env state, but only when given: a
	// flag's compiled-in default must not clobber a config file value.
	flags := cmd.Flags()
	if userAgent != "" {
		cfg.HTTP.UserAgent = userAgent
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("challenge-llm") {
		cfg.Browser.ChallengeLLM = challengeLLM
	}
	if flags.Changed("out") {
		cfg.Output.Path = outPath
	}
	cfg.Browser.ChallengeKey = os.Getenv("OPENAI_API_KEY")
	cfg.Output.Verbose = verbose

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	registry, runner, engine := buildPipeline(cfg, logger)

	selected := ingestSources
	if len(selected) == 0 {
		selected = registry.Names()
	}

	mode, err := orchestrator.ParseMode(ingestMode)
	if err != nil {
		return err
	}

	opts := model.AdapterOptions{
		MaxItems:         maxItems,
		FetchDetailPages: fetchDetails,
		DetailFetchDelay: detailDelay,
		CategoryFilter:   categoryFilter,
	}
	perSource := make(map[string]model.AdapterOptions, len(selected))
	for _, name := range selected {
		perSource[name] = opts
	}

	if err := ensureOutputDir(cfg.Output.Path); err != nil {
		return fmt.Errorf("prepare output dir: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingesting %s (%s mode)\n", strings.Join(selected, ", "), mode)

	result, err := runner.Run(ctx, orchestrator.Selection{
		Sources:   selected,
		Mode:      mode,
		PerSource: perSource,
	})
	if err != nil {
		return fmt.Errorf("orchestrate: %w", err)
	}

	printStats(result.Stats)

	merged, err := engine.Deduplicate(result.Events)
	if err != nil {
		// A malformed candidate is an adapter contract violation; stop
		// rather than write a corrupt catalog.
		return fmt.Errorf("deduplicate: %w", err)
	}

	writer := catalog.NewJSONWriter(cfg.Output.Path)
	for _, ev := range merged {
		if err := writer.Upsert(ctx, ev.Source, ev.SourceID, ev); err != nil {
			return fmt.Errorf("upsert %s: %w", ev.Key(), err)
		}
	}
	if err := writer.Flush(ctx); err != nil {
		return fmt.Errorf("flush catalog: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n✓ %d candidates -> %d merged events -> %s\n",
		len(result.Events), len(merged), cfg.Output.Path)
	return nil
}

// buildPipeline wires the component graph from configuration. Everything
// is constructed here and injected; no package-level state.
func buildPipeline(cfg *model.Config, logger *zap.Logger) (*sources.Registry, *orchestrator.Runner, *dedup.Engine) {
	gate := compliance.NewGate(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, cfg.Compliance.PolicyTTL, logger)
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize, cfg.RateLimit.JitterFraction)

	var pageCache cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.Dir != "" {
			pageCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			pageCache = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
	}

	pages := fetch.NewClient(fetch.Options{
		Timeout:    cfg.HTTP.Timeout,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBodyBytes,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
		Cache:      pageCache,
		CacheTTL:   cfg.Cache.TTL,
	}, gate, limiter, logger)

	driver := browser.NewDriver(cfg.Browser.Headless, cfg.Browser.NavTimeout, cfg.Browser.BlockResources, logger)
	solver := browser.NewSolverChain(
		browser.NewHeuristicSolver(),
		browser.NewLLMSolver(cfg.Browser.ChallengeKey, cfg.Browser.ChallengeLLM, 15*time.Second, logger),
	)

	registry := sources.NewRegistry(sources.Deps{
		Pages:   pages,
		Browser: driver,
		Solver:  solver,
		Gate:    gate,
		Limiter: limiter,
		Logger:  logger,
		Now:     time.Now,
	})

	runner := orchestrator.NewRunner(registry, logger)

	dedupCfg := dedup.DefaultConfig()
	dedupCfg.TitleWeight = cfg.Dedup.TitleWeight
	dedupCfg.VenueWeight = cfg.Dedup.VenueWeight
	dedupCfg.DateWeight = cfg.Dedup.DateWeight
	dedupCfg.MergeThreshold = cfg.Dedup.MergeThreshold
	engine := dedup.NewEngine(dedupCfg, logger)

	return registry, runner, engine
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func printStats(stats map[string]model.SourceStats) {
	fmt.Fprintf(os.Stderr, "\n%-12s %8s %10s %8s %10s\n", "SOURCE", "FETCHED", "NORMALISED", "ERRORS", "DURATION")
	for name, s := range stats {
		fmt.Fprintf(os.Stderr, "%-12s %8d %10d %8d %9dms\n",
			name, s.Fetched, s.Normalised, s.Errors, s.DurationMs)
	}
}

// ensure the output directory exists before expensive work starts
func ensureOutputDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
