// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-harvester/internal/arxiv"
	"github.com/pdiddy/arxiv-harvester/internal/catalog"
	"github.com/pdiddy/arxiv-harvester/internal/harvest"
	"github.com/pdiddy/arxiv-harvester/internal/report"
	"github.com/pdiddy/arxiv-harvester/internal/semscholar"
	"github.com/pdiddy/arxiv-harvester/internal/storage"
	"github.com/pdiddy/arxiv-harvester/pkg/types"
)

const defaultUserAgent = "arxiv-harvester/0.1"

var harvestCmd = &cobra.Command{
	Use:   "harvest [identifiers...]",
	Short: "Download papers, versions, and references for arXiv identifiers",
	Long: `Harvest processes each identifier through the full pipeline: metadata
lookup, version discovery, source bundle download and cleanup, and
reference resolution via the citation graph. Identifiers are given as
arguments, as an inclusive range, or both.

Output lands under --out: one directory per paper (2504-13946/) holding
metadata.yaml, references.json, and one v<N>/ source directory per
version, plus a run-level harvest_report.json.`,
	Example: `  arxiv-harvester harvest 2504.13946 2310.04378
  arxiv-harvester harvest --range 2504.13900..2504.13950
  arxiv-harvester harvest --skip-complete --workers 6 2504.13946`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("range", "", "inclusive identifier range, start..end (same year-month prefix)")
	harvestCmd.Flags().String("out", "papers", "output directory for the dataset")
	harvestCmd.Flags().Int("workers", 0, fmt.Sprintf("paper-level worker pool size (default %d)", types.DefaultWorkers))
	harvestCmd.Flags().Int("download-workers", 0, fmt.Sprintf("concurrent version downloads per paper (default %d)", types.DefaultDownloadWorkers))
	harvestCmd.Flags().Int("probe-concurrency", 0, fmt.Sprintf("concurrent version probes per paper (default %d)", types.DefaultProbeConcurrency))
	harvestCmd.Flags().Int("max-version", 0, fmt.Sprintf("highest version number to probe (default %d)", types.DefaultMaxVersion))
	harvestCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	harvestCmd.Flags().Bool("skip-complete", false, "skip papers the catalog records as complete")
	harvestCmd.Flags().String("api-key", "", "Semantic Scholar API key (or .secrets/semantic-scholar-api-key)")
	harvestCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on (e.g. :9090), disabled when empty")
	harvestCmd.Flags().BoolP("verbose", "v", false, "enable debug logging")

	viper.BindPFlag("harvest.workers", harvestCmd.Flags().Lookup("workers"))
	viper.BindPFlag("harvest.download_workers", harvestCmd.Flags().Lookup("download-workers"))
	viper.BindPFlag("harvest.output_dir", harvestCmd.Flags().Lookup("out"))

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ids, err := collectIdentifiers(cmd, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more arXiv identifiers or --range")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	cfg := resolveHarvestConfig(cmd)

	httpClient := &http.Client{Timeout: cfg.Timeout}

	ledger, err := catalog.Open(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer ledger.Close()

	h, err := harvest.New(cfg, harvest.Options{
		Source:    arxiv.NewClient(httpClient, cfg.HTTPConfig),
		Citations: semscholar.NewClient(httpClient, cfg.HTTPConfig, cfg.SemanticScholarAPIKey),
		Sink:      storage.NewSink(cfg.OutputDir, logger),
		Ledger:    ledger,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		go serveMetrics(addr, logger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, runErr := h.Run(ctx, ids)
	elapsed := time.Since(start)

	rep := report.Build(results, h.Stats().Snapshot(), elapsed)
	if path, err := report.Write(cfg.OutputDir, rep); err != nil {
		logger.Warn().Err(err).Msg("report write failed")
	} else {
		logger.Info().Str("path", path).Msg("report written")
	}
	printSummary(os.Stdout, rep)

	if runErr != nil {
		return runErr
	}
	if rep.PapersFailed > 0 {
		return fmt.Errorf("%d paper(s) failed", rep.PapersFailed)
	}
	return nil
}

// resolveHarvestConfig merges flag and config-file values into the run
// configuration. Workers, download workers, and the output directory are
// bound through viper, so a config file can set them; an explicit flag
// still wins.
func resolveHarvestConfig(cmd *cobra.Command) types.HarvestConfig {
	probeConcurrency, _ := cmd.Flags().GetInt("probe-concurrency")
	maxVersion, _ := cmd.Flags().GetInt("max-version")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	skipComplete, _ := cmd.Flags().GetBool("skip-complete")
	apiKey, _ := cmd.Flags().GetString("api-key")

	return types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Workers:               viper.GetInt("harvest.workers"),
		DownloadWorkers:       viper.GetInt("harvest.download_workers"),
		ProbeConcurrency:      probeConcurrency,
		MaxVersion:            maxVersion,
		OutputDir:             viper.GetString("harvest.output_dir"),
		SkipComplete:          skipComplete,
		SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", apiKey),
	}.WithDefaults()
}

// collectIdentifiers merges positional identifiers with an expanded
// --range.
func collectIdentifiers(cmd *cobra.Command, args []string) ([]string, error) {
	ids := append([]string{}, args...)

	rangeSpec, _ := cmd.Flags().GetString("range")
	if rangeSpec != "" {
		start, end, ok := strings.Cut(rangeSpec, "..")
		if !ok {
			return nil, fmt.Errorf("range must be start..end, got %q", rangeSpec)
		}
		expanded, err := arxiv.Range(strings.TrimSpace(start), strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("expanding range: %w", err)
		}
		ids = append(ids, expanded...)
	}
	return ids, nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn().Err(err).Msg("metrics server stopped")
	}
}

func printSummary(w *os.File, r types.AggregateReport) {
	fmt.Fprintf(w, "\nHarvest summary: %d attempted, %d successful, %d partial, %d failed, %d skipped\n",
		r.PapersAttempted, r.PapersSuccessful, r.PapersPartial, r.PapersFailed, r.PapersSkipped)
	fmt.Fprintf(w, "Versions: %d found, %d downloaded (%d bytes)\n",
		r.VersionsFound, r.VersionsDownloaded, r.BytesDownloaded)
	fmt.Fprintf(w, "References: %d found, %d with arXiv IDs (%.1f%% extraction rate)\n",
		r.ReferencesFound, r.ReferencesWithArxivID, r.ExtractionRatePct)
	fmt.Fprintf(w, "Citation API: %d requests, %d cache hits, %d rate-limit waits, %d retries\n",
		r.CitationRequestsMade, r.CitationCacheHits, r.RateLimitWaits, r.RetriesAttempted)
	fmt.Fprintf(w, "Runtime: %.1fs (%.2fs per paper)\n",
		r.TotalRuntimeSeconds, r.AvgTimePerPaperSeconds)
}
