package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rohmanhakim/wayback-archiver/internal/batch"
	"github.com/rohmanhakim/wayback-archiver/internal/build"
	"github.com/rohmanhakim/wayback-archiver/internal/config"
	"github.com/rohmanhakim/wayback-archiver/internal/logging"
	"github.com/rohmanhakim/wayback-archiver/internal/metadata"
	"github.com/rohmanhakim/wayback-archiver/internal/metrics"
	"github.com/rohmanhakim/wayback-archiver/internal/source"
	"github.com/rohmanhakim/wayback-archiver/internal/storage"
	"github.com/rohmanhakim/wayback-archiver/internal/wayback"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile           string
	inputs            []string
	inputFormat       string
	baseURL           string
	excludePatterns   []string
	archiveEndpoint   string
	checkEndpoint     string
	maxRetries        int
	thresholdDays     int
	userAgent         string
	concurrency       int
	timeout           time.Duration
	requestsPerMinute int
	logLevel          string
	metricsFile       string
	reportFile        string
	longVersion       bool
)

// unset marks integer flags whose zero value is meaningful
const unset = -1

// ErrURLsFailed is returned by the root command when at least one URL failed.
var ErrURLsFailed = errors.New("one or more URLs failed")

// archiverFactory builds the pipeline used by the root command.
var archiverFactory = func(cfg wayback.ClientConfig, sink metadata.MetadataSink) batch.Archiver {
	return wayback.NewClient(cfg, sink)
}

// fileSystem backs --input documents and the --report file.
var fileSystem afero.Fs = afero.NewOsFs()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wayback-archiver [flags] [URL...]",
	Short: "Submit URLs to the Wayback Machine unless a recent snapshot exists.",
	Long: `wayback-archiver submits web pages to the Internet Archive's Wayback Machine.

URLs come from positional arguments and from --input documents: plain lists,
PDF link annotations, HTML anchors or Markdown links. Each URL is checked
for safety, resolved through redirects and looked up in the snapshot index;
only URLs without a capture inside the freshness window are submitted.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		urls, err := CollectURLs(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("no URLs given: pass URLs as arguments or use --input")
		}

		summary, err := RunArchive(cmd.Context(), cfg, urls, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if summary.ExitCode() != 0 {
			return ErrURLsFailed
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if longVersion {
			fmt.Fprintln(cmd.OutOrStdout(), build.Details())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), build.FullVersion())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrURLsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (JSON, YAML or TOML)")
	rootCmd.Flags().StringArrayVarP(&inputs, "input", "i", []string{}, "document to read URLs from, - for stdin (can be repeated)")
	rootCmd.Flags().StringVar(&inputFormat, "format", "auto", "input format: auto, list, pdf, html or markdown")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "URL that relative HTML and Markdown links resolve against")
	rootCmd.Flags().StringArrayVar(&excludePatterns, "exclude", []string{}, "regular expression of URLs to skip (can be repeated)")
	rootCmd.Flags().StringVar(&archiveEndpoint, "archive-endpoint", "", "prefix the URL is appended to for submission")
	rootCmd.Flags().StringVar(&checkEndpoint, "check-endpoint", "", "prefix the URL is appended to for the snapshot lookup")
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", unset, "retries after the first attempt of every request")
	rootCmd.Flags().IntVar(&thresholdDays, "threshold-days", unset, "skip URLs archived within this many days")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of URLs processed at once")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "timeout for a single HTTP request")
	rootCmd.Flags().IntVar(&requestsPerMinute, "requests-per-minute", unset, "per-host request budget, 0 for unlimited")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	rootCmd.Flags().StringVar(&reportFile, "report", "", "write a JSON Lines report with one record per URL")

	versionCmd.Flags().BoolVar(&longVersion, "long", false, "include the build time")
	rootCmd.AddCommand(versionCmd)
}

// InitConfigWithError loads .env, the config file and WAYBACK_ environment
// variables, then applies CLI flag overrides.
func InitConfigWithError() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("error initializing config: %w", err)
	}

	configBuilder := &cfg

	if archiveEndpoint != "" {
		configBuilder = configBuilder.WithArchiveEndpoint(archiveEndpoint)
	}

	if checkEndpoint != "" {
		configBuilder = configBuilder.WithCheckEndpoint(checkEndpoint)
	}

	if maxRetries != unset {
		configBuilder = configBuilder.WithMaxRequestRetries(maxRetries)
	}

	if thresholdDays != unset {
		configBuilder = configBuilder.WithArchiveThresholdDays(thresholdDays)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if concurrency > 0 {
		configBuilder = configBuilder.WithConcurrency(concurrency)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if requestsPerMinute != unset {
		configBuilder = configBuilder.WithRequestsPerMinute(requestsPerMinute)
	}

	if len(excludePatterns) > 0 {
		configBuilder = configBuilder.WithExcludePatterns(append(configBuilder.ExcludePatterns(), excludePatterns...))
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if metricsFile != "" {
		configBuilder = configBuilder.WithMetricsFile(metricsFile)
	}

	if reportFile != "" {
		configBuilder = configBuilder.WithReportFile(reportFile)
	}

	return configBuilder.Build()
}

// CollectURLs returns the positional URLs followed by the URLs extracted
// from every --input document, in the order given.
func CollectURLs(args []string, stdin io.Reader) ([]string, error) {
	format, err := source.ParseFormat(inputFormat)
	if err != nil {
		return nil, err
	}

	loader := source.NewLoader(fileSystem, stdin)
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil || !base.IsAbs() {
			return nil, fmt.Errorf("invalid --base-url %q", baseURL)
		}
		loader = loader.WithBaseURL(base)
	}

	urls := append([]string{}, args...)
	extracted, err := loader.LoadAll(inputs, format)
	if err != nil {
		return nil, err
	}
	return append(urls, extracted...), nil
}

// RunArchive runs one batch over urls, writes a line per URL and a summary
// to out, and exports the report and metrics when configured.
func RunArchive(ctx context.Context, cfg config.Config, urls []string, out io.Writer) (batch.Summary, error) {
	logger, err := logging.New(cfg.LogLevel(), cfg.LogDevelopment())
	if err != nil {
		return batch.Summary{}, err
	}
	defer func() { _ = logger.Sync() }()

	clientConfig, err := cfg.ClientConfig()
	if err != nil {
		return batch.Summary{}, err
	}
	patterns, err := batch.CompileExcludePatterns(cfg.ExcludePatterns())
	if err != nil {
		return batch.Summary{}, err
	}

	collectors := metrics.New()
	runID := batch.NewRunID()
	recorder := metadata.NewRecorder(logger, collectors, runID)

	runner := batch.NewRunner(archiverFactory(clientConfig, recorder), recorder, recorder).
		WithConcurrency(cfg.Concurrency()).
		WithExcludePatterns(patterns).
		WithRunID(runID)

	summary, runErr := runner.Run(ctx, urls)
	printSummary(out, summary)

	if cfg.ReportFile() != "" {
		reportSink := storage.NewLocalSink(fileSystem, recorder)
		if result, err := reportSink.Write(cfg.ReportFile(), storage.NewRecords(summary)); err == nil {
			fmt.Fprintf(out, "Report: %s (%d records)\n", result.Path(), result.Records())
		}
	}

	if cfg.MetricsFile() != "" {
		if err := collectors.WriteTextfile(cfg.MetricsFile()); err != nil {
			logger.Warn("metrics export failed", zap.String("path", cfg.MetricsFile()), zap.Error(err))
		}
	}
	return summary, runErr
}

func printSummary(out io.Writer, summary batch.Summary) {
	for _, item := range summary.Items {
		switch item.Outcome {
		case metadata.OutcomeArchived:
			fmt.Fprintf(out, "Archived: %s – %s\n", item.Input, item.Detail())
		case metadata.OutcomeSkipped:
			fmt.Fprintf(out, "Skipped: %s (%s)\n", item.Input, item.Detail())
		default:
			fmt.Fprintf(out, "Failed: %s: %s\n", item.Input, item.Detail())
		}
	}
	fmt.Fprintf(out, "Total: %d, archived: %d, skipped: %d, failed: %d\n",
		summary.Total(), summary.Archived, summary.Skipped, summary.Failed)
}

// RootCommand exposes the root command for embedding and tests.
func RootCommand() *cobra.Command {
	return rootCmd
}

func ResetFlags() {
	cfgFile = ""
	inputs = []string{}
	inputFormat = "auto"
	baseURL = ""
	excludePatterns = []string{}
	archiveEndpoint = ""
	checkEndpoint = ""
	maxRetries = unset
	thresholdDays = unset
	userAgent = ""
	concurrency = 0
	timeout = 0
	requestsPerMinute = unset
	logLevel = ""
	metricsFile = ""
	reportFile = ""
	longVersion = false
	fileSystem = afero.NewOsFs()
	archiverFactory = func(cfg wayback.ClientConfig, sink metadata.MetadataSink) batch.Archiver {
		return wayback.NewClient(cfg, sink)
	}
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetInputsForTest(paths []string) {
	inputs = paths
}

func SetInputFormatForTest(format string) {
	inputFormat = format
}

func SetBaseURLForTest(u string) {
	baseURL = u
}

func SetExcludePatternsForTest(patterns []string) {
	excludePatterns = patterns
}

func SetArchiveEndpointForTest(endpoint string) {
	archiveEndpoint = endpoint
}

func SetCheckEndpointForTest(endpoint string) {
	checkEndpoint = endpoint
}

func SetMaxRetriesForTest(retries int) {
	maxRetries = retries
}

func SetThresholdDaysForTest(days int) {
	thresholdDays = days
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetRequestsPerMinuteForTest(rpm int) {
	requestsPerMinute = rpm
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetMetricsFileForTest(path string) {
	metricsFile = path
}

func SetReportFileForTest(path string) {
	reportFile = path
}

func SetFsForTest(fs afero.Fs) {
	fileSystem = fs
}

func SetArchiverFactoryForTest(factory func(wayback.ClientConfig, metadata.MetadataSink) batch.Archiver) {
	archiverFactory = factory
}
