package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rohmanhakim/robots-policy/internal/build"
	"github.com/rohmanhakim/robots-policy/internal/config"
	"github.com/rohmanhakim/robots-policy/internal/metadata"
	"github.com/rohmanhakim/robots-policy/internal/robots"
	"github.com/rohmanhakim/robots-policy/internal/robots/cache"
	"github.com/rohmanhakim/robots-policy/pkg/limiter"
	"github.com/rohmanhakim/robots-policy/pkg/retry"
	"github.com/rohmanhakim/robots-policy/pkg/robotstxt"
	"github.com/rohmanhakim/robots-policy/pkg/timeutil"
)

var (
	cfgFile       string
	userAgent     string
	httpUserAgent string
	timeout       time.Duration
	baseDelay     time.Duration
	jitter        time.Duration
	randomSeed    int64
	maxAttempt    int
	cacheCapacity int
	cacheTTL      time.Duration
	metadataLog   string

	robotsFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "robots-policy",
	Short: "Answer robots.txt allow/disallow questions.",
	Long: `robots-policy evaluates Robots Exclusion Protocol policies the way
Google's crawler does: lenient parsing, '*' and '$' wildcards, and
longest-match arbitration where allow wins ties.

Verdicts come either from a local robots.txt file or live from the
target hosts, with per-host caching, retries and politeness delays.`,
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] <url>...",
	Short: "Report whether each URL may be fetched by the configured agent.",
	Long: `check prints one ALLOWED/DISALLOWED line per URL. The URLs must be
%-encoded according to RFC 3986.

With --robots-file the policy is read once from disk and applied to
every URL. Without it, each URL's host is asked for its robots.txt
over HTTP.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}
		sink, closeSink := newSink(cfg)
		defer closeSink()

		start := time.Now()
		var allowed, disallowed, failed int
		if robotsFile != "" {
			allowed, disallowed, err = checkAgainstFile(cmd.OutOrStdout(), cfg, robotsFile, args)
		} else {
			allowed, disallowed, failed, err = checkAgainstHosts(cmd.Context(), cmd.OutOrStdout(), cfg, sink, args)
		}
		if err != nil {
			return err
		}

		if finalizer, ok := sink.(metadata.RunFinalizer); ok {
			finalizer.RecordFinalRunStats(len(args), allowed, disallowed, failed, time.Since(start))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, len(args))
		}
		return nil
	},
}

var validateAgentCmd = &cobra.Command{
	Use:   "validate-agent <name>...",
	Short: "Check that user-agent tokens are valid to obey robots.txt with.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invalid := 0
		for _, name := range args {
			if robotstxt.IsValidUserAgentToObey(name) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", name)
			} else {
				invalid++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid (only [A-Za-z_-] is allowed)\n", name)
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d invalid user-agent token(s)", invalid)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the robots-policy version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "robots-policy %s\n", build.FullVersion())
	},
}

// checkAgainstFile evaluates every URL against one local robots.txt body.
func checkAgainstFile(out io.Writer, cfg config.Config, path string, urls []string) (allowed, disallowed int, err error) {
	body, readErr := os.ReadFile(path)
	if readErr != nil {
		return 0, 0, fmt.Errorf("failed to read robots file %q: %w", path, readErr)
	}

	allowed, disallowed = checkAgainstBody(out, cfg.UserAgent(), string(body), urls)
	if len(body) == 0 {
		fmt.Fprintln(out, "notice: robots file is empty so all user-agents are allowed")
	}
	return allowed, disallowed, nil
}

// checkAgainstBody prints a verdict line per URL and returns the tallies.
func checkAgainstBody(out io.Writer, agent, body string, urls []string) (allowedCount, disallowedCount int) {
	for _, target := range urls {
		verdict := "DISALLOWED"
		if robotstxt.IsUserAgentAllowed(body, agent, target) {
			verdict = "ALLOWED"
			allowedCount++
		} else {
			disallowedCount++
		}
		fmt.Fprintf(out, "user-agent '%s' with URI '%s': %s\n", agent, target, verdict)
	}
	return allowedCount, disallowedCount
}

// checkAgainstHosts resolves each URL's policy over HTTP and prints a
// verdict line per URL. Hosts are asked once thanks to the policy cache,
// and the politeness delay is respected between live fetches.
func checkAgainstHosts(ctx context.Context, out io.Writer, cfg config.Config, sink metadata.MetadataSink, urls []string) (allowed, disallowed, failed int, err error) {
	rateLimiter := limiter.NewConcurrentRateLimiter()
	rateLimiter.SetBaseDelay(cfg.BaseDelay())
	rateLimiter.SetJitter(cfg.Jitter())
	rateLimiter.SetRandomSeed(cfg.RandomSeed())

	fetcher := robots.NewFetcherWithClient(
		sink,
		cfg.HTTPUserAgent(),
		newHTTPClient(cfg),
		cache.NewMemoryCache(cfg.CacheCapacity(), cfg.CacheTTL()),
	)
	robot := robots.NewRobot(fetcher, rateLimiter, sink, cfg.UserAgent(), retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration()),
	))

	for _, target := range urls {
		parsed, parseErr := url.Parse(target)
		if parseErr != nil || parsed.Hostname() == "" {
			failed++
			fmt.Fprintf(out, "user-agent '%s' with URI '%s': ERROR (not a valid absolute URL)\n", cfg.UserAgent(), target)
			continue
		}

		time.Sleep(rateLimiter.ResolveDelay(parsed.Hostname()))

		decision, decideErr := robot.Decide(ctx, *parsed)
		if decideErr != nil {
			failed++
			fmt.Fprintf(out, "user-agent '%s' with URI '%s': ERROR (%v)\n", cfg.UserAgent(), target, decideErr)
			continue
		}
		verdict := "DISALLOWED"
		if decision.Allowed {
			verdict = "ALLOWED"
			allowed++
		} else {
			disallowed++
		}
		fmt.Fprintf(out, "user-agent '%s' with URI '%s': %s (%s)\n", cfg.UserAgent(), target, verdict, decision.Reason)
	}
	return allowed, disallowed, failed, nil
}

func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Timeout()}
}

// newSink builds the metadata sink from config: a JSONL recorder behind a
// rotating file writer when a log path is set, a no-op otherwise.
func newSink(cfg config.Config) (metadata.MetadataSink, func()) {
	if cfg.MetadataLogPath() == "" {
		return &metadata.NoopSink{}, func() {}
	}
	writer := &lumberjack.Logger{
		Filename:   cfg.MetadataLogPath(),
		MaxSize:    cfg.LogMaxSizeMB(),
		MaxBackups: cfg.LogMaxBackups(),
		MaxAge:     cfg.LogMaxAgeDays(),
		LocalTime:  true,
	}
	return metadata.NewRecorder(writer), func() { writer.Close() }
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (.json or .toml)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "agent token matched against robots.txt groups")
	rootCmd.PersistentFlags().StringVar(&httpUserAgent, "http-user-agent", "", "User-Agent header for robots.txt requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for a single robots.txt request")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 0, "base delay between requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to delays")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "maximum robots.txt fetch attempts per host")
	rootCmd.PersistentFlags().IntVar(&cacheCapacity, "cache-capacity", 0, "maximum number of cached per-host policies")
	rootCmd.PersistentFlags().DurationVar(&cacheTTL, "cache-ttl", 0, "how long cached policies stay fresh")
	rootCmd.PersistentFlags().StringVar(&metadataLog, "metadata-log", "", "path of the JSONL metadata log (rotated; empty disables)")

	checkCmd.Flags().StringVar(&robotsFile, "robots-file", "", "evaluate against a local robots.txt instead of live hosts")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateAgentCmd)
	rootCmd.AddCommand(versionCmd)
}

// InitConfig reads the config file and flag overrides, exiting on error.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads the config file and flag overrides, returning
// any errors. This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	builder := config.WithDefault()

	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		builder = &cfg
	}

	// CLI flags override file values where provided
	if userAgent != "" {
		builder = builder.WithUserAgent(userAgent)
	}
	if httpUserAgent != "" {
		builder = builder.WithHTTPUserAgent(httpUserAgent)
	}
	if timeout > 0 {
		builder = builder.WithTimeout(timeout)
	}
	if baseDelay > 0 {
		builder = builder.WithBaseDelay(baseDelay)
	}
	if jitter > 0 {
		builder = builder.WithJitter(jitter)
	}
	if randomSeed != 0 {
		builder = builder.WithRandomSeed(randomSeed)
	}
	if maxAttempt > 0 {
		builder = builder.WithMaxAttempt(maxAttempt)
	}
	if cacheCapacity > 0 {
		builder = builder.WithCacheCapacity(cacheCapacity)
	}
	if cacheTTL > 0 {
		builder = builder.WithCacheTTL(cacheTTL)
	}
	if metadataLog != "" {
		builder = builder.WithMetadataLogPath(metadataLog)
	}

	return builder.Build()
}

// ResetFlags restores all flag variables to their zero values. Only used
// by tests, which share the package-level flag state.
func ResetFlags() {
	cfgFile = ""
	userAgent = ""
	httpUserAgent = ""
	timeout = 0
	baseDelay = 0
	jitter = 0
	randomSeed = 0
	maxAttempt = 0
	cacheCapacity = 0
	cacheTTL = 0
	metadataLog = ""
	robotsFile = ""
}
