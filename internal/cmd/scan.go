package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openrdap/rdap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/handlescan/handlescan/internal/config"
	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
	"github.com/handlescan/handlescan/internal/core/platform"
	"github.com/handlescan/handlescan/internal/core/store"
	"github.com/handlescan/handlescan/internal/observability"
	"github.com/handlescan/handlescan/internal/output"
)

var scanCmd = &cobra.Command{
	Use:   "scan [queries...]",
	Short: "Check username and email availability",
	Long: `Check usernames and email addresses against platform signup-validation
endpoints. Queries are classified automatically: anything with an @ is
treated as an email, everything else as a username.`,
	Args: cobra.ArbitraryArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceP("platforms", "p", []string{"all"}, "Platforms or set names to check")
	scanCmd.Flags().StringP("input", "i", "", "Read queries from file, one per line (- for stdin)")
	scanCmd.Flags().String("view-by", "", "Group results by: query, platform")
	scanCmd.Flags().BoolP("available-only", "a", false, "Only show available results")
	scanCmd.Flags().BoolP("cache-tokens", "c", false, "Acquire platform sessions up front")
	scanCmd.Flags().String("proxy-list", "", "File with proxy URLs, one per line")
	scanCmd.Flags().Bool("persist-sessions", false, "Keep platform sessions in the local store across runs")
	scanCmd.Flags().Bool("verify-domains", false, "Verify email domains over RDAP before platform checks")
	scanCmd.Flags().StringP("output", "o", "table", "Output format: table, json, markdown")
	scanCmd.Flags().Duration("timeout", 0, "Per-request timeout override")
	scanCmd.Flags().Float64("rate", 0, "Outbound request rate limit in requests per second (0 = unlimited)")
	scanCmd.Flags().Bool("show-links", false, "Include profile links for username results")
}

func runScan(cmd *cobra.Command, args []string) error {
	inputFile, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	queries, err := resolveQueries(args, inputFile)
	if err != nil {
		return err
	}

	platformArgs, err := cmd.Flags().GetStringSlice("platforms")
	if err != nil {
		return err
	}
	viewBy, err := cmd.Flags().GetString("view-by")
	if err != nil {
		return err
	}
	availableOnly, err := cmd.Flags().GetBool("available-only")
	if err != nil {
		return err
	}
	cacheTokens, err := cmd.Flags().GetBool("cache-tokens")
	if err != nil {
		return err
	}
	proxyList, err := cmd.Flags().GetString("proxy-list")
	if err != nil {
		return err
	}
	persistSessions, err := cmd.Flags().GetBool("persist-sessions")
	if err != nil {
		return err
	}
	verifyDomains, err := cmd.Flags().GetBool("verify-domains")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	timeoutFlag, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	rateFlag, err := cmd.Flags().GetFloat64("rate")
	if err != nil {
		return err
	}
	showLinks, err := cmd.Flags().GetBool("show-links")
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	// Flags override the merged config when explicitly set.
	if cmd.Flags().Changed("timeout") {
		cfg.Engine.Timeout = timeoutFlag
	}
	if cmd.Flags().Changed("rate") {
		cfg.Engine.Rate = rateFlag
	}
	if cmd.Flags().Changed("persist-sessions") {
		cfg.Sessions.Persist = persistSessions
	}
	if cmd.Flags().Changed("verify-domains") {
		cfg.Domains.Verify = verifyDomains
	}
	if viewBy == "" {
		viewBy = cfg.Engine.Order
	}

	order, err := engine.ParseOrderMode(viewBy)
	if err != nil {
		return err
	}

	var userSets []core.Set
	if cfg.Sets != "" {
		userSets, err = core.LoadSetsFile(cfg.Sets)
		if err != nil {
			return err
		}
	}
	platformNames, err := core.ExpandPlatformNames(platformArgs, userSets)
	if err != nil {
		return err
	}

	proxies := cfg.Proxies
	if proxyList != "" {
		fromFile, err := readLineItems(proxyList)
		if err != nil {
			return fmt.Errorf("failed to read proxy list: %w", err)
		}
		proxies = append(proxies, fromFile...)
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	dispatcher, sessions, st, err := buildDispatcher(ctx, cfg, proxies, order)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() // nolint:errcheck // best-effort cleanup
	}

	if cacheTokens {
		warmErrs, err := dispatcher.WarmSessions(ctx, platformNames)
		if err != nil {
			return err
		}
		for name, warmErr := range warmErrs {
			if warmErr != nil {
				observability.CLILogger.Warn("Session prewarm failed",
					zap.String("platform", name),
					zap.Error(warmErr),
				)
			}
		}
	}

	var tracker *output.ScanProgress
	if format == output.FormatTable && output.IsTerminal(os.Stdout) {
		tracker = output.StartScanProgress(os.Stderr, int64(len(queries)*len(platformNames)))
		dispatcher.OnResult = func(*core.CheckResult) { tracker.Increment() }
	}

	results, err := dispatcher.Run(ctx, queries, platformNames)
	if tracker != nil {
		tracker.Stop()
	}
	if err != nil {
		return err
	}

	if st != nil {
		if err := sessions.SyncPersisted(ctx); err != nil {
			observability.CLILogger.Warn("Failed to persist sessions", zap.Error(err))
		}
	}

	report := output.BuildReport(results, time.Since(startedAt), availableOnly)
	formatter := output.NewFormatter(format, showLinks)
	rendered, err := formatter.FormatReport(report)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(report.Total, startedAt)
	}
	return nil
}

// buildDispatcher assembles the shared transport, session cache, adapter
// registry, and optional domain verifier from the merged config. The returned
// store is non-nil only when session persistence is on; the caller owns
// closing it.
func buildDispatcher(ctx context.Context, cfg *config.Config, proxies []string, order engine.OrderMode) (*engine.Dispatcher, *engine.SessionCache, *store.Store, error) {
	rotator, err := engine.NewProxyRotator(proxies)
	if err != nil {
		return nil, nil, nil, err
	}

	var throttle *engine.Throttle
	if cfg.Engine.Rate > 0 {
		throttle = engine.NewThrottle(cfg.Engine.Rate, cfg.Engine.Burst)
	}

	client := engine.NewHTTPClient(engine.ClientConfig{
		Timeout:         cfg.Engine.Timeout,
		MaxConnsPerHost: cfg.Engine.MaxConnsPerHost,
		MaxIdleConns:    cfg.Engine.MaxIdleConns,
		Rotator:         rotator,
		Throttle:        throttle,
	})

	var st *store.Store
	var sessionStore engine.SessionStore
	if cfg.Sessions.Persist {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		sessionStore = st
	}

	sessions := engine.NewSessionCache(sessionStore, cfg.Sessions.TTL)
	if sessionStore != nil {
		loaded, err := sessions.LoadPersisted(ctx)
		if err != nil {
			observability.CLILogger.Warn("Failed to load persisted sessions", zap.Error(err))
		} else if loaded > 0 {
			observability.CLILogger.Debug("Reusing persisted sessions", zap.Int("count", loaded))
		}
	}

	env := platform.Env{
		Client:      client,
		Sessions:    sessions,
		UserAgent:   cfg.Engine.UserAgent,
		ToolVersion: versionInfo.Version,
	}

	var verifier *engine.DomainVerifier
	if cfg.Domains.Verify {
		verifier = &engine.DomainVerifier{
			Client:  &rdap.Client{HTTP: client},
			Servers: cfg.Domains.Servers,
			Timeout: cfg.Domains.Timeout,
		}
	}

	dispatcher := &engine.Dispatcher{
		Checkers:    platform.Checkers(env),
		Verifier:    verifier,
		Order:       order,
		ToolVersion: versionInfo.Version,
	}
	return dispatcher, sessions, st, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func logThroughput(count int, startedAt time.Time) {
	if count <= 0 {
		return
	}
	elapsed := time.Since(startedAt)
	if elapsed <= 0 {
		return
	}
	rate := float64(count) / elapsed.Seconds()
	observability.CLILogger.Info(
		"Scan throughput",
		zap.Int("checks", count),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rate_per_sec", rate),
	)
}
