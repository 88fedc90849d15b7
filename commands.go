package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/listingwatch/config"
	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/internal"
	"sjsage522/listingwatch/internal/crawler"
	"sjsage522/listingwatch/logger"
	apperrors "sjsage522/listingwatch/pkg/errors"
	"sjsage522/listingwatch/services/cache"
	"sjsage522/listingwatch/services/mailer"
	"sjsage522/listingwatch/services/publisher"
	"sjsage522/listingwatch/services/report"
	"sjsage522/listingwatch/services/store"
	"sjsage522/listingwatch/services/worker"
)

// errNothingNew signals the nonzero-when-empty exit policy
var errNothingNew = errors.New("no new listings")

var rootCmd = &cobra.Command{
	Use:           "listingwatch",
	Short:         "listingwatch polls ticket and auction sites and emails new matching listings.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runE,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search every configured site for every term and report new listings (default).",
	RunE:  runE,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the listings currently recorded as active.",
	RunE:  statusE,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the environment and the search document.",
	RunE:  checkE,
}

func init() {
	rootCmd.AddCommand(runCmd, statusCmd, checkCmd)
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNothingNew):
		logger.Info("No new listings found")
		return 1
	default:
		logger.Default.WithError(err).Error().Msg(failureMessage(err))
		return 1
	}
}

// failureMessage names the error kind for failures that stop the process at startup
func failureMessage(err error) string {
	var ce *apperrors.CrawlerError
	if errors.As(err, &ce) && ce.IsFatal() {
		return fmt.Sprintf("listingwatch cannot start: %s error", ce.Type)
	}
	return "listingwatch failed"
}

func runE(cmd *cobra.Command, args []string) error {
	log := logger.Default

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	searchCfg, err := config.LoadSearchConfig(cfg.SearchConfigPath)
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("store", cfg.StoreBackend).
		Dur("crawl_interval", cfg.CrawlInterval).
		Msg("Starting application")

	// Set up context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services, err := initializeServices(ctx, cfg, searchCfg)
	if err != nil {
		return err
	}
	defer services.Cleanup()

	w, err := newWorker(ctx, cfg, searchCfg, services)
	if err != nil {
		return err
	}

	if cfg.CrawlInterval > 0 {
		log.Info().Msg("Starting listing worker")
		return w.Start()
	}

	result, err := w.RunOnce()
	if err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("Shutting down gracefully...")
			return nil
		}
		return err
	}
	if cfg.ExitPolicy == config.ExitNonzeroWhenEmpty && len(result.NewItems) == 0 {
		return errNothingNew
	}
	return nil
}

func statusE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := store.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	state, err := backend.Load(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Site", "Title", "Status", "Date", "Last seen", "URL"})
	for _, entry := range state.ActiveEntries() {
		l := entry.Listing
		t.AppendRow(table.Row{l.Site, helpers.Truncate(l.Title, 60), l.Status, l.Date, entry.LastSeen.Format("2006-01-02 15:04"), l.URL})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d active, %d seen", len(state.Active), len(state.Seen))})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func checkE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	searchCfg, err := config.LoadSearchConfig(cfg.SearchConfigPath)
	if err != nil {
		return err
	}
	profiles, order, err := crawler.BuildProfiles(searchCfg)
	if err != nil {
		return err
	}
	terms := crawler.BuildTerms(searchCfg)

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Site", "Name", "Region", "Fetcher", "Enabled"})
	for _, id := range order {
		p := profiles[id]
		fetcher := p.Fetcher
		if fetcher == "" {
			fetcher = "http"
		}
		t.AppendRow(table.Row{p.ID, p.Name, p.Region, fetcher, p.Enabled})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintf(cmd.OutOrStdout(), "%d search terms, mail configured: %t, store: %s\n", len(terms), cfg.MailConfigured(), cfg.StoreBackend)
	return nil
}

// loadConfig loads and validates the environment configuration
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	helpers.SetTimeout(cfg.FetchTimeout)
	return cfg, nil
}

// Services holds all the initialized services
type Services struct {
	internal.Dependencies
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config, searchCfg *config.SearchConfig) (*Services, error) {
	services := &Services{}

	services.Cache = cache.New(cfg.MemcacheAddr)
	if cfg.MemcacheAddr != "" {
		logger.Info("Using Memcache at %s for rate-limit state", cfg.MemcacheAddr)
	}

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	services.Store = backend

	if cfg.PublishEnabled {
		services.Publisher = publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		logger.Info("Publishing to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	services.Reporter = report.New(searchCfg.Families, searchCfg.Options.TitleLimit, cfg.SummaryWeekday)
	services.Mailer = mailer.New(cfg)
	services.Logger = helpers.NewLogger(cfg.ErrorLogFile)

	return services, nil
}

// newWorker builds crawlers and terms from the search document
func newWorker(ctx context.Context, cfg *config.Config, searchCfg *config.SearchConfig, services *Services) (*worker.Worker, error) {
	profiles, order, err := crawler.BuildProfiles(searchCfg)
	if err != nil {
		return nil, err
	}

	crawlers := crawler.CreateCrawlers(profiles, order, services.Cache, cfg.ChromeAddr)
	if len(crawlers) == 0 {
		return nil, fmt.Errorf("no crawlers were created")
	}
	terms := crawler.BuildTerms(searchCfg)

	logger.Default.Info().
		Int("crawler_count", len(crawlers)).
		Int("term_count", len(terms)).
		Msg("Created crawlers")

	return worker.NewWorker(ctx, crawlers, terms, services.Dependencies, worker.Options{
		CrawlInterval: cfg.CrawlInterval,
		RequestDelay:  cfg.RequestDelay,
		RequestJitter: cfg.RequestJitter,
	}), nil
}
