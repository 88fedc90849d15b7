package worker

import (
	"context"
	"encoding/json"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"sjsage522/listingwatch/helpers"
	"sjsage522/listingwatch/internal"
	"sjsage522/listingwatch/internal/crawler"
	"sjsage522/listingwatch/internal/dedupe"
	"sjsage522/listingwatch/logger"
	"sjsage522/listingwatch/services/mailer"
	"sjsage522/listingwatch/services/publisher"
	"sjsage522/listingwatch/services/report"
	"sjsage522/listingwatch/services/store"
)

const defaultActiveRetention = 30 * 24 * time.Hour

// Options tunes scheduling and pacing
type Options struct {
	CrawlInterval   time.Duration
	RequestDelay    time.Duration
	RequestJitter   time.Duration
	ActiveRetention time.Duration
}

// Failure is a (site, term) pair, or the delivery step, that did not complete
type Failure struct {
	SiteID string
	Term   string
	Err    error
}

// RunResult summarizes one pass over every (term, site) pair
type RunResult struct {
	RunID     string
	Pairs     int
	Found     int
	NewItems  []dedupe.Item
	Delivered bool
	Failures  []Failure
	Started   time.Time
	Finished  time.Time
}

// PublishedListing is the stream message for a newly found listing
type PublishedListing struct {
	RunID   string          `json:"run_id"`
	Hash    string          `json:"hash"`
	FoundAt time.Time       `json:"found_at"`
	Listing crawler.Listing `json:"listing"`
}

// Worker runs the search pipeline over every term and site
type Worker struct {
	ctx       context.Context
	crawlers  []crawler.Crawler
	terms     []crawler.SearchTerm
	backend   store.Backend
	reporter  *report.Reporter
	mailer    mailer.Mailer
	publisher publisher.Publisher
	logger    helpers.LoggerInterface
	opts      Options

	limiter *rate.Limiter
	rnd     *mathrand.Rand
	now     func() time.Time
	log     *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	crawlers []crawler.Crawler,
	terms []crawler.SearchTerm,
	deps internal.Dependencies,
	opts Options,
) *Worker {
	limit := rate.Inf
	if opts.RequestDelay > 0 {
		limit = rate.Every(opts.RequestDelay)
	}
	if opts.ActiveRetention <= 0 {
		opts.ActiveRetention = defaultActiveRetention
	}
	log := deps.Logger
	if log == nil {
		log = helpers.NewLogger("")
	}

	return &Worker{
		ctx:       ctx,
		crawlers:  crawlers,
		terms:     terms,
		backend:   deps.Store,
		reporter:  deps.Reporter,
		mailer:    deps.Mailer,
		publisher: deps.Publisher,
		logger:    log,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
		rnd:       mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		log:       logger.ForWorker(),
	}
}

// Start runs the pipeline once, or every CrawlInterval until the context is cancelled.
// It returns the first error that makes further runs pointless.
func (w *Worker) Start() error {
	for {
		result, err := w.RunOnce()
		if err != nil {
			if w.ctx.Err() != nil {
				return nil
			}
			return err
		}
		w.logger.LogInfo("Run %s took %s", result.RunID, result.Finished.Sub(result.Started))

		if w.opts.CrawlInterval <= 0 {
			return nil
		}
		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.opts.CrawlInterval):
		}
	}
}

// RunOnce loads state, crawls every (term, site) pair in order, reports new
// listings and saves state. Pair failures are collected in the result and never
// stop the run. The returned error is a store failure or cancellation; a
// cancelled run does not save.
func (w *Worker) RunOnce() (RunResult, error) {
	result := RunResult{RunID: uuid.NewString(), Started: w.now()}
	log := w.log.WithField("run_id", result.RunID)

	state, err := w.backend.Load(w.ctx)
	if err != nil {
		return result, err
	}

	log.Info().
		Int("terms", len(w.terms)).
		Int("sites", len(w.crawlers)).
		Int("seen", len(state.Seen)).
		Msg("Run started")

	for _, term := range w.terms {
		for _, c := range w.crawlers {
			if err := w.pace(); err != nil {
				log.Warn().Err(err).Msg("Run cancelled, state not saved")
				return result, err
			}

			pair := c.Crawl(w.ctx, term)
			result.Pairs++
			if pair.Err != nil {
				if w.ctx.Err() != nil {
					log.Warn().Err(w.ctx.Err()).Msg("Run cancelled, state not saved")
					return result, w.ctx.Err()
				}
				result.Failures = append(result.Failures, Failure{SiteID: c.GetProvider(), Term: term.Label(), Err: pair.Err})
				w.logger.LogError(c.GetName()+"/"+term.Label(), pair.Err)
				continue
			}

			result.Found += len(pair.Listings)
			items := dedupe.Dedupe(pair.Listings, state, w.now())
			result.NewItems = append(result.NewItems, items...)

			log.Debug().
				Str("site", c.GetProvider()).
				Str("term", term.Label()).
				Int("found", len(pair.Listings)).
				Int("new", len(items)).
				Msg("Pair done")
		}
	}

	w.publish(result.RunID, result.NewItems)

	now := w.now()
	if pruned := state.Prune(now.Add(-w.opts.ActiveRetention)); pruned > 0 {
		log.Debug().Int("pruned", pruned).Msg("Pruned stale active entries")
	}

	var summary []store.ActiveEntry
	day := now.Format("2006-01-02")
	if w.reporter.SummaryDue(now) && state.LastSummary != day {
		summary = state.ActiveEntries()
	}

	if doc := w.reporter.Render(dedupe.Listings(result.NewItems), summary, now); doc != nil {
		if err := w.mailer.Send(w.ctx, doc); err != nil {
			dedupe.Forget(result.NewItems, state)
			result.Failures = append(result.Failures, Failure{SiteID: "mailer", Err: err})
			w.logger.LogError("mailer", err)
		} else {
			result.Delivered = true
			if summary != nil {
				state.LastSummary = day
			}
		}
	}

	if err := w.ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("Run cancelled, state not saved")
		return result, err
	}
	if err := w.backend.Save(w.ctx, state); err != nil {
		return result, err
	}

	result.Finished = w.now()
	log.Info().
		Int("pairs", result.Pairs).
		Int("found", result.Found).
		Int("new", len(result.NewItems)).
		Int("failures", len(result.Failures)).
		Bool("delivered", result.Delivered).
		Msg("Run finished")

	return result, nil
}

// pace waits for the rate limiter and a random jitter before the next request
func (w *Worker) pace() error {
	if err := w.limiter.Wait(w.ctx); err != nil {
		return w.ctxErr(err)
	}
	if w.opts.RequestJitter <= 0 {
		return w.ctx.Err()
	}
	jitter := time.Duration(w.rnd.Int63n(int64(w.opts.RequestJitter)))
	select {
	case <-w.ctx.Done():
		return w.ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

func (w *Worker) ctxErr(err error) error {
	if ctxErr := w.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// publish sends new listings to the stream; failures are logged, never fatal
func (w *Worker) publish(runID string, items []dedupe.Item) {
	if w.publisher == nil || len(items) == 0 {
		return
	}

	foundAt := w.now()
	for _, item := range items {
		data, err := json.Marshal(PublishedListing{
			RunID:   runID,
			Hash:    item.Hash,
			FoundAt: foundAt,
			Listing: item.Listing,
		})
		if err != nil {
			w.logger.LogError("publisher", err)
			continue
		}
		if err := w.publisher.Publish(w.ctx, runID, data); err != nil {
			w.logger.LogError("publisher", err)
		}
	}

	if err := w.publisher.TrimStreams(w.ctx); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
}
