package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	newsRepo "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/repository"
	newsService "github.com/reshetovitsme/fn-news-bridge/internal/modules/news/service"
	postDomain "github.com/reshetovitsme/fn-news-bridge/internal/modules/post/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/post/publisher"
	postService "github.com/reshetovitsme/fn-news-bridge/internal/modules/post/service"
	sharedErrors "github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/metrics"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the current news payload.
type Fetcher interface {
	Fetch(ctx context.Context) (*domain.News, error)
}

// Composer renders the image attached to a post.
type Composer interface {
	Compose(ctx context.Context, imageURL string) (string, error)
}

// Options configures a Service.
type Options struct {
	Modes          []domain.Mode
	Hashtags       []string
	UpdateInterval time.Duration
	// PostsPerMinute paces publish calls; zero or less disables pacing.
	PostsPerMinute int
}

// Service runs the fetch, diff and publish cycle.
type Service struct {
	opts       Options
	fetcher    Fetcher
	repo       newsRepo.Repository
	differ     *newsService.Differ
	publishers []publisher.Publisher
	composer   Composer
	metrics    metrics.Recorder
	limiter    *rate.Limiter
	logger     *slog.Logger

	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the bridge service. composer may be nil, which attaches the
// item's remote image as is.
func New(
	opts Options,
	fetcher Fetcher,
	repo newsRepo.Repository,
	differ *newsService.Differ,
	publishers []publisher.Publisher,
	composer Composer,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.PostsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.PostsPerMinute)/60.0), 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		opts:       opts,
		fetcher:    fetcher,
		repo:       repo,
		differ:     differ,
		publishers: publishers,
		composer:   composer,
		metrics:    recorder,
		limiter:    limiter,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Report summarizes one cycle.
type Report struct {
	RunID string
	Modes map[domain.Mode]ModeReport
}

// ModeReport summarizes one mode of a cycle.
type ModeReport struct {
	Seeded    bool
	New       int
	Published int
	Failed    int
	Saved     bool
}

// RunOnce performs a single cycle. A failed fetch aborts the cycle before
// any snapshot is touched and is returned; everything after that is logged
// and reflected in the report.
func (s *Service) RunOnce(ctx context.Context) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	report := &Report{
		RunID: uuid.NewString(),
		Modes: make(map[domain.Mode]ModeReport, len(s.opts.Modes)),
	}
	logger := s.logger.With("run_id", report.RunID)

	news, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.RecordFetchFailure(fetchFailureReason(err))
		return report, oops.In("bridge").With("run_id", report.RunID).Wrapf(err, "retrieve news feed")
	}
	s.metrics.RecordFetchSuccess()
	logger.Info("Retrieved the current news feed")

	for _, mode := range s.opts.Modes {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		items, err := news.Items(mode)
		if err != nil {
			logger.Error("News feed has no items for mode", "mode", mode, "error", err)
			continue
		}

		report.Modes[mode] = s.processMode(ctx, logger.With("mode", mode), mode, items)
	}

	return report, nil
}

func (s *Service) processMode(ctx context.Context, logger *slog.Logger, mode domain.Mode, current []domain.Item) ModeReport {
	var mr ModeReport

	previous, err := s.repo.Read(mode)
	if err != nil {
		if !errors.Is(err, sharedErrors.ErrSnapshotNotFound) {
			logger.Error("Failed to read snapshot, treating as first run", "error", err)
		}
		if err := s.repo.Write(mode, current); err != nil {
			logger.Error("Failed to create snapshot", "error", err)
			return mr
		}
		s.metrics.RecordSnapshotWrite(mode.String())
		logger.Info("Created snapshot", "items", len(current))
		mr.Seeded = true
		mr.Saved = true
		return mr
	}

	qualifying := s.differ.Diff(mode, previous, current)
	mr.New = len(qualifying)
	if mr.New == 0 {
		logger.Debug("No new news items")
		return mr
	}
	s.metrics.RecordNewItems(mode.String(), mr.New)

	batch := newBatch(s.publishers)
	attempted := 0
	for _, item := range qualifying {
		if ctx.Err() != nil {
			break
		}
		published, failed := s.publishItem(ctx, logger, batch, item)
		mr.Published += published
		mr.Failed += failed
		attempted++
	}

	snapshot := current
	if attempted < len(qualifying) {
		// Items never attempted stay out of the snapshot so the next run
		// still sees them as new; attempted ones are never retried.
		pending := lo.SliceToMap(qualifying[attempted:], func(item domain.Item) (string, bool) {
			return item.ID, true
		})
		snapshot = lo.Reject(current, func(item domain.Item, _ int) bool {
			return item.Identifiable() && pending[item.ID]
		})
		logger.Warn("Cycle interrupted, unattempted items kept for the next run", "pending", len(pending))
	}

	if err := s.repo.Write(mode, snapshot); err != nil {
		logger.Error("Failed to save snapshot", "error", err)
		return mr
	}
	s.metrics.RecordSnapshotWrite(mode.String())
	logger.Info("Saved snapshot", "items", len(snapshot), "new", mr.New)
	mr.Saved = true

	return mr
}

func (s *Service) publishItem(ctx context.Context, logger *slog.Logger, b *batch, item domain.Item) (published, failed int) {
	logger = logger.With("item_id", item.ID, "title", item.Title)
	logger.Info("New news item", "body", postService.FormatBody(item, s.opts.Hashtags))

	active := b.active()
	if len(active) == 0 {
		return 0, 0
	}

	image := s.image(ctx, logger, item)

	for _, p := range active {
		if !b.authenticate(ctx, logger, p) {
			failed++
			s.metrics.RecordPostFailed(p.Name())
			continue
		}

		post := postDomain.Post{
			ItemID: item.ID,
			Body:   postService.FormatPost(item, s.opts.Hashtags, p.Limit()),
			Image:  image,
		}

		if err := s.limiter.Wait(ctx); err != nil {
			logger.Warn("Publishing interrupted", "publisher", p.Name(), "error", err)
			failed++
			continue
		}

		if err := p.Publish(ctx, post); err != nil {
			logger.Error("Failed to publish news item", "publisher", p.Name(), "error", err)
			s.metrics.RecordPostFailed(p.Name())
			failed++
			continue
		}

		logger.Info("Published news item", "publisher", p.Name())
		s.metrics.RecordPostPublished(p.Name())
		published++
	}

	return published, failed
}

func (s *Service) image(ctx context.Context, logger *slog.Logger, item domain.Item) postDomain.Image {
	if item.Image == "" {
		return postDomain.Image{}
	}
	img := postDomain.Image{URL: item.Image}
	if s.composer == nil {
		return img
	}

	path, err := s.composer.Compose(ctx, item.Image)
	if err != nil {
		logger.Error("Failed to compose image, attaching original", "url", item.Image, "error", err)
		s.metrics.RecordImageFailure()
		return img
	}
	img.Path = path
	return img
}

// Start runs a cycle now and then every UpdateInterval until Stop.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop cancels the loop and waits for the running cycle to return.
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) loop(parent context.Context) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	interval := s.opts.UpdateInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Service) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Bridge cycle failed", "error", err)
	}
}

func fetchFailureReason(err error) string {
	switch {
	case errors.Is(err, sharedErrors.ErrUnexpectedStatus):
		return "status"
	case errors.Is(err, sharedErrors.ErrUnexpectedContentType):
		return "content_type"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}

// batch tracks per-publisher authentication for one mode's items.
type batch struct {
	publishers []publisher.Publisher
	authed     map[string]bool
	disabled   map[string]bool
}

func newBatch(publishers []publisher.Publisher) *batch {
	return &batch{
		publishers: publishers,
		authed:     make(map[string]bool),
		disabled:   make(map[string]bool),
	}
}

func (b *batch) active() []publisher.Publisher {
	active := make([]publisher.Publisher, 0, len(b.publishers))
	for _, p := range b.publishers {
		if !b.disabled[p.Name()] {
			active = append(active, p)
		}
	}
	return active
}

func (b *batch) authenticate(ctx context.Context, logger *slog.Logger, p publisher.Publisher) bool {
	if b.authed[p.Name()] {
		return true
	}
	if err := p.Authenticate(ctx); err != nil {
		logger.Error("Failed to authenticate, skipping publisher for this batch", "publisher", p.Name(), "error", err)
		b.disabled[p.Name()] = true
		return false
	}
	b.authed[p.Name()] = true
	return true
}

type nopRecorder struct{}

func (nopRecorder) RecordFetchSuccess()        {}
func (nopRecorder) RecordFetchFailure(string)  {}
func (nopRecorder) RecordNewItems(string, int) {}
func (nopRecorder) RecordPostPublished(string) {}
func (nopRecorder) RecordPostFailed(string)    {}
func (nopRecorder) RecordSnapshotWrite(string) {}
func (nopRecorder) RecordImageFailure()        {}
