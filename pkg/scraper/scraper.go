package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imgscrape/internal/downloader"
	"imgscrape/pkg/config"
	"imgscrape/pkg/duckduckgo"
	"imgscrape/pkg/logger"
	"imgscrape/pkg/models"
	"imgscrape/pkg/storage"
)

// State is a step of a scrape run
type State string

const (
	StateIdle          State = "idle"
	StateTokenFetching State = "token_fetching"
	StateTokenFound    State = "token_found"
	StateTokenNotFound State = "token_not_found"
	StateCollecting    State = "collecting"
	StateDownloading   State = "downloading"
	StateDone          State = "done"
)

// allowed lists the legal transitions out of each state
var allowed = map[State][]State{
	StateIdle:          {StateTokenFetching},
	StateTokenFetching: {StateTokenFound, StateTokenNotFound},
	StateTokenFound:    {StateCollecting},
	StateTokenNotFound: {StateDone},
	StateCollecting:    {StateDownloading, StateDone},
	StateDownloading:   {StateDone},
}

// StateHook observes state changes
type StateHook func(from, to State)

// Scraper runs one query through token lookup, URL collection and download
type Scraper struct {
	client        SearchClient
	newDownloader DownloaderFactory
	query         string
	target        int
	outputDir     string
	logger        logger.Logger

	mu    sync.Mutex
	state State
	hooks []StateHook
}

// New wires a Scraper from configuration using the DuckDuckGo client,
// the sequential downloader and a storage manager on the output directory.
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	client := duckduckgo.NewClient(cfg.Search, log.WithField("component", "search"),
		duckduckgo.WithPageDelay(cfg.Scraper.PageDelay))

	factory := func() (ImageDownloader, error) {
		store, err := storage.NewManager(cfg.Scraper.OutputDir, cfg.Scraper.FilePrefix)
		if err != nil {
			return nil, err
		}
		return downloader.New(client, store, log.WithField("component", "downloader"),
			downloader.WithTimeout(cfg.Scraper.DownloadTimeout)), nil
	}

	return NewWithDeps(client, factory, cfg.Scraper, log)
}

// NewWithDeps builds a Scraper around the given collaborators
func NewWithDeps(client SearchClient, factory DownloaderFactory, cfg config.ScraperConfig, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:        client,
		newDownloader: factory,
		query:         cfg.Query,
		target:        cfg.NumImages,
		outputDir:     cfg.OutputDir,
		logger:        log,
		state:         StateIdle,
	}
}

// OnStateChange registers a hook called after every transition
func (s *Scraper) OnStateChange(hook StateHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// State returns the current state
func (s *Scraper) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scraper) transition(to State) {
	if err := s.tryTransition(to); err != nil {
		panic("scraper: " + err.Error())
	}
}

func (s *Scraper) tryTransition(to State) error {
	s.mu.Lock()
	from := s.state
	legal := false
	for _, next := range allowed[from] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		s.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	s.state = to
	hooks := append([]StateHook(nil), s.hooks...)
	s.mu.Unlock()

	s.logger.DebugWithFields("state changed", map[string]interface{}{
		"from": string(from),
		"to":   string(to),
	})
	for _, h := range hooks {
		h(from, to)
	}
	return nil
}

// Run executes the whole scrape. A missing token or an early end of results
// is not an error; the summary reports what was found and saved. An error is
// returned when the output directory cannot be prepared, or when the Scraper
// has already run: a Scraper runs once and later calls get no summary.
func (s *Scraper) Run(ctx context.Context) (*models.RunSummary, error) {
	if err := s.tryTransition(StateTokenFetching); err != nil {
		return nil, fmt.Errorf("scraper already ran: %w", err)
	}

	summary := &models.RunSummary{
		Query:     s.query,
		Target:    s.target,
		OutputDir: s.outputDir,
		StartedAt: time.Now(),
	}
	finish := func() *models.RunSummary {
		s.transition(StateDone)
		summary.State = string(StateDone)
		summary.CompletedAt = time.Now()
		return summary
	}

	log := s.logger.WithField("query", s.query)
	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"target":     s.target,
		"output_dir": s.outputDir,
	})

	log.Info("Fetching search token")

	token, err := s.client.FetchToken(ctx, s.query)
	if err != nil {
		s.transition(StateTokenNotFound)
		log.WithError(err).Error("Could not find search token")
		return finish(), nil
	}
	s.transition(StateTokenFound)

	s.transition(StateCollecting)
	urls := s.client.CollectImageURLs(ctx, s.query, token, s.target)
	summary.URLsFound = len(urls)
	log.WithField("urls_found", len(urls)).Info(fmt.Sprintf("Found %d image URLs", len(urls)))

	if len(urls) == 0 {
		log.Warn("No image URLs collected, nothing to download")
		return finish(), nil
	}

	s.transition(StateDownloading)
	dl, err := s.newDownloader()
	if err != nil {
		log.WithError(err).Error("Failed to prepare output directory")
		finish()
		return summary, fmt.Errorf("failed to prepare downloader: %w", err)
	}

	for _, o := range dl.Download(ctx, urls) {
		summary.Record(o)
	}

	logger.LogComponentStop(log, "scraper", fmt.Sprintf("saved %d of %d", summary.Saved, summary.URLsFound))
	return finish(), nil
}
