package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"newsflow/internal/config"
	"newsflow/internal/database"
	"newsflow/internal/events"
	"newsflow/internal/logger"
	"newsflow/internal/metrics"
)

const (
	MinItemsPerSource     = 3
	MaxItemsPerSource     = 10
	defaultFetchWorkers   = 4
	refreshSingleflightID = "refresh-all"
	maxURLLength          = 500
)

type Options struct {
	// ItemsPerSource caps how many feed items are considered per source per
	// cycle. Clamped to [3, 10].
	ItemsPerSource int
	Concurrency    int
}

// Service runs the ingestion cycle: fetch every active source, normalise its
// items and insert the ones whose URL is not yet stored.
type Service struct {
	db      *database.DB
	fetcher *Fetcher
	events  events.Publisher
	log     *logger.Logger
	opts    Options
	group   singleflight.Group
	now     func() time.Time
}

func NewService(db *database.DB, fetcher *Fetcher, pub events.Publisher, log *logger.Logger, opts Options) *Service {
	if opts.ItemsPerSource == 0 {
		opts.ItemsPerSource = MaxItemsPerSource
	}
	opts.ItemsPerSource = min(max(opts.ItemsPerSource, MinItemsPerSource), MaxItemsPerSource)
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultFetchWorkers
	}
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:      db,
		fetcher: fetcher,
		events:  pub,
		log:     log.With("component", "feed"),
		opts:    opts,
		now:     time.Now,
	}
}

func (s *Service) Fetcher() *Fetcher { return s.fetcher }

// SeedDefaultSources stores defs when no source exists yet.
func (s *Service) SeedDefaultSources(ctx context.Context, defs []config.SourceDef) (int, error) {
	sources := make([]database.Source, 0, len(defs))
	for _, d := range defs {
		sources = append(sources, database.Source{
			Name:        d.Name,
			DisplayName: d.DisplayName,
			URL:         d.URL,
			RSSURL:      d.RSSURL,
			Category:    d.Category,
			IsActive:    true,
		})
	}
	added, err := s.db.SeedSources(ctx, sources)
	if err != nil {
		return added, err
	}
	if added > 0 {
		s.log.Info("seeded news sources", "added", added)
	}
	return added, nil
}

// RefreshAllSources runs one ingestion cycle. Concurrent callers share the
// cycle already in flight. The cycle is not bound to any caller's context:
// a caller whose ctx ends stops waiting, the cycle keeps running for the
// others. Per-source failures are logged and counted in the report; only a
// failure to list sources is returned as an error.
func (s *Service) RefreshAllSources(ctx context.Context) (RefreshReport, error) {
	cycleCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(refreshSingleflightID, func() (interface{}, error) {
		return s.refreshAll(cycleCtx)
	})
	select {
	case <-ctx.Done():
		return RefreshReport{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.log.Debug("joined in-flight refresh")
		}
		if res.Err != nil {
			return RefreshReport{}, res.Err
		}
		return res.Val.(RefreshReport), nil
	}
}

func (s *Service) refreshAll(ctx context.Context) (RefreshReport, error) {
	report := RefreshReport{StartedAt: s.now().UTC()}

	sources, err := s.db.ListActiveSources(ctx)
	if err != nil {
		return report, fmt.Errorf("listing active sources: %w", err)
	}
	s.log.Info("starting feed refresh", "sources", len(sources))

	results := make([]SourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = s.refreshSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	report.Sources = len(sources)
	report.PerSource = results
	for _, r := range results {
		if r.Error != "" {
			report.Failed++
		}
		report.Inserted += r.Inserted
		report.Duplicates += r.Duplicates
		report.Skipped += r.Skipped
	}
	report.Duration = time.Since(report.StartedAt)

	s.log.Info("feed refresh completed",
		"sources", report.Sources,
		"failed", report.Failed,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}

func (s *Service) refreshSource(ctx context.Context, src database.Source) SourceResult {
	result := SourceResult{SourceID: src.ID, Name: src.Name}
	log := s.log.With("source", src.Name)

	parsed, err := s.fetcher.Fetch(ctx, src.RSSURL)
	if errors.Is(err, ErrNotModified) {
		log.Debug("feed not modified since last fetch")
		return result
	}
	if err != nil {
		metrics.FeedFetchFailures.WithLabelValues(src.Name).Inc()
		log.Warn("feed refresh failed", "url", src.RSSURL, "error", err)
		result.Error = err.Error()
		return result
	}

	items := parsed.Items
	if len(items) > s.opts.ItemsPerSource {
		items = items[:s.opts.ItemsPerSource]
	}

	for _, item := range items {
		article := s.buildArticle(src, item)
		if article == nil {
			result.Skipped++
			continue
		}

		inserted, err := s.db.InsertArticle(ctx, article)
		if err != nil {
			log.Error("failed to insert article", "url", article.URL, "error", err)
			// Next poll must refetch in full or this item is lost behind a 304.
			s.fetcher.Forget(src.RSSURL)
			result.Skipped++
			continue
		}
		if !inserted {
			metrics.ArticlesDuplicate.WithLabelValues(src.Name).Inc()
			result.Duplicates++
			continue
		}

		metrics.ArticlesIngested.WithLabelValues(src.Name).Inc()
		result.Inserted++
		ev := events.ArticleEvent{
			ID:          article.ID,
			Title:       article.Title,
			URL:         article.URL,
			SourceID:    src.ID,
			SourceName:  src.Name,
			Category:    article.Category,
			PublishedAt: article.PublishedAt,
		}
		if err := s.events.ArticleIngested(ctx, ev); err != nil {
			log.Warn("failed to publish article event", "article_id", article.ID, "error", err)
		}
	}

	log.Debug("source refreshed", "inserted", result.Inserted, "duplicates", result.Duplicates, "skipped", result.Skipped)
	return result
}

// buildArticle normalises a feed item. Items without a title or link yield nil.
func (s *Service) buildArticle(src database.Source, item *gofeed.Item) *database.Article {
	if item == nil {
		return nil
	}
	title := strings.TrimSpace(StripMarkup(item.Title))
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" || len(link) > maxURLLength {
		return nil
	}

	content := item.Content
	if strings.TrimSpace(content) == "" {
		content = item.Description
	}
	if strings.TrimSpace(content) == "" {
		content = title
	}

	text := StripMarkup(content)
	summary := Summarize(text)
	if summary == "" {
		summary = title
	}

	published := s.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	article := &database.Article{
		Title:       title,
		Content:     content,
		Summary:     summary,
		URL:         link,
		SourceID:    src.ID,
		Category:    src.Category,
		PublishedAt: published.UTC(),
		ReadingTime: EstimateReadingTime(text),
	}
	if img := itemImage(item, content); img != "" && len(img) <= maxURLLength {
		article.ImageURL = &img
	}
	return article
}

func itemImage(item *gofeed.Item, content string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if img := FirstImage(content); img != "" {
		return img
	}
	return FirstImage(item.Description)
}
