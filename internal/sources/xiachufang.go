package sources

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/singerliu226/AI-resipe/internal/crawling"
	"github.com/singerliu226/AI-resipe/internal/fetch"
	"github.com/singerliu226/AI-resipe/internal/scheduler"
	"github.com/singerliu226/AI-resipe/internal/types"
)

const (
	// DefaultXiachufangURL is the site root; listing and detail paths are relative to it.
	DefaultXiachufangURL = "https://www.xiachufang.com"
	// DefaultListingPages is how many explore pages are walked when no count is given.
	DefaultListingPages = 2
)

// Xiachufang scrapes recipes from the site's explore listing.
type Xiachufang struct {
	BaseURL     string
	Pages       int
	Concurrency int
	Politeness  crawling.Politeness

	getter fetch.Getter
	logger *slog.Logger
}

// NewXiachufang returns the scraper for the first pages explore pages.
func NewXiachufang(pages int, getter fetch.Getter, logger *slog.Logger) *Xiachufang {
	if pages < 1 {
		pages = DefaultListingPages
	}
	return &Xiachufang{
		BaseURL:     DefaultXiachufangURL,
		Pages:       pages,
		Concurrency: scheduler.DefaultConcurrency,
		Politeness:  crawling.DefaultPoliteness(),
		getter:      getter,
		logger:      orDiscard(logger),
	}
}

// Name implements Source.
func (s *Xiachufang) Name() string { return "xiachufang" }

// Crawl collects detail links from every listing page, then fetches and
// parses each detail page. A failed listing page counts as a failed task.
func (s *Xiachufang) Crawl(ctx context.Context) (*types.Batch[types.RecipeRecord], error) {
	base := strings.TrimSuffix(s.BaseURL, "/")
	batch := &types.Batch[types.RecipeRecord]{}

	var links []string
	for page := 1; page <= s.Pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageLinks, err := s.listing(ctx, base, page)
		if err != nil {
			s.logger.Warn("listing page skipped", "page", page, "error", err)
			batch.Failed++
			continue
		}
		links = append(links, pageLinks...)
	}
	links = crawling.Dedupe(links)
	s.logger.Info("detail links collected", "source", s.Name(), "links", len(links))

	tasks := make([]scheduler.Task[*types.RecipeRecord], 0, len(links))
	for _, link := range links {
		tasks = append(tasks, scheduler.Task[*types.RecipeRecord]{
			Key: link,
			Run: func(ctx context.Context) (*types.RecipeRecord, error) {
				return s.detail(ctx, base, link)
			},
		})
	}

	values, failed := scheduler.Split(scheduler.Run(ctx, tasks, s.Concurrency, s.logger))
	batch.Failed += failed
	for _, rec := range values {
		if rec != nil {
			batch.Records = append(batch.Records, *rec)
		}
	}
	return batch, nil
}

func (s *Xiachufang) listing(ctx context.Context, base string, page int) ([]string, error) {
	pageURL := base + "/explore/?page=" + strconv.Itoa(page)
	s.logger.Debug("fetching listing page", "url", pageURL)

	res, err := s.getter.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	set, err := crawling.ExtractLinks(res.Text(), base, crawling.RecipeLinkPattern)
	if err != nil {
		return nil, err
	}
	if set.FromFallback && len(set.Links) > 0 {
		s.logger.Info("selector found no links, used regex fallback", "page", page, "links", len(set.Links))
	}
	return set.Links, nil
}

func (s *Xiachufang) detail(ctx context.Context, base, link string) (*types.RecipeRecord, error) {
	if err := s.Politeness.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := s.getter.Get(ctx, link, map[string]string{"Referer": base})
	if err != nil {
		return nil, err
	}
	rec, err := crawling.ParseRecipePage(res.Text(), link)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.logger.Debug("detail page has no title, skipped", "url", link)
	}
	return rec, nil
}
