package scraper

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/ebookmeta/kobosource/config"
	"github.com/ebookmeta/kobosource/query"
)

// Paginator walks search result pages and collects candidate product URLs.
type Paginator struct {
	cfg     *config.Config
	log     *slog.Logger
	session *Session
	builder *query.Builder
}

// NewPaginator wires a paginator onto an existing session.
func NewPaginator(cfg *config.Config, log *slog.Logger, session *Session, builder *query.Builder) *Paginator {
	if log == nil {
		log = slog.Default()
	}
	return &Paginator{cfg: cfg, log: log, session: session, builder: builder}
}

// CollectCandidates fetches result pages for searchQuery until maxMatches
// candidates are collected or the page ceiling is hit. A query that exactly
// matches one book (usually an ISBN) redirects straight to the product page;
// that single URL is returned immediately. An empty results page yields zero
// candidates without error.
func (p *Paginator) CollectCandidates(ctx context.Context, searchQuery string, maxMatches int) ([]string, error) {
	pageURL := p.builder.SearchURL(searchQuery, 1, p.cfg.Country, p.cfg.Language)
	p.log.Info("searching", slog.String("query", searchQuery), slog.String("url", pageURL))

	page, err := p.session.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !page.IsSearch {
		p.log.Info("search redirected to product page", slog.String("url", page.URL))
		return []string{page.URL}, nil
	}

	results := p.extractResults(page)
	for pageNum := 2; len(results) < maxMatches && pageNum < p.cfg.MaxSearchPages; pageNum++ {
		pageURL = p.builder.SearchURL(searchQuery, pageNum, p.cfg.Country, p.cfg.Language)
		page, err = p.session.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		if !page.IsSearch {
			// The storefront never redirects an already-paginated query.
			redirectErr := ErrUnexpectedRedirect{URL: page.URL}
			p.session.Metrics.IncError(errorTypeLabel(redirectErr))
			return nil, redirectErr
		}
		results = append(results, p.extractResults(page)...)
	}

	if len(results) > maxMatches {
		results = results[:maxMatches]
	}
	p.session.Metrics.SetCandidates(len(results))
	return results, nil
}

func (p *Paginator) extractResults(page *Page) []string {
	var urls []string

	if page.Doc.Find("div[data-testid=search-result-widget]").Length() > 0 {
		p.log.Debug("new search template detected", slog.String("url", page.URL))
		page.Doc.Find("a[data-testid=title]").Each(func(i int, a *goquery.Selection) {
			// Each result renders two title anchors; the first of each
			// pair points at the product page.
			if i%2 != 0 {
				return
			}
			if href, ok := a.Attr("href"); ok {
				urls = append(urls, resolveURL(page.URL, href))
			}
		})
		return urls
	}

	p.log.Debug("legacy search template detected", slog.String("url", page.URL))
	page.Doc.Find("h2.title.product-field a").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			urls = append(urls, resolveURL(page.URL, href))
		}
	})
	return urls
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
