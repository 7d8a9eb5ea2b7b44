// Package metadata orchestrates the query, fetch, parse, and filter stages
// into the identify and cover operations exposed to the host application.
package metadata

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ebookmeta/kobosource/config"
	"github.com/ebookmeta/kobosource/filter"
	"github.com/ebookmeta/kobosource/models"
	"github.com/ebookmeta/kobosource/parser"
	"github.com/ebookmeta/kobosource/query"
	"github.com/ebookmeta/kobosource/scraper"
)

// ErrNoCover is returned when no cover URL can be obtained for a book.
var ErrNoCover = errors.New("no cover url found")

// ResultSink receives completed records in emission order.
type ResultSink interface {
	Put(*models.Book)
}

// Source is one metadata source instance. Candidate pages are fetched and
// parsed strictly in sequence; concurrent invocations on behalf of several
// books should each own a Source, or share one and accept serialization on
// its session. The cover cache tolerates last-writer-wins.
type Source struct {
	cfg        *config.Config
	log        *slog.Logger
	builder    *query.Builder
	session    *scraper.Session
	paginator  *scraper.Paginator
	parser     *parser.Parser
	blacklist  *filter.Blacklist
	coverCache *lru.Cache[string, string]
}

// NewSource builds a source from validated configuration.
func NewSource(cfg *config.Config, log *slog.Logger) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	cache, err := lru.New[string, string](cfg.CoverCacheSize)
	if err != nil {
		return nil, err
	}

	builder := query.NewBuilder(cfg.BaseURL)
	session := scraper.NewSession(cfg, log)
	return &Source{
		cfg:        cfg,
		log:        log,
		builder:    builder,
		session:    session,
		paginator:  scraper.NewPaginator(cfg, log, session, builder),
		parser:     parser.New(cfg, log),
		blacklist:  filter.New(cfg.TitleBlacklist, cfg.TagBlacklist),
		coverCache: cache,
	}, nil
}

// Metrics exposes the fetch-layer metrics registry.
func (s *Source) Metrics() *scraper.Metrics {
	return s.session.Metrics
}

// SetAuthorFixer installs the host's contributor normalization step.
func (s *Source) SetAuthorFixer(fix parser.AuthorFixer) {
	s.parser.SetAuthorFixer(fix)
}

// Identify searches for the book and emits surviving records to sink in
// priority order: a direct identifier URL first, then an ISBN-derived URL,
// then free-text search results. Relevance is the zero-based emission rank.
//
// An error on a candidate page stops the loop but preserves records already
// emitted; errors during the search phase, before anything was emitted, are
// returned.
func (s *Source) Identify(ctx context.Context, sink ResultSink, title string, authors []string, identifiers map[string]string) error {
	s.log.Info("identify",
		slog.String("title", title),
		slog.Any("authors", authors),
		slog.Any("identifiers", identifiers),
	)

	urls, err := s.candidateURLs(ctx, title, authors, identifiers, s.cfg.NumMatches)
	if err != nil {
		return err
	}

	relevance := 0
	for _, candidate := range urls {
		// The host abort signal is advisory and only honored between
		// candidate iterations.
		if err := ctx.Err(); err != nil {
			return err
		}

		s.log.Info("looking up metadata", slog.String("url", candidate))
		page, err := s.session.Fetch(ctx, candidate)
		if err != nil {
			s.log.Error("candidate fetch failed", slog.String("url", candidate), slog.Any("error", err))
			return nil
		}
		if page.IsSearch {
			s.log.Info("expected a product page", slog.String("url", page.URL))
			return nil
		}

		book, err := s.parser.ParseBookPage(page.Doc)
		if err != nil {
			s.log.Error("candidate parse failed", slog.String("url", page.URL), slog.Any("error", err))
			return nil
		}

		s.cacheCoverURL(book)

		if matched := s.blacklist.Check(book); matched != nil {
			s.log.Info("record blacklisted",
				slog.String("title", book.Title),
				slog.Any("terms", matched),
			)
			continue
		}

		book.Relevance = relevance
		relevance++
		sink.Put(book)
	}
	return nil
}

// GetCoverURL resolves the cover URL for a book, consulting the ISBN cache
// before running a reduced identify.
func (s *Source) GetCoverURL(ctx context.Context, title string, authors []string, identifiers map[string]string) (string, error) {
	isbn := query.CheckISBN(identifiers["isbn"])
	if isbn != "" {
		if cached, ok := s.coverCache.Get(isbn); ok {
			s.log.Info("cover url cache hit", slog.String("isbn", isbn))
			return cached, nil
		}
	}

	urls, err := s.candidateURLs(ctx, title, authors, identifiers, 1)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		s.log.Error("no search results for cover lookup", slog.String("title", title))
		return "", ErrNoCover
	}

	page, err := s.session.Fetch(ctx, urls[0])
	if err != nil {
		return "", err
	}
	if page.IsSearch {
		s.log.Info("expected a product page", slog.String("url", page.URL))
		return "", ErrNoCover
	}

	book, err := s.parser.ParseBookPage(page.Doc)
	if err != nil {
		return "", err
	}
	s.cacheCoverURL(book)

	if book.CoverURL == "" {
		return "", ErrNoCover
	}
	return book.CoverURL, nil
}

// GetCover downloads the cover image bytes through the same session.
func (s *Source) GetCover(ctx context.Context, coverURL string) ([]byte, error) {
	return s.session.FetchBytes(ctx, coverURL)
}

// candidateURLs builds the candidate list in priority order.
func (s *Source) candidateURLs(ctx context.Context, title string, authors []string, identifiers map[string]string, maxMatches int) ([]string, error) {
	var urls []string

	if id := identifiers["kobo"]; id != "" {
		urls = append(urls, s.builder.DetailURL(s.cfg.Country, id))
	}

	if isbn := query.CheckISBN(identifiers["isbn"]); isbn != "" {
		s.log.Info("searching by isbn", slog.String("isbn", isbn))
		// ISBN queries usually redirect straight to the product page; only
		// the top result is trusted to be that book.
		isbnURLs, err := s.paginator.CollectCandidates(ctx, isbn, maxMatches)
		if err != nil {
			return nil, err
		}
		if len(isbnURLs) > 0 {
			urls = append(urls, isbnURLs[0])
		}
	}

	if q := s.builder.Query(title, authors, s.cfg.RemoveLeadingZeroes); q != "" {
		queryURLs, err := s.paginator.CollectCandidates(ctx, q, maxMatches)
		if err != nil {
			if len(urls) > 0 {
				s.log.Error("free-text search failed, continuing with identifier urls", slog.Any("error", err))
				return urls, nil
			}
			return nil, err
		}
		urls = append(urls, queryURLs...)
	}

	return urls, nil
}

func (s *Source) cacheCoverURL(book *models.Book) {
	if book.ISBN == "" || book.CoverURL == "" {
		return
	}
	s.coverCache.Add(book.ISBN, book.CoverURL)
}
