// Package scraper implements the storefront fetch layer: a persistent
// browser-like session, bot-challenge evasion, and search pagination.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ebookmeta/kobosource/config"
	"github.com/gocolly/colly/v2"
)

// searchMarker distinguishes search-result URLs from product URLs. The
// classification uses the final post-redirect URL, not the requested one.
const searchMarker = "/search?"

// Page is one fetched document plus its classification.
type Page struct {
	Doc      *goquery.Document
	URL      string
	IsSearch bool
}

// Session owns the long-lived HTTP identity used against the storefront.
// The storefront blocks clients it does not recognize, so the collector is
// configured to look like a regular browser and every fetched document is
// inspected for the interstitial challenge page before being handed out.
//
// All requests are serialized; a Session is safe for concurrent use but the
// pipeline built on it is strictly sequential anyway.
type Session struct {
	cfg     *config.Config
	log     *slog.Logger
	Metrics *Metrics

	mu        sync.Mutex
	collector *colly.Collector
	transport http.RoundTripper

	// per-request state, valid only while mu is held
	lastBody   []byte
	lastStatus int
	finalURL   string

	sleep func(time.Duration)
}

// NewSession returns a session; the underlying collector is created on
// first use.
func NewSession(cfg *config.Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		log:     log,
		Metrics: NewMetrics(),
		sleep:   time.Sleep,
	}
}

// WithTransport replaces the HTTP transport and resets the collector. Used
// by tests to inject a mock transport.
func (s *Session) WithTransport(rt http.RoundTripper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = rt
	s.collector = nil
}

func (s *Session) collectorLocked() *colly.Collector {
	if s.collector != nil {
		return s.collector
	}

	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(s.cfg.Timeout)

	if s.transport != nil {
		c.WithTransport(s.transport)
	} else {
		c.WithTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   s.cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		})
	}

	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		s.finalURL = req.URL.String()
		return nil
	})

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		s.Metrics.IncRequest("started")
	})

	c.OnResponse(func(r *colly.Response) {
		s.lastBody = r.Body
		s.lastStatus = r.StatusCode
		if start, ok := r.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})

	s.collector = c
	return c
}

// Fetch retrieves and parses one page. Interstitial challenge pages are
// retried with a fixed wait up to the configured cap; exhausting the cap is
// a hard failure because a challenge page must never reach the parsers.
func (s *Session) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectorLocked()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, finalURL, status, err := s.requestLocked(c, pageURL)
		if err != nil {
			classified := classifyError(err, 0, pageURL)
			s.Metrics.IncError(errorTypeLabel(classified))
			s.log.Error("fetch failed", slog.String("url", pageURL), slog.Any("error", classified))
			return nil, classified
		}

		if isChallenge(doc) {
			s.Metrics.IncChallenge()
			if attempt >= s.cfg.ChallengeRetries {
				challengeErr := ErrBotChallenge{URL: pageURL, Attempts: attempt}
				s.Metrics.IncError(errorTypeLabel(challengeErr))
				s.log.Error("bot challenge retries exhausted",
					slog.String("url", pageURL),
					slog.Int("attempts", attempt),
				)
				return nil, challengeErr
			}
			s.log.Info("interstitial challenge, waiting",
				slog.String("url", pageURL),
				slog.Int("attempt", attempt),
			)
			s.sleep(s.cfg.ChallengeWait)
			continue
		}

		if status >= http.StatusBadRequest {
			classified := classifyError(nil, status, pageURL)
			s.Metrics.IncError(errorTypeLabel(classified))
			s.log.Error("error status", slog.String("url", pageURL), slog.Int("status", status))
			return nil, classified
		}

		page := &Page{
			Doc:      doc,
			URL:      finalURL,
			IsSearch: strings.Contains(finalURL, searchMarker),
		}
		if page.IsSearch {
			s.Metrics.IncPage("search")
		} else {
			s.Metrics.IncPage("product")
		}
		return page, nil
	}
}

// FetchBytes retrieves a raw resource, typically a cover image.
func (s *Session) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.collectorLocked()
	s.lastBody = nil
	s.lastStatus = 0
	s.finalURL = rawURL
	if err := c.Visit(rawURL); err != nil {
		classified := classifyError(err, 0, rawURL)
		s.Metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}
	if s.lastStatus >= http.StatusBadRequest {
		classified := classifyError(nil, s.lastStatus, rawURL)
		s.Metrics.IncError(errorTypeLabel(classified))
		return nil, classified
	}

	body := make([]byte, len(s.lastBody))
	copy(body, s.lastBody)
	return body, nil
}

func (s *Session) requestLocked(c *colly.Collector, pageURL string) (*goquery.Document, string, int, error) {
	s.lastBody = nil
	s.lastStatus = 0
	s.finalURL = pageURL

	if err := c.Visit(pageURL); err != nil {
		return nil, "", 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(s.lastBody))
	if err != nil {
		return nil, "", 0, fmt.Errorf("parse html: %w", err)
	}
	return doc, s.finalURL, s.lastStatus, nil
}
