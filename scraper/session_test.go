package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ebookmeta/kobosource/config"
	"github.com/jarcoal/httpmock"
)

const challengePage = `<html><head><title>Just a moment...</title></head><body><form id="challenge-form" action="/verify"></form></body></html>`

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://kobo.test/"
	cfg.ChallengeWait = 0
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(cfg *config.Config) (*Session, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	s := NewSession(cfg, discardLogger())
	s.WithTransport(transport)
	s.sleep = func(time.Duration) {}
	return s, transport
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(http.StatusOK, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}

func redirectResponder(location string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusMovedPermanently, "")
		resp.Header.Set("Location", location)
		return resp, nil
	}
}

func productPage(title string) string {
	return fmt.Sprintf(`<html><body><h1 class="title product-field">%s</h1></body></html>`, title)
}

func TestFetchClassifiesPages(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	searchURL := "http://kobo.test/us/en/search?query=wing"
	productURL := "http://kobo.test/us/en/ebook/fourth-wing-1"
	transport.RegisterResponder("GET", searchURL, htmlResponder("<html><body></body></html>"))
	transport.RegisterResponder("GET", productURL, htmlResponder(productPage("Fourth Wing")))

	page, err := s.Fetch(context.Background(), searchURL)
	if err != nil {
		t.Fatalf("fetch search: %v", err)
	}
	if !page.IsSearch {
		t.Fatalf("search url should classify as search")
	}

	page, err = s.Fetch(context.Background(), productURL)
	if err != nil {
		t.Fatalf("fetch product: %v", err)
	}
	if page.IsSearch {
		t.Fatalf("product url should not classify as search")
	}
	if got := page.Doc.Find("h1").Text(); got != "Fourth Wing" {
		t.Fatalf("title = %q", got)
	}
}

func TestFetchClassifiesByFinalURL(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	searchURL := "http://kobo.test/us/en/search?query=9781761108105"
	productURL := "http://kobo.test/us/en/ebook/fourth-wing-1"
	transport.RegisterResponder("GET", searchURL, redirectResponder(productURL))
	transport.RegisterResponder("GET", productURL, htmlResponder(productPage("Fourth Wing")))

	page, err := s.Fetch(context.Background(), searchURL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.IsSearch {
		t.Fatalf("redirected page should classify by final url")
	}
	if page.URL != productURL {
		t.Fatalf("final url = %q, want %q", page.URL, productURL)
	}
}

func TestFetchChallengeEventuallyClears(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	var sleeps int
	s.sleep = func(time.Duration) { sleeps++ }

	productURL := "http://kobo.test/us/en/ebook/holly"
	attempts := 0
	transport.RegisterResponder("GET", productURL, func(*http.Request) (*http.Response, error) {
		attempts++
		if attempts < 15 {
			resp := httpmock.NewStringResponse(http.StatusServiceUnavailable, challengePage)
			resp.Header.Set("Content-Type", "text/html")
			return resp, nil
		}
		resp := httpmock.NewStringResponse(http.StatusOK, productPage("Holly"))
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	})

	page, err := s.Fetch(context.Background(), productURL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := page.Doc.Find("h1").Text(); got != "Holly" {
		t.Fatalf("title = %q, want Holly", got)
	}
	if attempts != 15 {
		t.Fatalf("attempts = %d, want 15", attempts)
	}
	if sleeps != 14 {
		t.Fatalf("sleeps = %d, want 14", sleeps)
	}
}

func TestFetchChallengeExhausted(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	productURL := "http://kobo.test/us/en/ebook/holly"
	resp := httpmock.NewStringResponse(http.StatusServiceUnavailable, challengePage)
	resp.Header.Set("Content-Type", "text/html")
	transport.RegisterResponder("GET", productURL, httpmock.ResponderFromResponse(resp))

	_, err := s.Fetch(context.Background(), productURL)
	var challengeErr ErrBotChallenge
	if !errors.As(err, &challengeErr) {
		t.Fatalf("expected ErrBotChallenge, got %v", err)
	}
	if challengeErr.Attempts != 15 {
		t.Fatalf("attempts = %d, want 15", challengeErr.Attempts)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	missingURL := "http://kobo.test/us/en/ebook/gone"
	transport.RegisterResponder("GET", missingURL, httpmock.NewStringResponder(http.StatusNotFound, "not here"))

	_, err := s.Fetch(context.Background(), missingURL)
	var statusErr ErrHTTPStatus
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected ErrHTTPStatus, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", statusErr.StatusCode)
	}
	if got := errorTypeLabel(err); got != "not_found" {
		t.Fatalf("label = %q, want not_found", got)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	cfg := testConfig()
	s, _ := newTestSession(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx, "http://kobo.test/us/en/ebook/holly"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestFetchBytes(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestSession(cfg)

	coverURL := "http://cdn.test/book-images/abc/holly.jpg"
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	transport.RegisterResponder("GET", coverURL, httpmock.NewBytesResponder(http.StatusOK, payload))

	got, err := s.FetchBytes(context.Background(), coverURL)
	if err != nil {
		t.Fatalf("fetch bytes: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "other status", err: nil, statusCode: http.StatusBadGateway, expected: "http_status"},
		{name: "other", err: errors.New("boom"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode, "http://kobo.test/")); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestIsChallenge(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected bool
	}{
		{name: "challenge form", body: challengePage, expected: true},
		{name: "title marker only", body: "<html><head><title>Just a moment...</title></head><body></body></html>", expected: true},
		{name: "regular page", body: productPage("Holly"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goqueryDoc(tt.body)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := isChallenge(doc); got != tt.expected {
				t.Fatalf("isChallenge = %v, want %v", got, tt.expected)
			}
		})
	}
}

func goqueryDoc(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}
