package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrBotChallenge indicates the storefront kept serving its interstitial
// challenge page until the retry budget ran out.
type ErrBotChallenge struct {
	URL      string
	Attempts int
}

func (e ErrBotChallenge) Error() string {
	return fmt.Sprintf("bot challenge not cleared after %d attempts: %s", e.Attempts, e.URL)
}

// ErrUnexpectedRedirect indicates a paginated search request resolved to a
// product page. The storefront only redirects on page 1, so this is an
// assumption failure rather than a recoverable condition.
type ErrUnexpectedRedirect struct {
	URL string
}

func (e ErrUnexpectedRedirect) Error() string {
	return fmt.Sprintf("search page unexpectedly resolved to a product page: %s", e.URL)
}

// ErrHTTPStatus indicates a non-challenge response with an error status.
type ErrHTTPStatus struct {
	StatusCode int
	URL        string
}

func (e ErrHTTPStatus) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.URL)
}

func classifyError(err error, statusCode int, url string) error {
	if err == nil {
		if statusCode == 0 {
			return nil
		}
		return ErrHTTPStatus{StatusCode: statusCode, URL: url}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}
	return err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var challenge ErrBotChallenge
	if errors.As(err, &challenge) {
		return "bot_challenge"
	}
	var redirect ErrUnexpectedRedirect
	if errors.As(err, &redirect) {
		return "unexpected_redirect"
	}
	var status ErrHTTPStatus
	if errors.As(err, &status) {
		switch status.StatusCode {
		case http.StatusForbidden:
			return "forbidden"
		case http.StatusNotFound:
			return "not_found"
		case http.StatusTooManyRequests:
			return "rate_limited"
		}
		return "http_status"
	}
	return "other"
}
