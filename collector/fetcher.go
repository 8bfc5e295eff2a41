package collector

import (
	"context"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	userAgent    = "polifeed-collector/1.0 (+https://github.com/takumi-dev/polifeed)"
	acceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"

	// defaultFetchTimeout bounds every outgoing fetch. Retry policy belongs to
	// the orchestrator, not here.
	defaultFetchTimeout = 15 * time.Second

	maxBodyBytes = 5 * 1024 * 1024
)

// FetchResult is the raw payload of one fetch plus its HTTP status.
type FetchResult struct {
	Body       string
	StatusCode int
}

// FeedFetcher performs bounded, header-correct GETs against feed endpoints.
type FeedFetcher struct {
	client *http.Client
}

func NewFeedFetcher() *FeedFetcher {
	return &FeedFetcher{client: &http.Client{Timeout: defaultFetchTimeout}}
}

// NewFeedFetcherWithClient injects a custom client, used by tests and by
// callers that need a different timeout.
func NewFeedFetcherWithClient(client *http.Client) *FeedFetcher {
	return &FeedFetcher{client: client}
}

// Fetch GETs url with an identifying user agent and feed media types in the
// Accept header. Failures map onto the collector error taxonomy:
// ErrTimeout, ErrUnreachable, or *SourceError for a non-2xx status.
func (f *FeedFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(ErrUnreachable, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	res, err := f.client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, errors.Wrap(ErrTimeout, err.Error())
		}
		return nil, errors.Wrap(ErrUnreachable, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &SourceError{StatusCode: res.StatusCode}
	}

	body, err := ioutil.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(ErrUnreachable, err.Error())
	}

	return &FetchResult{Body: string(body), StatusCode: res.StatusCode}, nil
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
