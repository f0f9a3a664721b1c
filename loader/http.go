package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
)

// DefaultTimeout for HTTP requests.
const DefaultTimeout = 30 * time.Second

// maxDocumentSize bounds a fetched document.
const maxDocumentSize = 32 << 20

// StatusError is returned for a non-2xx response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Status)
}

// HTTPSource fetches documents from <base>/<key>.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient.Timeout = timeout
	}
}

// NewHTTPSource creates a source fetching from baseURL.
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchDocument implements service.ProfileSource. A 404 maps to
// ErrNotFound; other non-2xx statuses return a *StatusError.
func (s *HTTPSource) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	u := s.baseURL + "/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/fhir+json, application/yaml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: u, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u, err)
	}
	raw, err := DecodeDocument(data, FormatFromName(resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", u, err)
	}
	return raw, nil
}

var _ service.ProfileSource = (*HTTPSource)(nil)
