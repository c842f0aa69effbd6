package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Extractor produces a face template from an image. An empty template with a
// nil error means no face was detected; errors are reserved for pipeline
// failures (the extractor being unreachable, malformed responses).
type Extractor interface {
	Extract(ctx context.Context, image []byte) (Template, error)
}

// HTTPExtractor calls an external feature-extraction sidecar over HTTP.
// The sidecar accepts a raw image body and responds with
// {"encodings": [[...128 floats...], ...]}; an empty list means no face.
type HTTPExtractor struct {
	endpoint string
	client   *http.Client
}

// NewHTTPExtractor builds an extractor client for the given endpoint URL.
func NewHTTPExtractor(endpoint string) *HTTPExtractor {
	return &HTTPExtractor{
		endpoint: endpoint,
		// Extraction is CPU-bound on the sidecar and can take seconds.
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type extractResponse struct {
	Encodings [][]float64 `json:"encodings"`
}

// Extract posts the image to the sidecar and returns the first detected
// face's template, or an empty template when none were found.
func (e *HTTPExtractor) Extract(ctx context.Context, image []byte) (Template, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("extractor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor: unexpected status %d", resp.StatusCode)
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("extractor response: %w", err)
	}
	if len(out.Encodings) == 0 {
		return Template{}, nil
	}
	t := Template(out.Encodings[0])
	if len(t) != TemplateSize {
		return nil, fmt.Errorf("extractor: expected %d features, got %d", TemplateSize, len(t))
	}
	return t, nil
}
