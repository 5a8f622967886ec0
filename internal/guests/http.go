package guests

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ── HTTP Source ─────────────────────────────────────────────
// Fetches a guest list from a JSON API, e.g. an RSVP service export.

type httpSource struct {
	client *http.Client
}

func init() { RegisterSource(&httpSource{client: &http.Client{Timeout: 30 * time.Second}}) }

func (s *httpSource) Spec() SourceSpec {
	return SourceSpec{
		Type:  "http",
		Label: "HTTP API",
		ConfigFields: []ConfigField{
			{Key: "url", Label: "URL", Required: true, Help: "Endpoint returning a JSON array of guests"},
			{Key: "method", Label: "Method", Options: []string{"GET", "POST"}, Default: "GET"},
			{Key: "headers", Label: "Headers", Help: "JSON object of request headers"},
			{Key: "body", Label: "Body", Help: "Request body for POST"},
			{Key: "dataPath", Label: "Data Path", Help: "Dot-separated path to the array in the response"},
		},
	}
}

func (s *httpSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	records, err := s.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return inferSchema(records), nil
}

func (s *httpSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	return emitAll(ctx, func() ([]Record, error) { return s.fetch(ctx, cfg) })
}

func (s *httpSource) fetch(ctx context.Context, cfg SourceConfig) ([]Record, error) {
	url := cfg.str("url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	method := strings.ToUpper(cfg.str("method"))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if b := cfg.str("body"); b != "" {
		body = strings.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h := cfg.str("headers"); h != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(h), &headers); err != nil {
			return nil, fmt.Errorf("parse headers: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return decodeJSONRecords(data, cfg.str("dataPath"))
}
