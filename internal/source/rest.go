package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
)

// RESTAdapter fetches one record from a JSON HTTP endpoint. The request symbol
// is passed as the "symbol" query parameter alongside any configured params.
type RESTAdapter struct {
	name      string
	baseURL   string
	method    string
	authToken string
	headers   map[string]string
	params    map[string]string
	client    *http.Client
}

func NewRESTAdapter(cfg config.SourceConfig) *RESTAdapter {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	return &RESTAdapter{
		name:      cfg.Name,
		baseURL:   cfg.URL,
		method:    method,
		authToken: cfg.AuthToken,
		headers:   cfg.Headers,
		params:    cfg.Params,
		client:    &http.Client{},
	}
}

func (a *RESTAdapter) Name() string { return a.name }

func (a *RESTAdapter) Fetch(ctx context.Context, req model.CollectionRequest) (*model.RawRecord, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, Rejected(a.name, fmt.Errorf("bad source url: %w", err))
	}
	q := u.Query()
	for k, v := range a.params {
		q.Set(k, v)
	}
	for k, v := range req.Params {
		q.Set(k, v)
	}
	if req.Symbol != "" {
		q.Set("symbol", req.Symbol)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, a.method, u.String(), nil)
	if err != nil {
		return nil, Rejected(a.name, err)
	}
	for k, v := range a.headers {
		httpReq.Header.Set(k, v)
	}
	if a.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.authToken)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		// Covers timeouts, refused connections and cancelled contexts.
		return nil, Unavailable(a.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusNotFound:
		return nil, Rejected(a.name, fmt.Errorf("upstream returned %s", resp.Status))
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return nil, Unavailable(a.name, fmt.Errorf("upstream returned %s", resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, Rejected(a.name, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Unavailable(a.name, fmt.Errorf("read body: %w", err))
	}

	payload, err := decodePayload(a.name, body)
	if err != nil {
		return nil, err
	}

	return &model.RawRecord{
		Source:    a.name,
		FetchedAt: start.UTC(),
		Latency:   time.Since(start),
		Payload:   payload,
	}, nil
}

// decodePayload accepts the JSON shapes providers actually return: a bare
// object, a list (first element wins), or either wrapped under a "data" key.
func decodePayload(name string, body []byte) (map[string]interface{}, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, Malformed(name, fmt.Errorf("decode json: %w", err))
	}

	if m, ok := raw.(map[string]interface{}); ok {
		if inner, exists := m["data"]; exists {
			raw = inner
		}
	}

	switch v := raw.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, Malformed(name, fmt.Errorf("empty data list"))
		}
		if m, ok := v[0].(map[string]interface{}); ok {
			return m, nil
		}
		return nil, Malformed(name, fmt.Errorf("data list holds %T, want object", v[0]))
	default:
		return nil, Malformed(name, fmt.Errorf("unexpected json structure %T", raw))
	}
}

var _ Adapter = (*RESTAdapter)(nil)
