package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/pkg/utils"
)

// ScrapeAdapter extracts one record from an HTML page. The container selector
// picks the element for the request symbol; each configured field selector is
// evaluated inside it and the text content becomes the payload value.
type ScrapeAdapter struct {
	name     string
	baseURL  string
	headers  map[string]string
	selector string
	fields   map[string]string
	client   *http.Client
}

func NewScrapeAdapter(cfg config.SourceConfig) (*ScrapeAdapter, error) {
	if cfg.Selector == "" {
		return nil, fmt.Errorf("scrape source %s: selector is required", cfg.Name)
	}
	return &ScrapeAdapter{
		name:     cfg.Name,
		baseURL:  cfg.URL,
		headers:  cfg.Headers,
		selector: cfg.Selector,
		fields:   cfg.SelectorFields,
		client:   &http.Client{},
	}, nil
}

func (a *ScrapeAdapter) Name() string { return a.name }

func (a *ScrapeAdapter) Fetch(ctx context.Context, req model.CollectionRequest) (*model.RawRecord, error) {
	pageURL := strings.ReplaceAll(a.baseURL, "{symbol}", req.Symbol)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, Rejected(a.name, err)
	}
	for k, v := range a.headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, Unavailable(a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, Unavailable(a.name, fmt.Errorf("upstream returned %s", resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Rejected(a.name, fmt.Errorf("upstream returned %s", resp.Status))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, Malformed(a.name, fmt.Errorf("parse html: %w", err))
	}

	container := doc.Find(a.selector).First()
	if container.Length() == 0 {
		return nil, Malformed(a.name, fmt.Errorf("selector %q matched nothing", a.selector))
	}

	payload := make(map[string]interface{}, len(a.fields))
	for field, sel := range a.fields {
		node := container.Find(sel).First()
		if node.Length() == 0 {
			payload[field] = nil
			continue
		}
		payload[field] = utils.ParseValue(node.Text())
	}
	if len(payload) == 0 {
		// No field selectors configured: take the container text as-is.
		payload["text"] = strings.TrimSpace(container.Text())
	}

	return &model.RawRecord{
		Source:    a.name,
		FetchedAt: start.UTC(),
		Latency:   time.Since(start),
		Payload:   payload,
	}, nil
}

var _ Adapter = (*ScrapeAdapter)(nil)
