package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
)

// StreamAdapter takes a single snapshot from a websocket feed: dial, send the
// subscribe frame when one is configured, and return the first parsable
// message. Continuous consumption is the caller's business, not this
// pipeline's.
type StreamAdapter struct {
	name      string
	baseURL   string
	subscribe string // optional subscribe template, "{symbol}" is substituted
}

func NewStreamAdapter(cfg config.SourceConfig) *StreamAdapter {
	return &StreamAdapter{
		name:      cfg.Name,
		baseURL:   cfg.URL,
		subscribe: cfg.Params["subscribe"],
	}
}

func (a *StreamAdapter) Name() string { return a.name }

func (a *StreamAdapter) Fetch(ctx context.Context, req model.CollectionRequest) (*model.RawRecord, error) {
	streamURL := strings.ReplaceAll(a.baseURL, "{symbol}", req.Symbol)

	start := time.Now()
	conn, _, err := websocket.Dial(ctx, streamURL, nil)
	if err != nil {
		return nil, Unavailable(a.name, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if a.subscribe != "" {
		frame := strings.ReplaceAll(a.subscribe, "{symbol}", req.Symbol)
		if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
			return nil, Unavailable(a.name, err)
		}
	}

	typ, data, err := conn.Read(ctx)
	if err != nil {
		return nil, Unavailable(a.name, err)
	}
	if typ != websocket.MessageText {
		return nil, Malformed(a.name, fmt.Errorf("unexpected %v frame", typ))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Malformed(a.name, fmt.Errorf("decode frame: %w", err))
	}

	return &model.RawRecord{
		Source:    a.name,
		FetchedAt: start.UTC(),
		Latency:   time.Since(start),
		Payload:   raw,
	}, nil
}

var _ Adapter = (*StreamAdapter)(nil)
