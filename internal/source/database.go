package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
)

// DBAdapter fetches one record from a local SQLite database. The configured
// query takes the request symbol as its single placeholder; the first row wins.
type DBAdapter struct {
	name  string
	query string
	db    *sql.DB
}

func NewDBAdapter(cfg config.SourceConfig) (*DBAdapter, error) {
	if cfg.Query == "" {
		return nil, fmt.Errorf("database source %s: query is required", cfg.Name)
	}
	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database source %s: %w", cfg.Name, err)
	}
	return &DBAdapter{name: cfg.Name, query: cfg.Query, db: db}, nil
}

func (a *DBAdapter) Name() string { return a.name }

func (a *DBAdapter) Close() error { return a.db.Close() }

func (a *DBAdapter) Fetch(ctx context.Context, req model.CollectionRequest) (*model.RawRecord, error) {
	start := time.Now()

	rows, err := a.db.QueryContext(ctx, a.query, req.Symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Unavailable(a.name, ctx.Err())
		}
		// A failing query is a parameter problem, not an outage.
		return nil, Rejected(a.name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, Malformed(a.name, err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, Unavailable(a.name, err)
		}
		return nil, Unavailable(a.name, fmt.Errorf("no rows for symbol %q", req.Symbol))
	}

	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, Malformed(a.name, fmt.Errorf("scan row: %w", err))
	}

	payload := make(map[string]interface{}, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			payload[col] = string(b)
			continue
		}
		payload[col] = values[i]
	}

	return &model.RawRecord{
		Source:    a.name,
		FetchedAt: start.UTC(),
		Latency:   time.Since(start),
		Payload:   payload,
	}, nil
}

var _ Adapter = (*DBAdapter)(nil)
