package source

import (
	"fmt"

	"go-data-concierge/internal/config"
)

// New builds the adapter for one configured source. Selection is purely
// config-driven; adding a provider means adding a case here.
func New(cfg config.SourceConfig) (Adapter, error) {
	switch cfg.Type {
	case "rest", "api":
		return NewRESTAdapter(cfg), nil
	case "database":
		return NewDBAdapter(cfg)
	case "scrape", "web":
		return NewScrapeAdapter(cfg)
	case "stream":
		return NewStreamAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown source type %q for source %s", cfg.Type, cfg.Name)
	}
}

// BuildAll constructs adapters for every configured source, keyed by name.
func BuildAll(cfgs []config.SourceConfig) (map[string]Adapter, error) {
	adapters := make(map[string]Adapter, len(cfgs))
	for _, sc := range cfgs {
		a, err := New(sc)
		if err != nil {
			return nil, err
		}
		adapters[sc.Name] = a
	}
	return adapters, nil
}
