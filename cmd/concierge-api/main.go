// @title Data Concierge API
// @version 1.0
// @description Multi-source data collection and quality-scoring pipeline
// @BasePath /api/v1
package main

import (
	"flag"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-data-concierge/internal/api"
	"go-data-concierge/internal/api/handler"
	"go-data-concierge/internal/collector"
	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/internal/pipeline"
	"go-data-concierge/internal/quality"
	"go-data-concierge/internal/source"
	"go-data-concierge/internal/store"
	"go-data-concierge/pkg/logx"
	"go-data-concierge/pkg/router"
)

func main() {
	configPath := flag.String("config", "concierge.yaml", "path to the config file")
	flag.Parse()

	logger, err := logx.New()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	adapters, err := source.BuildAll(cfg.Sources)
	if err != nil {
		logger.Fatal("build sources", zap.Error(err))
	}

	col := collector.New(adapters, cfg.Collector, cfg.Sources, logger)
	val := quality.NewValidator(cfg.Quality, cfg.Pipeline.ScoreWeights, logger)
	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)

	coord := pipeline.NewCoordinator(col, val, cfg.Sources, st, cfg.Pipeline, logger, metrics,
		func(requestID string, state model.RequestState) {
			if err := st.UpdateStatus(requestID, state); err != nil {
				logger.Warn("update status", zap.String("request", requestID), zap.Error(err))
			}
		})

	r := router.New()
	api.RegisterRoutes(r, handler.New(coord, st, logger))

	logger.Info("concierge api starting",
		zap.String("listen", cfg.Listen),
		zap.Int("sources", len(cfg.Sources)))
	if err := r.Start(cfg.Listen); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
