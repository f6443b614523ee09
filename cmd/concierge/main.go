package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-data-concierge/internal/collector"
	"go-data-concierge/internal/config"
	"go-data-concierge/internal/model"
	"go-data-concierge/internal/pipeline"
	"go-data-concierge/internal/quality"
	"go-data-concierge/internal/source"
	"go-data-concierge/internal/store"
	"go-data-concierge/pkg/logx"
)

// batchEntry is one line of the requests file.
type batchEntry struct {
	Source string            `json:"source"`
	Symbol string            `json:"symbol"`
	Params map[string]string `json:"params,omitempty"`
}

func main() {
	configPath := flag.String("config", "concierge.yaml", "path to the config file")
	requestsPath := flag.String("requests", "", "path to a JSON file with collection requests")
	flag.Parse()

	logger, err := logx.NewDevelopment()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	if *requestsPath == "" {
		logger.Fatal("a -requests file is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	data, err := os.ReadFile(*requestsPath)
	if err != nil {
		logger.Fatal("read requests file", zap.Error(err))
	}
	var entries []batchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Fatal("decode requests file", zap.Error(err))
	}

	reqs := make([]model.CollectionRequest, len(entries))
	for i, e := range entries {
		reqs[i] = model.CollectionRequest{
			ID:     uuid.New().String(),
			Source: e.Source,
			Symbol: e.Symbol,
			Params: e.Params,
		}
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer st.Close()
	for _, req := range reqs {
		if err := st.SaveRequest(req); err != nil {
			logger.Fatal("save request", zap.Error(err))
		}
	}

	adapters, err := source.BuildAll(cfg.Sources)
	if err != nil {
		logger.Fatal("build sources", zap.Error(err))
	}

	col := collector.New(adapters, cfg.Collector, cfg.Sources, logger)
	val := quality.NewValidator(cfg.Quality, cfg.Pipeline.ScoreWeights, logger)
	coord := pipeline.NewCoordinator(col, val, cfg.Sources, st, cfg.Pipeline, logger, nil,
		func(requestID string, state model.RequestState) {
			_ = st.UpdateStatus(requestID, state)
		})

	results, summary := coord.SubmitBatch(context.Background(), reqs)

	for _, res := range results {
		if res == nil {
			continue
		}
		line := fmt.Sprintf("%-10s %-8s %s", res.Request.Symbol, res.Decision, res.Request.Source)
		if res.Score != nil {
			line += fmt.Sprintf("  score=%.3f", res.Score.Aggregate)
		}
		if len(res.Reasons) > 0 {
			line += fmt.Sprintf("  reasons=%v", res.Reasons)
		}
		if res.Error != "" {
			line += fmt.Sprintf("  error=%s", res.Error)
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%d requests in %v, mean score %.3f\n",
		summary.Total, summary.Elapsed.Round(time.Millisecond), summary.MeanAggregate)
	for decision, n := range summary.ByDecision {
		fmt.Printf("  %-16s %d\n", decision, n)
	}

	if summary.ByDecision[model.DecisionAccepted] == 0 && summary.Total > 0 {
		os.Exit(1)
	}
}
