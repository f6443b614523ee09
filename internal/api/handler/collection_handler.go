package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-data-concierge/internal/model"
	"go-data-concierge/internal/store"
)

// Submitter is the slice of the pipeline coordinator the API needs.
type Submitter interface {
	Submit(ctx context.Context, req model.CollectionRequest) (*model.PipelineResult, error)
}

// Handler serves the collection API on top of the coordinator and the store.
type Handler struct {
	pipeline Submitter
	store    *store.Store
	timeout  time.Duration
	logger   *zap.Logger
}

func New(pipeline Submitter, st *store.Store, logger *zap.Logger) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    st,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// submitPayload is the request body for creating a collection.
type submitPayload struct {
	Source string             `json:"source"`
	Symbol string             `json:"symbol"`
	Params map[string]string  `json:"params,omitempty"`
	Retry  *model.RetryPolicy `json:"retry,omitempty"`
	Sync   bool               `json:"sync,omitempty"` // wait for the result inline
}

// CreateCollection submits a new collection request
// @Summary Submit a collection request
// @Description Collect one record from a configured source, score it and decide accept/reject. Async by default; pass sync=true to wait for the result.
// @Tags collections
// @Accept json
// @Produce json
// @Param request body submitPayload true "Collection request"
// @Success 200 {object} map[string]interface{} "Request accepted (or, for sync, the full result)"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /collections [post]
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if payload.Source == "" || payload.Symbol == "" {
		http.Error(w, "source and symbol are required", http.StatusBadRequest)
		return
	}

	req := model.CollectionRequest{
		ID:     uuid.New().String(),
		Source: payload.Source,
		Symbol: payload.Symbol,
		Params: payload.Params,
	}
	if payload.Retry != nil {
		req.Retry = *payload.Retry
	}

	if err := h.store.SaveRequest(req); err != nil {
		http.Error(w, "Failed to save request", http.StatusInternalServerError)
		return
	}

	if payload.Sync {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		result, err := h.pipeline.Submit(ctx, req)
		if err != nil {
			http.Error(w, "Request cancelled", http.StatusRequestTimeout)
			return
		}
		writeJSON(w, result)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if _, err := h.pipeline.Submit(ctx, req); err != nil {
			h.logger.Warn("async request did not finish",
				zap.String("request", req.ID), zap.Error(err))
		}
	}()

	writeJSON(w, map[string]interface{}{
		"message":   "Collection request submitted",
		"requestID": req.ID,
		"status":    string(model.StatePending),
		"createdAt": time.Now().UTC(),
	})
}

// ListCollections lists all known requests
// @Summary List collection requests
// @Description Get every submitted request with its current status
// @Tags collections
// @Produce json
// @Success 200 {array} map[string]interface{} "Requests"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	requests, err := h.store.ListRequests()
	if err != nil {
		http.Error(w, "Failed to fetch requests", http.StatusInternalServerError)
		return
	}
	writeJSON(w, requests)
}

// GetCollection fetches one request's result
// @Summary Get a collection result
// @Description Retrieve the terminal result for a request, including record, score and decision
// @Tags collections
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} model.PipelineResult "Result"
// @Failure 404 {object} map[string]interface{} "Unknown request"
// @Router /collections/{id} [get]
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/collections/", "")
	if id == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	result, err := h.store.GetResult(id)
	if err != nil {
		http.Error(w, "Result not found", http.StatusNotFound)
		return
	}
	writeJSON(w, result)
}

// GetCollectionErrors fetches errors recorded for one request
// @Summary Get collection errors
// @Description Retrieve every error recorded while processing a request
// @Tags collections
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]interface{} "Errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /collections/{id}/errors [get]
func (h *Handler) GetCollectionErrors(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/collections/", "/errors")
	if id == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	errs, err := h.store.GetErrors(id)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"requestID": id,
		"errors":    errs,
		"count":     len(errs),
	})
}

func pathParam(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return path[len(prefix) : len(path)-len(suffix)]
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
