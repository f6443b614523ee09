package api

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-data-concierge/docs"
	"go-data-concierge/internal/api/handler"
	"go-data-concierge/pkg/router"
)

// RegisterRoutes wires the collection API, swagger UI and metrics endpoint.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/collections", h.CreateCollection)
	r.GET("/api/v1/collections", h.ListCollections)
	// More specific routes first
	r.GET("/api/v1/collections/*/errors", h.GetCollectionErrors)
	r.GET("/api/v1/collections/*", h.GetCollection)

	r.Mount("/swagger/", httpSwagger.WrapHandler)
	r.Mount("/metrics", promhttp.Handler())
}
