// Package handler serves the agent's read-only HTTP surface.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	middlewareinternal "github.com/Schera-ole/monitors/internal/middleware"
	models "github.com/Schera-ole/monitors/internal/model"
	"github.com/Schera-ole/monitors/internal/repository"
)

// MonitorLister reports the loaded monitors and their metric names.
type MonitorLister interface {
	Monitors() map[string][]models.MetricName
}

func Router(
	storage repository.Repository,
	monitors MonitorLister,
	gatherer prometheus.Gatherer,
	logger *zap.SugaredLogger,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware("/metrics"))
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingHandler(w, r, storage, logger)
	})
	router.Get("/monitors", func(w http.ResponseWriter, r *http.Request) {
		MonitorsHandler(w, r, monitors)
	})
	router.Get("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		SnapshotHandler(w, r, storage, logger)
	})
	router.Get("/snapshot/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetMetricHandler(w, r, storage, logger)
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return router
}

func PingHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	if err := storage.Ping(r.Context()); err != nil {
		logger.Errorw("storage ping failed", "error", err)
		http.Error(w, "Storage unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func MonitorsHandler(w http.ResponseWriter, r *http.Request, monitors MonitorLister) {
	writeJSON(w, http.StatusOK, monitors.Monitors())
}

func SnapshotHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	stored, err := storage.ListMetrics(r.Context())
	if err != nil {
		logger.Errorw("cannot list metrics", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]models.MetricsDTO, 0, len(stored))
	for _, s := range stored {
		result = append(result, models.NewMetricsDTO(s.Monitor, s.Metric))
	}
	writeJSON(w, http.StatusOK, result)
}

func GetMetricHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	name := models.MetricName(chi.URLParam(r, "name"))
	if !name.Valid() {
		http.Error(w, "Unknown metric name", http.StatusBadRequest)
		return
	}
	stored, err := storage.GetMetric(r.Context(), name)
	if errors.Is(err, internalerrors.ErrMetricNotFound) {
		http.Error(w, "Metric not collected yet", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Errorw("cannot get metric", "metric", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMetricsDTO(stored.Monitor, stored.Metric))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
