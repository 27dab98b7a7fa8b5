package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"stylus/internal/api"
	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/metrics"
	"stylus/internal/queue"
)

// apiServer exposes daemon status, queue inspection, request intake, and
// Prometheus metrics over HTTP. It binds to cfg.Paths.APIBind; an empty bind
// disables the server entirely.
type apiServer struct {
	bind     string
	logger   *slog.Logger
	daemon   *Daemon
	queueSvc *api.QueueService
	metrics  *metrics.Pipeline

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:     bind,
		logger:   logger,
		daemon:   d,
		queueSvc: api.NewQueueService(d.store),
		metrics:  metrics.Default(),
	}

	r := chi.NewRouter()
	r.Use(metrics.RequestMiddleware(srv.metrics))
	r.Get("/healthz", srv.handleHealthz)
	r.Get("/metrics", srv.handleMetrics)
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(cfg.Paths.APIToken))
		r.Get("/status", srv.handleStatus)
		r.Get("/queue", srv.handleQueue)
		r.Get("/queue/{id}", srv.handleQueueItem)
		r.Post("/queue/{id}/retry", srv.handleQueueRetry)
		r.Post("/requests", srv.handleAddRequest)
	})

	srv.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics refreshes the queue depth gauges before every scrape so the
// exported values track the database rather than stage activity alone.
func (s *apiServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.Handler(func() {
		stats, err := s.daemon.store.Stats(r.Context())
		if err != nil {
			s.log().Warn("queue stats for metrics failed", logging.Error(err))
			return
		}
		for status, count := range stats {
			s.metrics.SetQueueItems(string(status), count)
		}
	}).ServeHTTP(w, r)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		LogPath:      s.daemon.LogPath(),
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		statuses = append(statuses, queue.Status(trimmed))
	}

	items, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseItemID(w, r)
	if !ok {
		return
	}
	item, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueItemResponse{Item: *item})
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseItemID(w, r)
	if !ok {
		return
	}
	result, err := api.RetryFailedItemsByID(r.Context(), &daemonQueueActions{daemon: s.daemon, queueSvc: s.queueSvc}, []int64{id})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(result.Items) == 1 && result.Items[0].Outcome == api.RetryItemNotFound {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// addRequestBody is the intake payload for POST /api/requests.
type addRequestBody struct {
	Query     string `json:"query"`
	Requester string `json:"requester"`
}

func (s *apiServer) handleAddRequest(w http.ResponseWriter, r *http.Request) {
	var body addRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	query := strings.TrimSpace(body.Query)
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	requester := strings.TrimSpace(body.Requester)
	if requester == "" {
		requester = "api"
	}

	result, err := api.AddTrack(r.Context(), api.AddTrackRequest{
		Config:    s.daemon.cfg,
		Store:     s.daemon.store,
		Logger:    s.log(),
		Query:     query,
		Requester: requester,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.Duplicate != nil {
		s.writeJSON(w, http.StatusConflict, api.QueueItemResponse{Item: api.FromQueueItem(result.Duplicate)})
		return
	}
	s.writeJSON(w, http.StatusCreated, api.QueueItemResponse{Item: api.FromQueueItem(result.Item)})
}

func (s *apiServer) parseItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return 0, false
	}
	return id, true
}

// daemonQueueActions adapts daemon queue operations to the per-item
// retry/stop helpers in the api package.
type daemonQueueActions struct {
	daemon   *Daemon
	queueSvc *api.QueueService
}

func (a *daemonQueueActions) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.queueSvc.Describe(ctx, id)
}

func (a *daemonQueueActions) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.daemon.RetryFailed(ctx, ids)
}

func (a *daemonQueueActions) Stop(ctx context.Context, ids []int64) (int64, error) {
	return a.daemon.StopQueueItems(ctx, ids)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
