package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"galleria/internal/api"
	"galleria/internal/config"
	"galleria/internal/logging"
	"galleria/internal/services"
	"galleria/internal/statetracker"
	"galleria/internal/storage"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/galleries", srv.handleGalleries)
	mux.HandleFunc("/api/galleries/", srv.handleGallery)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
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

func (s *apiServer) handleGalleries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		views, err := s.daemon.ListGalleries(r.Context())
		if err != nil {
			s.writeOpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.GalleryListResponse{Galleries: views})
	case http.MethodPost:
		var req api.GalleryRegistration
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.daemon.RegisterGallery(r.Context(), req)
		if err != nil {
			s.writeOpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.GalleryResponse{Gallery: view})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleGallery(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/galleries/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "gallery not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.daemon.GetGallery(r.Context(), id)
		if err != nil {
			s.writeOpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.GalleryResponse{Gallery: view})
	case http.MethodPut:
		var req api.GalleryRegistration
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		view, err := s.daemon.UpdateGallery(r.Context(), id, req)
		if err != nil {
			s.writeOpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.GalleryResponse{Gallery: view})
	case http.MethodDelete:
		if err := s.daemon.RemoveGallery(r.Context(), id); err != nil {
			s.writeOpError(w, err)
			return
		}
		s.writeJSON(w, http.StatusNoContent, nil)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health := s.daemon.Health(r.Context())
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

// writeOpError maps daemon operation errors to HTTP status codes.
func (s *apiServer) writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, statetracker.ErrGalleryAlreadyExists),
		errors.Is(err, storage.ErrRegistrationExists):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, statetracker.ErrGalleryNotFound),
		errors.Is(err, storage.ErrRegistrationNotFound),
		errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, services.ErrExternalService):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
