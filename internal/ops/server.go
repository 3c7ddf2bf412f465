package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/database"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/logger"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/monitoring"
)

// Server is the internal ops listener. It stays off the public port and
// serves liveness, readiness and Prometheus metrics.
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	db      *database.DB
	health  *monitoring.HealthManager
	metrics *monitoring.MetricsCollector
	server  *http.Server
}

// NewServer creates a new ops server
func NewServer(cfg *config.Config, log *logger.Logger, db *database.DB, metrics *monitoring.MetricsCollector) *Server {
	health := monitoring.NewHealthManager("medicus-api", "1.0.0")
	health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))

	return &Server{
		config:  cfg,
		logger:  log,
		db:      db,
		health:  health,
		metrics: metrics,
	}
}

// Start begins serving on the ops port. Blocks until the listener stops.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc(s.config.Monitoring.HealthPath, s.handleHealth).Methods("GET")
	router.HandleFunc("/ready", s.handleReady).Methods("GET")
	router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.OpsPort)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithField("addr", addr).Info("Starting ops server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ops server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the ops listener
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.health.HTTPHandler()(w, r)
}

// handleReady reports whether the API can take traffic. Readiness is
// just the database ping today.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := s.db.Health(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "not_ready",
			"reason": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
