package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/backend"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/browser"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/health"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/reconciler"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/redirect"
)

// APIHandler is a custom handler type that returns data or an error
type APIHandler func(w http.ResponseWriter, r *http.Request) (interface{}, error)

type Server struct {
	config     *Config
	controller *reconciler.Controller
	observer   *redirect.Observer
	backend    *backend.Client
	guard      *browser.Guard
	health     *health.Checker
	httpServer *http.Server
	ctx        context.Context
	log        *slog.Logger
}

type Config struct {
	ListenAddr   string
	ListenPort   int
	MetricsPort  int
	ProbesPort   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	ID           string
}

func NewServer(config *Config, controller *reconciler.Controller,
	observer *redirect.Observer, backendClient *backend.Client,
	guard *browser.Guard, checker *health.Checker) *Server {

	return &Server{
		config:     config,
		controller: controller,
		observer:   observer,
		backend:    backendClient,
		guard:      guard,
		health:     checker,
		log:        slog.With("pod", config.ID, "component", "web-server"),
		httpServer: &http.Server{
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

func (s *Server) StartProbesAndMetrics() {
	// Expose Prometheus metrics
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		slog.Info("Serving metrics", "port", s.config.MetricsPort)

		addr := fmt.Sprintf(":%d", s.config.MetricsPort)
		slog.Error("Prometheus HTTP listener failed", "error",
			http.ListenAndServe(addr, nil))
	}()

	// Expose health probes
	go func() {
		http.Handle("/health", WithMethod(
			WithJSONResponse(s.HealthHandler),
			http.MethodGet,
		))

		http.Handle("/ready", WithMethod(
			WithJSONResponse(s.ReadinessHandler),
			http.MethodGet,
		))

		slog.Info("Serving health probes", "port", s.config.ProbesPort)

		addr := fmt.Sprintf(":%d", s.config.ProbesPort)
		slog.Error("Health checks HTTP listener failed", "error",
			http.ListenAndServe(addr, nil))
	}()
}

func (s *Server) Start(ctx context.Context, stop <-chan os.Signal) {
	s.ctx = ctx

	s.StartProbesAndMetrics()

	mux := http.NewServeMux()

	// The provider-facing redirect intake; everything else is app-facing.
	mux.HandleFunc("/payment/callback", WithRequestID(WithMethod(
		WithJSONResponse(s.CallbackHandler),
		http.MethodGet,
	)))

	mux.HandleFunc("/payment/initiate", WithRequestID(WithMethod(
		WithJSONResponse(s.InitiateHandler),
		http.MethodPost,
	)))

	mux.HandleFunc("/payment/retry", WithRequestID(WithMethod(
		WithJSONResponse(s.RetryHandler),
		http.MethodPost,
	)))

	mux.HandleFunc("/payment/abandon", WithRequestID(WithMethod(
		WithJSONResponse(s.AbandonHandler),
		http.MethodPost,
	)))

	mux.HandleFunc("/payment/cancel", WithRequestID(WithMethod(
		WithJSONResponse(s.CancelHandler),
		http.MethodPost,
	)))

	mux.HandleFunc("/payment/resume", WithRequestID(WithMethod(
		WithJSONResponse(s.ResumeHandler),
		http.MethodPost,
	)))

	mux.HandleFunc("/payment/status", WithRequestID(WithMethod(
		WithJSONResponse(s.StatusHandler),
		http.MethodGet,
	)))

	mux.HandleFunc("/payment/navigation-policy", WithRequestID(WithMethod(
		WithJSONResponse(s.NavigationPolicyHandler),
		http.MethodGet,
	)))

	s.httpServer.Handler = http.TimeoutHandler(mux, s.config.WriteTimeout, "Timeout")

	go s.run(ctx)

	<-stop

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exiting")
}

func (s *Server) run(ctx context.Context) {
	slog.Info("Starting server", "port", s.config.ListenPort)

	// Use ListenConfig to create a listener with context support
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.config.ListenAddr, s.config.ListenPort))
	if err != nil {
		slog.Error("Error creating listener", "error", err)
	}
	defer listener.Close()

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		slog.Error("Could not start server", "error", err.Error())
	}
}

// sessionContext is the long-lived context payment sessions run on; request
// contexts die when the response is written, the expiry countdown must not.
func (s *Server) sessionContext() context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return context.Background()
}
