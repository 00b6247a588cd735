// Package server provides an importable dimdim converter HTTP server.
// The e2e suite starts it on a random port; cmd/dimdim runs it standalone.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
	"gopkg.in/yaml.v3"

	"github.com/thesyncim/dimdim/internal/logging"
	"github.com/thesyncim/dimdim/pkg/converter"
)

// Config holds server configuration options.
type Config struct {
	Addr         string               `yaml:"addr"`                             // Listen address (e.g., ":8000" or ":0" for random port)
	ReadTimeout  time.Duration        `yaml:"read_timeout" validate:"gte=0"`    // HTTP read timeout
	WriteTimeout time.Duration        `yaml:"write_timeout" validate:"gte=0"`   // HTTP write timeout
	Rates        converter.RateTable  `yaml:"rates"`                            // Exchange rates, 1:1 by default
	Currencies   []converter.Currency `yaml:"currencies" validate:"min=2,dive"` // Dropdown options, in order
}

// DefaultConfig returns a configuration suitable for testing.
// Uses ":0" to bind to a random available port.
func DefaultConfig() Config {
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Rates:        converter.DefaultRateTable(),
		Currencies:   append([]converter.Currency(nil), converter.DefaultCurrencies...),
	}
}

// LoadConfig reads a YAML file over DefaultConfig. DIMDIM_ADDR overrides
// the listen address. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	return LoadConfigOver(DefaultConfig(), path)
}

// LoadConfigOver is LoadConfig starting from base instead of DefaultConfig.
// Keys absent from the file and the environment keep base's values.
func LoadConfigOver(base Config, path string) (Config, error) {
	cfg := base
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read server config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse server config %s: %w", path, err)
		}
	}
	if addr := os.Getenv("DIMDIM_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	return cfg, cfg.Validate()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every offered currency has a rate.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	for _, cur := range c.Currencies {
		if _, ok := c.Rates.Rates[cur.Code]; !ok {
			return fmt.Errorf("invalid server config: currency %s has no rate", cur.Code)
		}
	}
	return nil
}

// Server is an importable HTTP server for the converter page.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	logger     *log.Logger
	mu         sync.Mutex
	running    bool
	done       chan struct{}
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.Get()
	h := newHandler(cfg, logger)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.logRequests)
	router.Get("/", h.handlePage)
	router.Get("/convert", h.handleConvert)
	router.Get("/healthz", h.handleHealthz)
	router.Method(http.MethodGet, "/metrics", h.metrics.handler())

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer: httpServer,
		logger:     logger,
	}, nil
}

// Handler exposes the router for in-process testing with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("addr", ln.Addr().String()).Msg("converter server stopped")
		}
	}(s.done)

	s.logger.Info().Str("addr", s.addr).Msg("converter server listening")
	return s.addr, nil
}

// Done is closed when the serve loop exits. It is nil before Start.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns a browsable http URL for the listening address, using
// localhost for wildcard hosts.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
