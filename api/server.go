// Package api exposes the evaluation harness over HTTP: browsing eval
// definitions, starting runs, and reading run history and the leaderboard.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NiloCK/model-identity-eval/internal/config"
	"github.com/NiloCK/model-identity-eval/internal/store"
)

type Server struct {
	router *gin.Engine
	config *config.Config
	store  store.Store
}

// NewServer wires middleware and routes. The store backs run persistence
// and the leaderboard; providers are constructed per run request.
func NewServer(cfg *config.Config, st store.Store) (*Server, error) {
	r := gin.New()
	s := &Server{
		router: r,
		config: cfg,
		store:  st,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves until the listener fails. An empty addr falls back to the
// configured server address, then to :8080.
func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" && s.config != nil {
		addr = strings.TrimSpace(s.config.Server.Addr)
	}
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
