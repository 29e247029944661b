package api

import (
	"errors"
	"os"
	"strings"
)

// registerRoutes mounts the /api group. Auth is closed by default: either
// IDENTITY_EVAL_API_KEY must be set or IDENTITY_EVAL_DISABLE_AUTH must
// explicitly opt out.
func (s *Server) registerRoutes() error {
	if s == nil || s.router == nil {
		return nil
	}

	api := s.router.Group("/api")
	apiKey := strings.TrimSpace(os.Getenv("IDENTITY_EVAL_API_KEY"))
	switch {
	case apiKey != "":
		api.Use(apiKeyAuthMiddleware(apiKey))
	case authDisabled():
		// Explicitly allow unauthenticated access.
	default:
		return errors.New("api: missing auth configuration: set IDENTITY_EVAL_API_KEY or set IDENTITY_EVAL_DISABLE_AUTH=1")
	}

	api.GET("/health", s.handleHealth)

	api.GET("/evals", s.handleListEvals)
	api.GET("/evals/:name", s.handleGetEval)

	api.POST("/runs", s.handleStartRun)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/runs/:id/cases", s.handleGetRunCases)

	api.GET("/leaderboard", s.handleGetLeaderboard)

	return nil
}

func authDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("IDENTITY_EVAL_DISABLE_AUTH")))
	return v == "1" || v == "true"
}
