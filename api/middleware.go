package api

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerMiddleware() {
	if s == nil || s.router == nil {
		return
	}
	s.router.Use(gin.Logger(), gin.Recovery(), corsMiddleware())
}

// corsMiddleware reads IDENTITY_EVAL_CORS_ORIGINS, a comma-separated
// origin allowlist ("*" allows everything). With no configured origins no
// CORS headers are emitted at all.
func corsMiddleware() gin.HandlerFunc {
	raw := strings.TrimSpace(os.Getenv("IDENTITY_EVAL_CORS_ORIGINS"))
	if raw == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	allowAll := false
	allowed := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			allowed = nil
			break
		}
		allowed[origin] = struct{}{}
	}
	if !allowAll && len(allowed) == 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin != "" {
			ok := allowAll
			if !ok && allowed != nil {
				_, ok = allowed[origin]
			}

			if ok {
				if allowAll {
					c.Header("Access-Control-Allow-Origin", "*")
				} else {
					c.Header("Access-Control-Allow-Origin", origin)
					c.Header("Vary", "Origin")
				}
				c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
				c.Header("Access-Control-Max-Age", "3600")
			}

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

// apiKeyAuthMiddleware rejects requests whose X-API-Key header does not
// match the configured key. Comparison is constant-time; CORS preflights
// pass through unauthenticated.
func apiKeyAuthMiddleware(expected string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(expected))
	if len(want) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		got := []byte(strings.TrimSpace(c.GetHeader("X-API-Key")))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
