package store

import (
	"fmt"
	"strings"

	"github.com/NiloCK/model-identity-eval/internal/config"
)

const DefaultSQLitePath = "data/identity-eval.db"

// Open builds the run history store from the harness config.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: missing config")
	}

	path := strings.TrimSpace(cfg.Storage.Path)
	if path == "" {
		path = DefaultSQLitePath
	}
	return NewSQLiteStore(path)
}
