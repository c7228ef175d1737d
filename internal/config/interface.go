package config

import (
	"context"
)

// Loader is the interface for a format-specific bundle description loader.
type Loader interface {
	// Load reads every description found under paths, evaluates it with the
	// given variables and translates it into the format-agnostic model.
	Load(ctx context.Context, vars map[string]string, paths ...string) (*Model, error)
}
