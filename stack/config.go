package stack

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gammadia/furnace/state"
)

type Config struct {
	Logger *slog.Logger `json:"-"`
	Store  state.Store  `json:"-"`

	// ConcurrentResources caps how many resources of one stack operation
	// are in flight at once.
	ConcurrentResources int `json:"concurrent-resources"`
	// PollInterval is the cadence of check-complete polling.
	PollInterval time.Duration `json:"poll-interval"`
	// ResourceTimeout bounds a single resource action, polling included.
	ResourceTimeout time.Duration `json:"resource-timeout"`
	// RollbackOnFailure deletes the resources a failed create walk
	// managed to build, in reverse order.
	RollbackOnFailure bool `json:"rollback-on-failure"`
}

func Validate(config Config) error {
	if config.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if config.Store == nil {
		return fmt.Errorf("store is required")
	}
	if config.ConcurrentResources < 1 {
		return fmt.Errorf("concurrent-resources must be at least 1")
	}
	if config.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	if config.ResourceTimeout <= 0 {
		return fmt.Errorf("resource-timeout must be positive")
	}
	return nil
}
