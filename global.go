package taskmanager

import (
	"context"
	"sync"

	"github.com/Swind/go-task-manager/core"
)

// =============================================================================
// Global Manager Helper (Singleton)
// =============================================================================

var (
	globalManager *core.Manager
	globalMu      sync.Mutex
)

// InitGlobalManager creates and starts the global manager with the given
// capacity. Calling it again while the global manager exists does nothing.
func InitGlobalManager(capacity int) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		return nil // Already initialized
	}

	cfg := core.DefaultConfig(capacity)
	cfg.Name = "global-manager"
	m, err := core.NewManager(cfg)
	if err != nil {
		return err
	}
	if err := m.Start(context.Background()); err != nil {
		return err
	}
	globalManager = m
	return nil
}

// GlobalManager returns the global manager instance.
// It panics if InitGlobalManager has not been called.
func GlobalManager() *core.Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("global manager not initialized. Call InitGlobalManager() first.")
	}
	return globalManager
}

// ShutdownGlobalManager stops the global manager and forgets it.
func ShutdownGlobalManager() core.DrainOutcome {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		return core.DrainedCompletely
	}
	outcome := globalManager.Stop()
	globalManager = nil
	return outcome
}
