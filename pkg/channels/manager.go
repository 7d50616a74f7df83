package channels

import (
	"context"

	"github.com/sintia-bot/sintia/pkg/logger"
)

// Adapter is one transport's lifecycle.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts and stops the configured transport adapters together.
type Manager struct {
	adapters []Adapter
}

func NewManager(adapters ...Adapter) *Manager {
	return &Manager{adapters: adapters}
}

// StartAll starts every adapter, stopping the already-started ones when
// a later one fails.
func (m *Manager) StartAll(ctx context.Context) error {
	for i, adapter := range m.adapters {
		if err := adapter.Start(ctx); err != nil {
			logger.ErrorCF("channels", "Failed to start adapter", map[string]any{
				"adapter": adapter.Name(),
				"error":   err.Error(),
			})
			for _, started := range m.adapters[:i] {
				if stopErr := started.Stop(ctx); stopErr != nil {
					logger.WarnCF("channels", "Failed to stop adapter", map[string]any{
						"adapter": started.Name(),
						"error":   stopErr.Error(),
					})
				}
			}
			return err
		}
	}
	return nil
}

// StopAll stops every adapter, continuing past failures.
func (m *Manager) StopAll(ctx context.Context) {
	for _, adapter := range m.adapters {
		if err := adapter.Stop(ctx); err != nil {
			logger.WarnCF("channels", "Failed to stop adapter", map[string]any{
				"adapter": adapter.Name(),
				"error":   err.Error(),
			})
		}
	}
}
