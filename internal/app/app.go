// Package app wires the application together: configuration, database,
// Genkit, stores, toolsets, the chat agent, and the HTTP server.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attuneapp/attune/internal/api"
	"github.com/attuneapp/attune/internal/chat"
	"github.com/attuneapp/attune/internal/config"
	"github.com/attuneapp/attune/internal/log"
)

// App holds every long-lived component. Construct with Setup; call
// Close when shutting down.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	DBPool   *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Agent    *chat.Agent
	Server   *api.Server

	dbCleanup func()
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
