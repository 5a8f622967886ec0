package app

import (
	"context"
	"time"

	mcpserver "invitopia/internal/mcp"
)

// ServeMCP runs the MCP server on stdin/stdout until the client
// disconnects, then saves pending edits.
func (a *App) ServeMCP(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	deps := mcpserver.Deps{Templates: a.Templates, Fonts: a.Fonts, Guests: a.Guests}
	// A typed nil would make the server think a library exists.
	if a.Images != nil {
		deps.Images = a.Images
	}
	srv := mcpserver.New(deps)

	serveErr := srv.ServeStdio()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		a.log.Error("shutdown", "err", err)
	}
	return serveErr
}
