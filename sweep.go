package main

import (
	"context"
	"time"

	"github.com/samber/lo"
)

// cleanupIdleSessions closes and forgets hubs untouched for longer than maxAge.
func (app *App) cleanupIdleSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	app.SessionMutex.Lock()
	expired := lo.PickBy(app.Sessions, func(_ string, h *Hub) bool {
		return h.LastAccess().Before(cutoff)
	})
	for id := range expired {
		delete(app.Sessions, id)
	}
	app.SessionMutex.Unlock()

	for id, h := range expired {
		h.Close()
		logInfo("Removed idle session: %s (idle: %v)", id, time.Since(h.LastAccess()).Round(time.Second))
	}
	if len(expired) > 0 {
		logInfo("Session cleanup completed: removed %d, %d remaining", len(expired), app.sessionCount())
	}
	return len(expired)
}

// runSweeper calls cleanupIdleSessions every interval until ctx is done.
func (app *App) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.cleanupIdleSessions(app.Config.SessionTimeout)
		}
	}
}

// closeAllSessions stops every engine, used at shutdown.
func (app *App) closeAllSessions() {
	app.SessionMutex.Lock()
	hubs := lo.Values(app.Sessions)
	app.Sessions = make(map[string]*Hub)
	app.SessionMutex.Unlock()
	for _, h := range hubs {
		h.Close()
	}
}
