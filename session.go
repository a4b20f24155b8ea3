package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.Config.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// getHub retrieves or creates the Hub for a session.
func (app *App) getHub(ctx context.Context, sessionID string) (*Hub, error) {
	app.SessionMutex.RLock()
	hub, exists := app.Sessions[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		return hub, nil
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if hub, exists := app.Sessions[sessionID]; exists {
		return hub, nil
	}
	hub, err := app.newHub()
	if err != nil {
		logWarn("%sFailed to create engine for session %s: %v", requestTag(ctx), sessionID, err)
		return nil, err
	}
	app.Sessions[sessionID] = hub
	logInfo("%sCreated engine for session: %s", requestTag(ctx), sessionID)
	return hub, nil
}

// sessionCount returns the number of live hubs.
func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}
