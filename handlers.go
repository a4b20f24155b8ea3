package main

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"schulte/internal/apperr"
	"schulte/internal/session"
	"schulte/internal/types"
)

// hubFor resolves the caller's hub, responding with an error when it cannot.
func (app *App) hubFor(c *gin.Context) (*Hub, bool) {
	sessionID := app.getOrCreateSession(c)
	hub, err := app.getHub(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return hub, true
}

// sessionAction runs fn on the caller's engine and responds with the
// resulting session view.
func (app *App) sessionAction(c *gin.Context, fn func(*session.Controller) error) {
	hub, ok := app.hubFor(c)
	if !ok {
		return
	}
	var view types.SessionView
	err := hub.Do(func(ctrl *session.Controller) error {
		if err := fn(ctrl); err != nil {
			return err
		}
		view = sessionView(ctrl.Snapshot())
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// cellAction binds a cell request and feeds it to one of the engine's
// pointer inputs.
func (app *App) cellAction(c *gin.Context, input func(*session.Controller, int, int) (session.Outcome, error)) {
	var req types.CellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeBadRequest, ErrorInvalidBody, err))
		return
	}
	hub, ok := app.hubFor(c)
	if !ok {
		return
	}
	var resp types.CellResponse
	err := hub.Do(func(ctrl *session.Controller) error {
		out, err := input(ctrl, *req.Row, *req.Col)
		if err != nil {
			return err
		}
		resp = types.CellResponse{Outcome: out.String(), Session: sessionView(ctrl.Snapshot())}
		if out == session.OutcomeCompleted {
			logInfo("%sSession completed %dx%d in %s", requestTag(c.Request.Context()), resp.Session.Rows, resp.Session.Cols, resp.Session.Elapsed)
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// stateHandler returns the caller's session view.
func (app *App) stateHandler(c *gin.Context) {
	hub, ok := app.hubFor(c)
	if !ok {
		return
	}
	view, err := hub.View()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// modesHandler lists the selectable modes.
func (app *App) modesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"modes":   modeInfos(),
		"default": app.Config.DefaultMode.Key(),
	})
}

// startHandler starts (or restarts) a session. Omitted fields keep the
// current rows, cols and mode.
func (app *App) startHandler(c *gin.Context) {
	var req types.StartRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.Wrap(apperr.CodeBadRequest, ErrorInvalidBody, err))
			return
		}
	}
	app.sessionAction(c, func(ctrl *session.Controller) error {
		snap := ctrl.Snapshot()
		rows, cols, mode := snap.Rows, snap.Cols, snap.Mode
		if req.Rows != nil {
			rows = *req.Rows
		}
		if req.Cols != nil {
			cols = *req.Cols
		}
		if req.Mode != "" {
			m, err := session.ParseMode(req.Mode)
			if err != nil {
				return err
			}
			mode = m
		}
		if err := ctrl.Start(rows, cols, mode); err != nil {
			return err
		}
		logInfo("%sSession started %dx%d mode=%s", requestTag(c.Request.Context()), rows, cols, mode.Key())
		return nil
	})
}

func (app *App) stopHandler(c *gin.Context) {
	app.sessionAction(c, func(ctrl *session.Controller) error {
		ctrl.Stop()
		return nil
	})
}

func (app *App) toggleHandler(c *gin.Context) {
	app.sessionAction(c, func(ctrl *session.Controller) error {
		return ctrl.Toggle()
	})
}

func (app *App) selectHandler(c *gin.Context) {
	app.cellAction(c, (*session.Controller).SelectCell)
}

func (app *App) hoverHandler(c *gin.Context) {
	app.cellAction(c, (*session.Controller).PointerEntered)
}

func (app *App) leaveHandler(c *gin.Context) {
	app.sessionAction(c, func(ctrl *session.Controller) error {
		ctrl.PointerLeft()
		return nil
	})
}

func (app *App) dimensionsHandler(c *gin.Context) {
	var req types.DimensionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeBadRequest, ErrorInvalidBody, err))
		return
	}
	app.sessionAction(c, func(ctrl *session.Controller) error {
		return ctrl.ChangeDimensions(req.Rows, req.Cols)
	})
}

func (app *App) modeHandler(c *gin.Context) {
	var req types.ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeBadRequest, ErrorInvalidBody, err))
		return
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	app.sessionAction(c, func(ctrl *session.Controller) error {
		return ctrl.SetMode(mode)
	})
}

// eventsHandler streams engine notifications as server-sent events, starting
// with a "state" event holding the full session view.
func (app *App) eventsHandler(c *gin.Context) {
	hub, ok := app.hubFor(c)
	if !ok {
		return
	}
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	view, err := hub.View()
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("state", view)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"env":       map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"sessions":  app.sessionCount(),
		"uptime":    formatUptime(uptime),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
