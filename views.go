package main

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"schulte/internal/grid"
	"schulte/internal/session"
	"schulte/internal/types"
)

// sessionView converts an engine snapshot for the wire. A completed session
// displays the last number rather than the past-the-end target.
func sessionView(s session.State) types.SessionView {
	display := s.Target
	if s.Completed {
		display = s.Rows * s.Cols
	}
	return types.SessionView{
		Active:        s.Active,
		Mode:          s.Mode.Key(),
		Rows:          s.Rows,
		Cols:          s.Cols,
		Target:        s.Target,
		DisplayTarget: display,
		Completed:     s.Completed,
		Elapsed:       formatElapsed(s.Elapsed),
		ElapsedMs:     s.Elapsed.Milliseconds(),
		StartedAt:     s.StartedAt,
		Highlight:     cellRef(s.Highlight),
		Grid:          gridRows(s.Layout),
	}
}

func eventView(e session.Event) types.EventView {
	ev := types.EventView{
		Type:       e.Kind.String(),
		Generation: e.Generation,
	}
	switch e.Kind {
	case session.EventSessionStarted:
		ev.Target = e.Target
		ev.Grid = gridRows(e.Layout)
	case session.EventGridRegenerated:
		ev.Grid = gridRows(e.Layout)
	case session.EventTargetAdvanced:
		ev.Target = e.Target
	case session.EventSessionCompleted, session.EventSessionStopped, session.EventElapsedUpdated:
		ev.Elapsed = formatElapsed(e.Elapsed)
		ev.ElapsedMs = e.Elapsed.Milliseconds()
	case session.EventHighlightChanged:
		ev.Highlight = cellRef(e.Highlight)
	}
	return ev
}

func modeInfos() []types.ModeInfo {
	return lo.Map(session.Modes(), func(m session.Mode, _ int) types.ModeInfo {
		return types.ModeInfo{
			Key:        m.Key(),
			Kind:       m.Kind().String(),
			IntervalMs: m.Interval().Milliseconds(),
		}
	})
}

func gridRows(l grid.Layout) [][]int {
	if l.IsZero() {
		return [][]int{}
	}
	return l.Matrix()
}

func cellRef(c *grid.Cell) *types.CellRef {
	if c == nil {
		return nil
	}
	return &types.CellRef{Row: c.Row, Col: c.Col}
}

// formatElapsed renders a duration as MM:SS.mmm.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
