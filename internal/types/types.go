package types

import "time"

type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type SessionView struct {
	Active        bool      `json:"active"`
	Mode          string    `json:"mode"`
	Rows          int       `json:"rows"`
	Cols          int       `json:"cols"`
	Target        int       `json:"target"`
	DisplayTarget int       `json:"displayTarget"`
	Completed     bool      `json:"completed"`
	Elapsed       string    `json:"elapsed"`
	ElapsedMs     int64     `json:"elapsedMs"`
	StartedAt     time.Time `json:"startedAt,omitzero"`
	Highlight     *CellRef  `json:"highlight,omitempty"`
	Grid          [][]int   `json:"grid"`
}

type EventView struct {
	Type       string   `json:"type"`
	Generation uint64   `json:"generation"`
	Target     int      `json:"target,omitempty"`
	Elapsed    string   `json:"elapsed,omitempty"`
	ElapsedMs  int64    `json:"elapsedMs,omitempty"`
	Grid       [][]int  `json:"grid,omitempty"`
	Highlight  *CellRef `json:"highlight,omitempty"`
}

type ModeInfo struct {
	Key        string `json:"key"`
	Kind       string `json:"kind"`
	IntervalMs int64  `json:"intervalMs,omitempty"`
}

type StartRequest struct {
	Rows *int   `json:"rows"`
	Cols *int   `json:"cols"`
	Mode string `json:"mode"`
}

type CellRequest struct {
	Row *int `json:"row" binding:"required"`
	Col *int `json:"col" binding:"required"`
}

type DimensionsRequest struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type CellResponse struct {
	Outcome string      `json:"outcome"`
	Session SessionView `json:"session"`
}

type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
