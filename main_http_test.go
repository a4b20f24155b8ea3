package main

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"schulte/internal/types"
)

func TestStateHandler_NewSession(t *testing.T) {
	ta := newTestApp(t, testConfig())
	w := ta.do(t, http.MethodGet, RouteState, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s returned status %d, want 200", RouteState, w.Code)
	}
	if ta.cookie == nil {
		t.Fatalf("expected %s cookie on first request", SessionCookieName)
	}
	view := decode[types.SessionView](t, w)
	if view.Active || view.Rows != 4 || view.Cols != 4 || view.Mode != "hover_game" {
		t.Errorf("initial view = %+v", view)
	}
	if view.Grid == nil || len(view.Grid) != 0 {
		t.Errorf("initial grid = %v, want empty", view.Grid)
	}
	if view.Target != 1 || view.Elapsed != "00:00.000" {
		t.Errorf("initial target/elapsed = %d/%s", view.Target, view.Elapsed)
	}
}

func TestSessionCookieReused(t *testing.T) {
	ta := newTestApp(t, testConfig())
	ta.do(t, http.MethodGet, RouteState, nil)
	ta.do(t, http.MethodPost, RouteStart, nil)
	ta.do(t, http.MethodGet, RouteState, nil)
	if n := ta.sessionCount(); n != 1 {
		t.Errorf("sessionCount = %d, want 1", n)
	}
}

func TestTapGameRunsToCompletion(t *testing.T) {
	ta := newTestApp(t, testConfig())
	w := ta.do(t, http.MethodPost, RouteStart, map[string]any{"rows": 2, "cols": 2, "mode": "tap_game"})
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s returned status %d: %s", RouteStart, w.Code, w.Body.String())
	}
	view := decode[types.SessionView](t, w)
	if !view.Active || view.Mode != "tap_game" || len(view.Grid) != 2 || len(view.Grid[0]) != 2 {
		t.Fatalf("started view = %+v", view)
	}

	want := []string{"advanced", "advanced", "advanced", "completed"}
	for n := 1; n <= 4; n++ {
		r, c := cellHolding(t, view.Grid, n)
		w = ta.do(t, http.MethodPost, RouteSelect, cellBody(r, c))
		if w.Code != http.StatusOK {
			t.Fatalf("select %d returned status %d: %s", n, w.Code, w.Body.String())
		}
		resp := decode[types.CellResponse](t, w)
		if resp.Outcome != want[n-1] {
			t.Errorf("select %d outcome = %s, want %s", n, resp.Outcome, want[n-1])
		}
		view = resp.Session
	}
	if view.Active || !view.Completed || view.DisplayTarget != 4 {
		t.Errorf("final view = %+v", view)
	}
}

func TestClickUpdateRegeneratesOnAdvance(t *testing.T) {
	ta := newTestApp(t, testConfig())
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, map[string]any{"mode": "click_update"}))
	for n := 1; n <= 16; n++ {
		r, c := cellHolding(t, view.Grid, n)
		resp := decode[types.CellResponse](t, ta.do(t, http.MethodPost, RouteSelect, cellBody(r, c)))
		if n < 16 && resp.Outcome != "advanced" {
			t.Fatalf("select %d outcome = %s, want advanced", n, resp.Outcome)
		}
		view = resp.Session
	}
	if !view.Completed || view.Active {
		t.Errorf("final view = %+v", view)
	}
}

func TestSelectMiss(t *testing.T) {
	ta := newTestApp(t, testConfig())
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, map[string]any{"mode": "tap_game"}))
	r, c := cellHolding(t, view.Grid, 2)
	resp := decode[types.CellResponse](t, ta.do(t, http.MethodPost, RouteSelect, cellBody(r, c)))
	if resp.Outcome != "missed" || resp.Session.Target != 1 {
		t.Errorf("miss = %s target %d, want missed target 1", resp.Outcome, resp.Session.Target)
	}
}

func TestSelectIgnoredInHoverGame(t *testing.T) {
	ta := newTestApp(t, testConfig())
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, nil))
	r, c := cellHolding(t, view.Grid, 1)
	resp := decode[types.CellResponse](t, ta.do(t, http.MethodPost, RouteSelect, cellBody(r, c)))
	if resp.Outcome != "ignored" || resp.Session.Target != 1 {
		t.Errorf("click in hover game = %s target %d", resp.Outcome, resp.Session.Target)
	}
}

func TestHoverAndLeave(t *testing.T) {
	ta := newTestApp(t, testConfig())
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, nil))

	r, c := cellHolding(t, view.Grid, 1)
	resp := decode[types.CellResponse](t, ta.do(t, http.MethodPost, RouteHover, cellBody(r, c)))
	if resp.Outcome != "advanced" {
		t.Fatalf("hover on target outcome = %s", resp.Outcome)
	}
	if h := resp.Session.Highlight; h == nil || h.Row != r || h.Col != c {
		t.Errorf("highlight = %+v, want (%d,%d)", h, r, c)
	}

	r, c = cellHolding(t, view.Grid, 3)
	resp = decode[types.CellResponse](t, ta.do(t, http.MethodPost, RouteHover, cellBody(r, c)))
	if resp.Outcome != "missed" || resp.Session.Highlight != nil {
		t.Errorf("hover off target = %s highlight %+v", resp.Outcome, resp.Session.Highlight)
	}

	r, c = cellHolding(t, view.Grid, 2)
	ta.do(t, http.MethodPost, RouteHover, cellBody(r, c))
	w := ta.do(t, http.MethodPost, RouteLeave, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s returned status %d", RouteLeave, w.Code)
	}
	if left := decode[types.SessionView](t, w); left.Highlight != nil || left.Target != 3 {
		t.Errorf("after leave highlight %+v target %d", left.Highlight, left.Target)
	}
}

func TestPeriodicModeAdvancesOnTimer(t *testing.T) {
	ta := newTestApp(t, testConfig())
	if w := ta.do(t, http.MethodPost, RouteMode, map[string]string{"mode": "update_3"}); w.Code != http.StatusOK {
		t.Fatalf("POST %s returned status %d: %s", RouteMode, w.Code, w.Body.String())
	}
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, map[string]any{"rows": 1, "cols": 2}))
	if view.Mode != "update_3" || !view.Active {
		t.Fatalf("started view = %+v", view)
	}

	ta.clock.Advance(3 * time.Second)
	view = decode[types.SessionView](t, ta.do(t, http.MethodGet, RouteState, nil))
	if view.Target != 2 || !view.Active {
		t.Errorf("after 3s target %d active %v, want 2 true", view.Target, view.Active)
	}

	ta.clock.Advance(3 * time.Second)
	view = decode[types.SessionView](t, ta.do(t, http.MethodGet, RouteState, nil))
	if view.Active || !view.Completed || view.Elapsed != "00:06.000" {
		t.Errorf("after 6s view = %+v", view)
	}
}

func TestDimensionsHandler(t *testing.T) {
	ta := newTestApp(t, testConfig())
	w := ta.do(t, http.MethodPost, RouteDimensions, map[string]int{"rows": 3, "cols": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s returned status %d: %s", RouteDimensions, w.Code, w.Body.String())
	}
	if view := decode[types.SessionView](t, w); view.Rows != 3 || view.Cols != 5 || view.Active {
		t.Errorf("idle resize view = %+v", view)
	}
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, nil))
	if len(view.Grid) != 3 || len(view.Grid[0]) != 5 {
		t.Errorf("grid after resize = %v, want 3x5", view.Grid)
	}
}

func TestDimensionsWhileRunningRegenerates(t *testing.T) {
	ta := newTestApp(t, testConfig())
	ta.do(t, http.MethodPost, RouteStart, nil)
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteDimensions, map[string]int{"rows": 2, "cols": 3}))
	if !view.Active || len(view.Grid) != 2 || len(view.Grid[0]) != 3 {
		t.Errorf("running resize view = %+v", view)
	}
}

func TestToggleAndStop(t *testing.T) {
	ta := newTestApp(t, testConfig())
	if view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteToggle, nil)); !view.Active {
		t.Errorf("first toggle left session idle")
	}
	ta.clock.Advance(1500 * time.Millisecond)
	view := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteToggle, nil))
	if view.Active || view.Elapsed != "00:01.500" {
		t.Errorf("second toggle view = %+v", view)
	}
	ta.clock.Advance(time.Second)
	w := ta.do(t, http.MethodPost, RouteStop, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST %s on idle session returned status %d", RouteStop, w.Code)
	}
	if view := decode[types.SessionView](t, w); view.ElapsedMs != 1500 {
		t.Errorf("elapsed after idle stop = %d ms, want frozen 1500", view.ElapsedMs)
	}
}

func TestErrorResponses(t *testing.T) {
	cases := []struct {
		name   string
		start  bool
		path   string
		body   any
		status int
		code   string
	}{
		{"select before start", false, RouteSelect, cellBody(0, 0), http.StatusBadRequest, "INVALID_COORDINATES"},
		{"select outside grid", true, RouteSelect, cellBody(4, 0), http.StatusBadRequest, "INVALID_COORDINATES"},
		{"hover negative", true, RouteHover, cellBody(0, -1), http.StatusBadRequest, "INVALID_COORDINATES"},
		{"select missing col", true, RouteSelect, map[string]int{"row": 1}, http.StatusBadRequest, "BAD_REQUEST"},
		{"start too large", false, RouteStart, map[string]int{"rows": 11}, http.StatusBadRequest, "INVALID_DIMENSIONS"},
		{"start zero cols", false, RouteStart, map[string]int{"cols": 0}, http.StatusBadRequest, "INVALID_DIMENSIONS"},
		{"start unknown mode", false, RouteStart, map[string]string{"mode": "speedrun"}, http.StatusBadRequest, "INVALID_MODE"},
		{"start malformed", false, RouteStart, "not an object", http.StatusBadRequest, "BAD_REQUEST"},
		{"dimensions zero", false, RouteDimensions, map[string]int{"rows": 0, "cols": 3}, http.StatusBadRequest, "INVALID_DIMENSIONS"},
		{"mode unknown", false, RouteMode, map[string]string{"mode": "update_7"}, http.StatusBadRequest, "INVALID_MODE"},
		{"mode missing", false, RouteMode, map[string]string{}, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ta := newTestApp(t, testConfig())
			if tc.start {
				ta.do(t, http.MethodPost, RouteStart, nil)
			}
			w := ta.do(t, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			resp := decode[types.ErrorResponse](t, w)
			if resp.Code != tc.code || resp.Error == "" {
				t.Errorf("error response = %+v, want code %s", resp, tc.code)
			}
		})
	}
}

func TestClosedSessionReturnsNotFound(t *testing.T) {
	ta := newTestApp(t, testConfig())
	ta.do(t, http.MethodGet, RouteState, nil)
	hub, err := ta.getHub(context.Background(), ta.cookie.Value)
	if err != nil {
		t.Fatalf("getHub: %v", err)
	}
	hub.Close()

	for _, path := range []string{RouteStart, RouteToggle} {
		w := ta.do(t, http.MethodPost, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("POST %s on closed hub returned %d, want 404", path, w.Code)
		}
		if resp := decode[types.ErrorResponse](t, w); resp.Code != "SESSION_NOT_FOUND" {
			t.Errorf("POST %s code = %q", path, resp.Code)
		}
	}
	if w := ta.do(t, http.MethodGet, RouteState, nil); w.Code != http.StatusNotFound {
		t.Errorf("GET %s on closed hub returned %d, want 404", RouteState, w.Code)
	}
	if ta.clock.Pending() != 0 {
		t.Errorf("timers started on a closed hub: %d", ta.clock.Pending())
	}
}

func TestInvalidStartKeepsRunningSession(t *testing.T) {
	ta := newTestApp(t, testConfig())
	before := decode[types.SessionView](t, ta.do(t, http.MethodPost, RouteStart, nil))
	ta.do(t, http.MethodPost, RouteStart, map[string]int{"rows": 99})
	after := decode[types.SessionView](t, ta.do(t, http.MethodGet, RouteState, nil))
	if !after.Active || after.Rows != before.Rows {
		t.Errorf("invalid restart changed session: %+v", after)
	}
}

func TestErrorMetadata(t *testing.T) {
	ta := newTestApp(t, testConfig())
	resp := decode[types.ErrorResponse](t, ta.do(t, http.MethodPost, RouteDimensions, map[string]int{"rows": 12, "cols": 2}))
	if resp.Metadata["rows"] != "12" || resp.Metadata["max_rows"] != "10" {
		t.Errorf("metadata = %v", resp.Metadata)
	}
}

func TestModesHandler(t *testing.T) {
	ta := newTestApp(t, testConfig())
	w := ta.do(t, http.MethodGet, RouteModes, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s returned status %d", RouteModes, w.Code)
	}
	var resp struct {
		Modes   []types.ModeInfo `json:"modes"`
		Default string           `json:"default"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Modes) != 7 || resp.Default != "hover_game" {
		t.Errorf("modes = %+v default %q", resp.Modes, resp.Default)
	}
	for _, m := range resp.Modes {
		if strings.HasPrefix(m.Key, "update_") && m.IntervalMs == 0 {
			t.Errorf("periodic mode %s has no interval", m.Key)
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 3
	ta := newTestApp(t, cfg)
	for i := 0; i < 3; i++ {
		if w := ta.do(t, http.MethodPost, RouteStop, nil); w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := ta.do(t, http.MethodPost, RouteStop, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("4th request: expected 429 Too Many Requests, got %d", w.Code)
	}
	if resp := decode[types.ErrorResponse](t, w); resp.Code != "RATE_LIMITED" {
		t.Errorf("rate limit code = %q", resp.Code)
	}
	if w := ta.do(t, http.MethodGet, RouteState, nil); w.Code != http.StatusOK {
		t.Errorf("GET should not be rate limited, got %d", w.Code)
	}
}

func TestHealthHandlerFields(t *testing.T) {
	ta := newTestApp(t, testConfig())
	ta.do(t, http.MethodGet, RouteState, nil)
	w := ta.do(t, http.MethodGet, RouteHealth, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s returned status %d, want 200", RouteHealth, w.Code)
	}
	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["env"] != "development" {
		t.Errorf("health = %v", resp)
	}
	if resp["sessions"] != float64(1) {
		t.Errorf("sessions = %v, want 1", resp["sessions"])
	}
	for _, field := range []string{"uptime", "timestamp"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("health response missing %q", field)
		}
	}
}

func TestResponseHeaders(t *testing.T) {
	ta := newTestApp(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, RouteState, nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want req-123", got)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}

func TestGzipCompressesAPI(t *testing.T) {
	ta := newTestApp(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, RouteModes, nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip Content-Encoding for %s", RouteModes)
	}
	r, err := gzip.NewReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if !strings.Contains(string(body), "hover_game") {
		t.Errorf("decompressed body = %q", body)
	}
}

func TestGzipSkipsEventStreamPath(t *testing.T) {
	ta := newTestApp(t, testConfig())
	srv := httptest.NewServer(ta.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+RouteEvents, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", RouteEvents, err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Encoding") == "gzip" {
		t.Errorf("Did not expect gzip Content-Encoding for %s", RouteEvents)
	}
}

// readEvent returns the next SSE event name and data line.
func readEvent(t *testing.T, sc *bufio.Scanner) (string, string) {
	t.Helper()
	var name, data string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && name != "":
			return name, data
		}
	}
	t.Fatalf("event stream ended: %v", sc.Err())
	return "", ""
}

func TestEventsHandlerStreams(t *testing.T) {
	ta := newTestApp(t, testConfig())
	srv := httptest.NewServer(ta.router)
	defer srv.Close()

	ta.do(t, http.MethodGet, RouteState, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+RouteEvents, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.AddCookie(ta.cookie)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", RouteEvents, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	name, data := readEvent(t, sc)
	if name != "state" {
		t.Fatalf("first event = %q, want state", name)
	}
	var view types.SessionView
	if err := json.Unmarshal([]byte(data), &view); err != nil || view.Active {
		t.Fatalf("state event = %q (%v)", data, err)
	}

	if w := ta.do(t, http.MethodPost, RouteStart, map[string]any{"mode": "tap_game"}); w.Code != http.StatusOK {
		t.Fatalf("start returned %d", w.Code)
	}
	name, data = readEvent(t, sc)
	if name != "session_started" {
		t.Fatalf("event after start = %q, want session_started", name)
	}
	var ev types.EventView
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Target != 1 || len(ev.Grid) != 4 {
		t.Errorf("session_started event = %+v", ev)
	}

	ta.do(t, http.MethodPost, RouteStop, nil)
	if name, _ = readEvent(t, sc); name != "session_stopped" {
		t.Errorf("event after stop = %q, want session_stopped", name)
	}
}
