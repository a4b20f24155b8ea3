package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHealth     = "/healthz"
	RouteState      = "/api/state"
	RouteModes      = "/api/modes"
	RouteStart      = "/api/start"
	RouteStop       = "/api/stop"
	RouteToggle     = "/api/toggle"
	RouteSelect     = "/api/select"
	RouteHover      = "/api/hover"
	RouteLeave      = "/api/leave"
	RouteDimensions = "/api/dimensions"
	RouteMode       = "/api/mode"
	RouteEvents     = "/api/events"
)

// Error message constants
const (
	ErrorTooManyRequests = "Too many requests. Please slow down."
	ErrorInvalidBody     = "Request body is not valid JSON for this route."
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
