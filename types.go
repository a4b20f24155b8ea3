package main

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"schulte/internal/clock"
	"schulte/internal/config"
	"schulte/internal/grid"
)

type contextKey string

// App holds the server state: one Hub per browser session plus the per-client
// rate limiters.
type App struct {
	Config       config.Config
	IsProduction bool
	StartTime    time.Time

	Sessions     map[string]*Hub
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	// NewClock and NewRand build the timing and randomness of each new hub.
	NewClock func(clock.Dispatcher) clock.Clock
	NewRand  func() (*rand.Rand, error)
}

// newApp wires an App for cfg with real clocks and crypto-seeded shuffles.
func newApp(cfg config.Config) *App {
	return &App{
		Config:       cfg,
		IsProduction: cfg.IsProduction(),
		StartTime:    time.Now(),
		Sessions:     make(map[string]*Hub),
		LimiterMap:   make(map[string]*rate.Limiter),
		NewClock: func(d clock.Dispatcher) clock.Clock {
			return clock.NewSystem(d)
		},
		NewRand: grid.NewSeededRand,
	}
}
