package session

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"schulte/internal/apperr"
)

// Kind names the rule set of a Mode.
type Kind int

const (
	KindUnspecified Kind = iota
	KindClickUpdate
	KindTapGame
	KindHoverGame
	KindPeriodicAdvance
	KindSimple
)

func (k Kind) String() string {
	switch k {
	case KindClickUpdate:
		return "ClickUpdate"
	case KindTapGame:
		return "TapGame"
	case KindHoverGame:
		return "HoverGame"
	case KindPeriodicAdvance:
		return "PeriodicAdvance"
	case KindSimple:
		return "Simple"
	default:
		return "Unspecified"
	}
}

// Trigger is the event source that may advance the target in a mode.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerClick
	TriggerHover
	TriggerTimer
)

// Mode is one of the closed set of game modes. The zero value is invalid.
type Mode struct {
	kind     Kind
	interval time.Duration
}

var (
	ClickUpdate = Mode{kind: KindClickUpdate}
	TapGame     = Mode{kind: KindTapGame}
	HoverGame   = Mode{kind: KindHoverGame}
	Simple      = Mode{kind: KindSimple}

	Update3  = Mode{kind: KindPeriodicAdvance, interval: 3 * time.Second}
	Update5  = Mode{kind: KindPeriodicAdvance, interval: 5 * time.Second}
	Update10 = Mode{kind: KindPeriodicAdvance, interval: 10 * time.Second}
)

type modeEntry struct {
	key  string
	mode Mode
}

// Display order of the mode picker.
var modeTable = []modeEntry{
	{"click_update", ClickUpdate},
	{"tap_game", TapGame},
	{"hover_game", HoverGame},
	{"update_3", Update3},
	{"update_5", Update5},
	{"update_10", Update10},
	{"simple_mode", Simple},
}

// PeriodicAdvance returns the auto-advance mode for interval, which must be
// 3s, 5s or 10s.
func PeriodicAdvance(interval time.Duration) (Mode, error) {
	m, ok := lo.Find(modeTable, func(e modeEntry) bool {
		return e.mode.kind == KindPeriodicAdvance && e.mode.interval == interval
	})
	if !ok {
		return Mode{}, apperr.WithMetadata(apperr.CodeInvalidMode,
			fmt.Sprintf("unsupported auto-advance interval %s", interval),
			map[string]string{"interval": interval.String()})
	}
	return m.mode, nil
}

// ParseMode resolves a mode key such as "hover_game" or "update_5".
func ParseMode(key string) (Mode, error) {
	m, ok := lo.Find(modeTable, func(e modeEntry) bool { return e.key == key })
	if !ok {
		return Mode{}, apperr.WithMetadata(apperr.CodeInvalidMode,
			fmt.Sprintf("unknown mode %q", key),
			map[string]string{"mode": key})
	}
	return m.mode, nil
}

// Modes lists every mode in display order.
func Modes() []Mode {
	return lo.Map(modeTable, func(e modeEntry, _ int) Mode { return e.mode })
}

// Kind returns the rule set.
func (m Mode) Kind() Kind { return m.kind }

// Interval returns the auto-advance interval, zero outside PeriodicAdvance.
func (m Mode) Interval() time.Duration { return m.interval }

// IsZero reports whether m is the invalid zero mode.
func (m Mode) IsZero() bool { return m.kind == KindUnspecified }

// Key returns the stable key used at presentation boundaries.
func (m Mode) Key() string {
	e, ok := lo.Find(modeTable, func(e modeEntry) bool { return e.mode == m })
	if !ok {
		return ""
	}
	return e.key
}

func (m Mode) String() string {
	if m.kind == KindPeriodicAdvance {
		return fmt.Sprintf("%s(%s)", m.kind, m.interval)
	}
	return m.kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m.IsZero() {
		return nil, apperr.ErrInvalidMode
	}
	return []byte(m.Key()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Trigger returns which event source advances the target.
func (m Mode) Trigger() Trigger {
	switch m.kind {
	case KindClickUpdate, KindTapGame:
		return TriggerClick
	case KindHoverGame:
		return TriggerHover
	case KindPeriodicAdvance:
		return TriggerTimer
	default:
		return TriggerNone
	}
}

// RegeneratesOnAdvance reports whether a found target reshuffles the grid.
func (m Mode) RegeneratesOnAdvance() bool {
	return m.kind == KindClickUpdate || m.kind == KindPeriodicAdvance
}
