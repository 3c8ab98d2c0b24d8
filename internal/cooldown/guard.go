package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderbot/pkg/clock"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

// DefaultWindow is the throttle applied to every action kind unless overridden.
const DefaultWindow = 24 * time.Hour

// Store persists the last accepted action time per user and kind.
type Store interface {
	Last(ctx context.Context, userID int64, kind enums.CooldownKind) (time.Time, bool, error)
	Record(ctx context.Context, userID int64, kind enums.CooldownKind, at time.Time, window time.Duration) error
	Clear(ctx context.Context, userID int64) error
}

// Decision is the outcome of a cooldown check. Remaining is always positive
// when Allowed is false.
type Decision struct {
	Allowed   bool
	Remaining time.Duration
}

// RemainingHours floors Remaining to whole hours for display.
func (d Decision) RemainingHours() int {
	if d.Allowed || d.Remaining <= 0 {
		return 0
	}
	return int(d.Remaining / time.Hour)
}

// Err converts a denial into a COOLDOWN_ACTIVE error, or nil when allowed.
func (d Decision) Err(kind enums.CooldownKind) error {
	if d.Allowed {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeCooldownActive, fmt.Sprintf("%s cooldown active", kind)).
		WithDetails(map[string]any{
			"kind":            kind.String(),
			"remaining_hours": d.RemainingHours(),
			"remaining":       d.Remaining.String(),
		})
}

// Guard rate-limits order placement and help requests per user.
type Guard struct {
	store   Store
	clock   clock.Clock
	windows map[enums.CooldownKind]time.Duration
}

// GuardParams configure a Guard. Zero windows fall back to DefaultWindow.
type GuardParams struct {
	Store       Store
	Clock       clock.Clock
	OrderWindow time.Duration
	HelpWindow  time.Duration
}

// NewGuard builds a Guard.
func NewGuard(params GuardParams) (*Guard, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cooldown store required")
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Guard{
		store: params.Store,
		clock: clk,
		windows: map[enums.CooldownKind]time.Duration{
			enums.CooldownKindOrder: windowOrDefault(params.OrderWindow),
			enums.CooldownKindHelp:  windowOrDefault(params.HelpWindow),
		},
	}, nil
}

func windowOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultWindow
	}
	return d
}

// Window returns the configured window for kind.
func (g *Guard) Window(kind enums.CooldownKind) time.Duration {
	if w, ok := g.windows[kind]; ok {
		return w
	}
	return DefaultWindow
}

// Check reports whether the user may perform kind now.
func (g *Guard) Check(ctx context.Context, userID int64, kind enums.CooldownKind) (Decision, error) {
	if !kind.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cooldown kind %q", kind))
	}
	last, ok, err := g.store.Last(ctx, userID, kind)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read cooldown")
	}
	if !ok {
		return Decision{Allowed: true}, nil
	}
	remaining := g.Window(kind) - g.clock.Now().Sub(last)
	if remaining <= 0 {
		return Decision{Allowed: true}, nil
	}
	return Decision{Allowed: false, Remaining: remaining}, nil
}

// Record starts the window for kind at the current time. Call it only once
// the gated action has been committed.
func (g *Guard) Record(ctx context.Context, userID int64, kind enums.CooldownKind) error {
	return g.RecordAt(ctx, userID, kind, g.clock.Now())
}

// RecordAt starts the window for kind at the given time.
func (g *Guard) RecordAt(ctx context.Context, userID int64, kind enums.CooldownKind, at time.Time) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cooldown kind %q", kind))
	}
	if err := g.store.Record(ctx, userID, kind, at, g.Window(kind)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record cooldown")
	}
	return nil
}

// Clear forgets every cooldown timestamp for the user.
func (g *Guard) Clear(ctx context.Context, userID int64) error {
	if err := g.store.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cooldowns")
	}
	return nil
}
