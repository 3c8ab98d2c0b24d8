// Package moderation guards the operator's destructive actions behind a
// propose-then-confirm step held in the operator's own session.
package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

// State is the operator's position in the moderation machine.
type State string

const (
	StateNone                 State = "none"
	StateAwaitingTarget       State = "awaiting_target"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

type sessionStore interface {
	AdminPending(ctx context.Context, userID int64) (session.PendingAction, bool)
	UpdateAdminPending(ctx context.Context, userID int64, fn func(*session.PendingAction) (*session.PendingAction, error)) error
	ClearAdminPending(ctx context.Context, userID int64)
	Reset(ctx context.Context, userID int64) error
}

type orderStore interface {
	DeletePending(ctx context.Context, userID int64) (orders.Order, error)
	ClearPendingPayment(ctx context.Context, userID int64)
}

// Prompt asks the operator to confirm kind against target.
type Prompt struct {
	Kind   enums.ModerationKind
	Target int64
}

// Effect is what a confirmed action did. Found is false when the target had
// nothing to delete; the caller reports that instead of failing.
type Effect struct {
	Kind    enums.ModerationKind
	Target  int64
	Found   bool
	Deleted orders.Order
}

// Workflow drives the two-phase moderation machine for the single operator.
type Workflow struct {
	operatorID int64
	sessions   sessionStore
	orders     orderStore
}

// NewWorkflow builds a Workflow bound to operatorID.
func NewWorkflow(operatorID int64, sessions sessionStore, orderStore orderStore) *Workflow {
	return &Workflow{operatorID: operatorID, sessions: sessions, orders: orderStore}
}

func (w *Workflow) authorize(actor int64) error {
	if actor != w.operatorID {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "operator only")
	}
	return nil
}

// State reports where the actor is in the machine. Non-operators are always
// in StateNone.
func (w *Workflow) State(ctx context.Context, actor int64) (State, session.PendingAction) {
	if actor != w.operatorID {
		return StateNone, session.PendingAction{}
	}
	pending, ok := w.sessions.AdminPending(ctx, actor)
	switch {
	case !ok:
		return StateNone, session.PendingAction{}
	case pending.HasTarget:
		return StateAwaitingConfirmation, pending
	default:
		return StateAwaitingTarget, pending
	}
}

// AwaitingTarget reports whether the next free text from actor is a target id.
func (w *Workflow) AwaitingTarget(ctx context.Context, actor int64) bool {
	state, _ := w.State(ctx, actor)
	return state == StateAwaitingTarget
}

// BeginDelete starts a delete-latest-pending-order action.
func (w *Workflow) BeginDelete(ctx context.Context, actor int64) error {
	return w.begin(ctx, actor, enums.ModerationKindDelete)
}

// BeginReset starts a reset-user-session action.
func (w *Workflow) BeginReset(ctx context.Context, actor int64) error {
	return w.begin(ctx, actor, enums.ModerationKindReset)
}

func (w *Workflow) begin(ctx context.Context, actor int64, kind enums.ModerationKind) error {
	if err := w.authorize(actor); err != nil {
		return err
	}
	return w.sessions.UpdateAdminPending(ctx, actor, func(*session.PendingAction) (*session.PendingAction, error) {
		return &session.PendingAction{Kind: kind}, nil
	})
}

// SubmitTarget parses text as the target user id. Anything other than a
// nonnegative integer is a validation error and the state is unchanged.
func (w *Workflow) SubmitTarget(ctx context.Context, actor int64, text string) (Prompt, error) {
	if err := w.authorize(actor); err != nil {
		return Prompt{}, err
	}
	target, err := parseTarget(text)
	var prompt Prompt
	updateErr := w.sessions.UpdateAdminPending(ctx, actor, func(cur *session.PendingAction) (*session.PendingAction, error) {
		if cur == nil || cur.HasTarget {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not waiting for a target")
		}
		if err != nil {
			return nil, err
		}
		cur.Target, cur.HasTarget = target, true
		prompt = Prompt{Kind: cur.Kind, Target: target}
		return cur, nil
	})
	if updateErr != nil {
		return Prompt{}, updateErr
	}
	return prompt, nil
}

func parseTarget(text string) (int64, error) {
	raw := strings.TrimSpace(text)
	invalid := pkgerrors.New(pkgerrors.CodeValidation, "target must be a numeric user id").
		WithDetails(map[string]any{"input": raw})
	if raw == "" {
		return 0, invalid
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, invalid
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}

// Confirm executes the pending action. When claimed is non-nil it must name
// the stored target; the stored target is the one acted on. After a confirm
// that reaches the action, the machine is back in StateNone. A confirm for
// another kind or target discards the pending action and returns a state
// conflict.
func (w *Workflow) Confirm(ctx context.Context, actor int64, kind enums.ModerationKind, claimed *int64) (Effect, error) {
	if err := w.authorize(actor); err != nil {
		return Effect{}, err
	}
	var (
		pending  session.PendingAction
		mismatch error
	)
	err := w.sessions.UpdateAdminPending(ctx, actor, func(cur *session.PendingAction) (*session.PendingAction, error) {
		if cur == nil || !cur.HasTarget {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "nothing to confirm")
		}
		switch {
		case cur.Kind != kind:
			mismatch = pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("pending action is %s", cur.Kind))
		case claimed != nil && *claimed != cur.Target:
			mismatch = pkgerrors.New(pkgerrors.CodeStateConflict, "confirmation does not match pending target").
				WithDetails(map[string]any{"pending_target": cur.Target})
		default:
			pending = *cur
		}
		return nil, nil
	})
	if err != nil {
		return Effect{}, err
	}
	if mismatch != nil {
		return Effect{}, mismatch
	}

	effect := Effect{Kind: pending.Kind, Target: pending.Target}
	switch pending.Kind {
	case enums.ModerationKindDelete:
		deleted, err := w.orders.DeletePending(ctx, pending.Target)
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				return effect, nil
			}
			return effect, err
		}
		effect.Found = true
		effect.Deleted = deleted
	case enums.ModerationKindReset:
		effect.Found = true
		w.orders.ClearPendingPayment(ctx, pending.Target)
		if err := w.sessions.Reset(ctx, pending.Target); err != nil {
			return effect, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset user session")
		}
	}
	return effect, nil
}

// Cancel abandons any pending action.
func (w *Workflow) Cancel(ctx context.Context, actor int64) error {
	if err := w.authorize(actor); err != nil {
		return err
	}
	w.sessions.ClearAdminPending(ctx, actor)
	return nil
}
