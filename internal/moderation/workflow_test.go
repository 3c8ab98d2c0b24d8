package moderation

import (
	"context"
	"testing"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/types"
)

const operator int64 = 1000

type noopClearer struct{}

func (noopClearer) Clear(context.Context, int64) error { return nil }

type fixture struct {
	flow     *Workflow
	sessions *session.Store
	orders   *orders.Store
}

func newFixture() fixture {
	orderStore := orders.NewStore(orders.StoreParams{})
	sessions := session.NewStore(orderStore, noopClearer{})
	return fixture{
		flow:     NewWorkflow(operator, sessions, orderStore),
		sessions: sessions,
		orders:   orderStore,
	}
}

func (f fixture) placeOrder(t *testing.T, userID int64) orders.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), orders.CreateInput{
		UserID:    userID,
		ItemsText: "• 1x Turn - $35",
		Total:     35,
		Address:   types.Address{FirstName: "A"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return order
}

func ptr(v int64) *int64 { return &v }

func TestSubmitTargetRejectsNonNumeric(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.flow.BeginDelete(ctx, operator); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, bad := range []string{"notanumber", "-5", "4.2", "", "12a"} {
		if _, err := f.flow.SubmitTarget(ctx, operator, bad); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", bad, err)
		}
		if state, _ := f.flow.State(ctx, operator); state != StateAwaitingTarget {
			t.Fatalf("%q: expected awaiting target, got %s", bad, state)
		}
	}

	prompt, err := f.flow.SubmitTarget(ctx, operator, " 42 ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if prompt.Kind != enums.ModerationKindDelete || prompt.Target != 42 {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	state, pending := f.flow.State(ctx, operator)
	if state != StateAwaitingConfirmation || pending.Target != 42 {
		t.Fatalf("expected awaiting confirmation for 42, got %s %+v", state, pending)
	}
}

func TestCancelLeavesOrdersUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.placeOrder(t, 42)

	_ = f.flow.BeginDelete(ctx, operator)
	if _, err := f.flow.SubmitTarget(ctx, operator, "42"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.flow.Cancel(ctx, operator); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if state, _ := f.flow.State(ctx, operator); state != StateNone {
		t.Fatalf("expected none, got %s", state)
	}
	if c := f.orders.Counts(ctx); c.Pending != 1 {
		t.Fatalf("cancel must not mutate orders, got %+v", c)
	}
}

func TestConfirmDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	order := f.placeOrder(t, 42)
	other := f.placeOrder(t, 43)

	_ = f.flow.BeginDelete(ctx, operator)
	_, _ = f.flow.SubmitTarget(ctx, operator, "42")

	effect, err := f.flow.Confirm(ctx, operator, enums.ModerationKindDelete, nil)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !effect.Found || effect.Deleted.ID != order.ID || effect.Target != 42 {
		t.Fatalf("unexpected effect %+v", effect)
	}
	if _, ok := f.orders.Get(ctx, order.ID); ok {
		t.Fatal("order should be gone")
	}
	if _, ok := f.orders.Get(ctx, other.ID); !ok {
		t.Fatal("other user's order must survive")
	}
	if state, _ := f.flow.State(ctx, operator); state != StateNone {
		t.Fatalf("expected none after confirm, got %s", state)
	}
}

func TestConfirmDeleteWithNothingPendingIsGraceful(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_ = f.flow.BeginDelete(ctx, operator)
	_, _ = f.flow.SubmitTarget(ctx, operator, "77")
	effect, err := f.flow.Confirm(ctx, operator, enums.ModerationKindDelete, ptr(77))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if effect.Found {
		t.Fatalf("expected nothing found, got %+v", effect)
	}
	if state, _ := f.flow.State(ctx, operator); state != StateNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestConfirmRejectsMismatchedTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.placeOrder(t, 42)
	f.placeOrder(t, 99)

	_ = f.flow.BeginDelete(ctx, operator)
	_, _ = f.flow.SubmitTarget(ctx, operator, "42")

	if _, err := f.flow.Confirm(ctx, operator, enums.ModerationKindDelete, ptr(99)); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if state, _ := f.flow.State(ctx, operator); state != StateNone {
		t.Fatalf("expected pending action discarded, got %s", state)
	}
	if _, err := f.flow.Confirm(ctx, operator, enums.ModerationKindDelete, ptr(42)); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("discarded action must not be confirmable, got %v", err)
	}

	_ = f.flow.BeginDelete(ctx, operator)
	_, _ = f.flow.SubmitTarget(ctx, operator, "42")
	if _, err := f.flow.Confirm(ctx, operator, enums.ModerationKindReset, ptr(42)); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for wrong kind, got %v", err)
	}
	if state, _ := f.flow.State(ctx, operator); state != StateNone {
		t.Fatalf("expected pending action discarded after wrong kind, got %s", state)
	}
	if c := f.orders.Counts(ctx); c.Pending != 2 {
		t.Fatalf("rejected confirm must not delete, got %+v", c)
	}
}

func TestConfirmReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.placeOrder(t, 42)
	f.sessions.AddToCart(ctx, 42, types.CartItem{Product: "Turn", QuantityLabel: "1x", UnitPrice: 35})

	_ = f.flow.BeginReset(ctx, operator)
	_, _ = f.flow.SubmitTarget(ctx, operator, "42")
	effect, err := f.flow.Confirm(ctx, operator, enums.ModerationKindReset, ptr(42))
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !effect.Found || effect.Kind != enums.ModerationKindReset {
		t.Fatalf("unexpected effect %+v", effect)
	}
	if len(f.sessions.CartView(ctx, 42)) != 0 {
		t.Fatal("target cart should be cleared")
	}
	if _, ok := f.orders.PendingPaymentFor(ctx, 42); ok {
		t.Fatal("pending payment should be cleared")
	}
	if c := f.orders.Counts(ctx); c.Pending != 1 {
		t.Fatalf("reset must not delete orders, got %+v", c)
	}
}

func TestConfirmWithoutTargetIsConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	if _, err := f.flow.Confirm(ctx, operator, enums.ModerationKindDelete, nil); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	_ = f.flow.BeginReset(ctx, operator)
	if _, err := f.flow.Confirm(ctx, operator, enums.ModerationKindReset, nil); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict before target, got %v", err)
	}
	if _, err := f.flow.SubmitTarget(ctx, operator, "5"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.flow.SubmitTarget(ctx, operator, "6"); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("second target should conflict, got %v", err)
	}
}

func TestNonOperatorIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.placeOrder(t, 42)

	if err := f.flow.BeginDelete(ctx, 5); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.flow.SubmitTarget(ctx, 5, "42"); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := f.flow.Confirm(ctx, 5, enums.ModerationKindDelete, ptr(42)); !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_ = f.flow.BeginDelete(ctx, operator)
	if f.flow.AwaitingTarget(ctx, 5) {
		t.Fatal("operator state must not leak to other users")
	}
	if !f.flow.AwaitingTarget(ctx, operator) {
		t.Fatal("operator should be awaiting a target")
	}
}
