package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/orderbot/internal/catalog"
	"github.com/angelmondragon/orderbot/internal/cooldown"
	"github.com/angelmondragon/orderbot/internal/moderation"
	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/clock"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

const (
	operatorID = int64(999)
	buyerID    = int64(42)
)

type sentMessage struct {
	userID int64
	msg    notifications.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, msg notifications.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{userID: userID, msg: msg})
	return nil
}

func (r *recordingNotifier) to(userID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.userID == userID {
			out = append(out, s.msg.Text)
		}
	}
	return out
}

type recordingMirror struct {
	mu    sync.Mutex
	calls []string
}

func (m *recordingMirror) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *recordingMirror) UpsertUser(_ context.Context, userID int64, _, _ string) {
	m.record(fmt.Sprintf("user:%d", userID))
}

func (m *recordingMirror) UpsertOrder(_ context.Context, order orders.Order, status enums.OrderStatus) {
	m.record(fmt.Sprintf("order:%s:%s", order.ID, status))
	if order.Tracking != "" {
		m.record(fmt.Sprintf("tracking:%s:%s", order.ID, order.Tracking))
	}
}

func (m *recordingMirror) UpdateOrderStatus(_ context.Context, id string, status enums.OrderStatus, _ time.Time) {
	m.record(fmt.Sprintf("status:%s:%s", id, status))
}

func (m *recordingMirror) IncrementDailyStats(_ context.Context, day string, amount int) {
	m.record(fmt.Sprintf("daily:%s:%d", day, amount))
}

func (m *recordingMirror) DeleteOrder(_ context.Context, id string) {
	m.record("delete:" + id)
}

func (m *recordingMirror) Close(context.Context) error { return nil }

func (m *recordingMirror) has(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == call {
			return true
		}
	}
	return false
}

type harness struct {
	t        *testing.T
	svc      Service
	clk      *clock.FakeClock
	orders   *orders.Store
	sessions *session.Store
	notifier *recordingNotifier
	mirror   *recordingMirror
}

func newHarness(t *testing.T, chunkLen int) *harness {
	t.Helper()
	clk := clock.Fake(time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC))
	var next int
	ids := orders.IDGeneratorFunc(func() (string, error) {
		next++
		return fmt.Sprintf("ORD%03d", next), nil
	})
	orderStore := orders.NewStore(orders.StoreParams{Clock: clk, IDs: ids})
	guard, err := cooldown.NewGuard(cooldown.GuardParams{Store: cooldown.NewMemoryStore(), Clock: clk})
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	sessions := session.NewStore(orderStore, guard)
	notifier := &recordingNotifier{}
	mirror := &recordingMirror{}

	svc, err := NewService(ServiceParams{
		OperatorID: operatorID,
		Catalog:    catalog.Default(),
		Sessions:   sessions,
		Orders:     orderStore,
		Cooldowns:  guard,
		Moderation: moderation.NewWorkflow(operatorID, sessions, orderStore),
		Stats:      stats.NewAggregator(orderStore, clk, time.UTC),
		Notifier:   notifier,
		Mirror:     mirror,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Clock:      clk,
		ChunkLen:   chunkLen,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &harness{t: t, svc: svc, clk: clk, orders: orderStore, sessions: sessions, notifier: notifier, mirror: mirror}
}

func (h *harness) handle(ev Event) Reply {
	h.t.Helper()
	if ev.DisplayName == "" {
		ev.DisplayName = "Sam"
	}
	out, err := h.svc.Handle(context.Background(), ev)
	if err != nil {
		h.t.Fatalf("handle %+v: %v", ev, err)
	}
	return out
}

func (h *harness) command(userID int64, name string, args ...string) Reply {
	return h.handle(Event{Kind: enums.EventKindCommand, UserID: userID, Command: "/" + name, Args: args})
}

func (h *harness) press(userID int64, token string) Reply {
	return h.handle(Event{Kind: enums.EventKindButton, UserID: userID, Callback: token})
}

func (h *harness) say(userID int64, text string) Reply {
	return h.handle(Event{Kind: enums.EventKindText, UserID: userID, Text: text})
}

// placeOrder fills a $70 cart and walks the whole checkout.
func (h *harness) placeOrder(userID int64) Reply {
	h.t.Helper()
	h.press(userID, "add:Turn:1x:35")
	h.press(userID, "add:Jeeter Juice:1x:35")
	if got := text(h.press(userID, tokenDone)); !strings.Contains(got, "first name") {
		h.t.Fatalf("expected first name prompt, got %q", got)
	}
	var last Reply
	for _, answer := range []string{"Ada", "Lovelace", "Springfield", "IL", "62701", "1 Main St", "R-77"} {
		last = h.say(userID, answer)
	}
	return last
}

func text(r Reply) string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "\n")
}

func hasButton(r Reply, data string) bool {
	for _, m := range r.Messages {
		for _, row := range m.Buttons {
			for _, b := range row {
				if b.Data == data {
					return true
				}
			}
		}
	}
	return false
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error for empty params")
	}
}

func TestHandleRejectsMalformedEvents(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.svc.Handle(context.Background(), Event{Kind: "poke", UserID: buyerID})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = h.svc.Handle(context.Background(), Event{Kind: enums.EventKindText})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing user, got %v", err)
	}
}

func TestStartShowsMenuAndClearsCart(t *testing.T) {
	h := newHarness(t, 0)
	h.press(buyerID, "add:Turn:1x:35")

	out := h.command(buyerID, "start")
	if len(out.Messages) != 1 || !strings.Contains(out.Messages[0].Text, "Hi Sam!") {
		t.Fatalf("unexpected greeting %+v", out)
	}
	if out.Messages[0].ImageURL != catalog.Default().MenuImage() {
		t.Fatalf("expected menu image, got %q", out.Messages[0].ImageURL)
	}
	if !hasButton(out, "cat:"+catalog.CategoryCarts) || !hasButton(out, tokenConfirmOrder) {
		t.Fatal("expected category and place order buttons")
	}
	if n := len(h.sessions.CartView(context.Background(), buyerID)); n != 0 {
		t.Fatalf("expected empty cart after /start, got %d", n)
	}
	if !h.mirror.has(fmt.Sprintf("user:%d", buyerID)) {
		t.Fatal("expected first contact to upsert the user")
	}
}

func TestBrowseAndCart(t *testing.T) {
	h := newHarness(t, 0)

	if out := h.press(buyerID, "cat:"+catalog.CategoryCarts); !hasButton(out, "item:Turn") {
		t.Fatalf("expected product buttons, got %+v", out)
	}
	out := h.press(buyerID, "item:Dabwoods")
	if !hasButton(out, "add:Dabwoods:50x:700") || out.Messages[0].ImageURL != "https://ibb.co/FkmqZ1d7" {
		t.Fatalf("unexpected product view %+v", out)
	}

	added := h.press(buyerID, "add:Dabwoods:50x:700")
	if added.Toast != "Added 50x Dabwoods ✅" || !hasButton(added, tokenViewCart) {
		t.Fatalf("unexpected add reply %+v", added)
	}
	if !strings.Contains(added.Messages[0].Buttons[len(added.Messages[0].Buttons)-1][1].Text, "(1)") {
		t.Fatal("expected cart count in view cart button")
	}

	cart := text(h.press(buyerID, tokenViewCart))
	if !strings.Contains(cart, "• 50x Dabwoods - $700") || !strings.Contains(cart, "*Total:* $700") {
		t.Fatalf("unexpected cart view %q", cart)
	}
	h.press(buyerID, tokenClearCart)
	if got := text(h.press(buyerID, tokenViewCart)); got != "🛒 Your cart is empty!" {
		t.Fatalf("expected empty cart, got %q", got)
	}
}

func TestForgedPriceIsRejected(t *testing.T) {
	h := newHarness(t, 0)
	out := h.press(buyerID, "add:Turn:1x:1")
	if text(out) != notUnderstoodText {
		t.Fatalf("expected rejection, got %q", text(out))
	}
	if n := len(h.sessions.CartView(context.Background(), buyerID)); n != 0 {
		t.Fatalf("forged item reached the cart: %d items", n)
	}
}

func TestCheckoutCreatesOrderAndAlertsOperator(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(Event{Kind: enums.EventKindCommand, UserID: buyerID, Command: "/start", Username: "sam_b"})

	if got := text(h.press(buyerID, tokenConfirmOrder)); got != emptyCartText {
		t.Fatalf("expected empty cart notice, got %q", got)
	}

	out := h.placeOrder(buyerID)
	if len(out.Messages) != 3 {
		t.Fatalf("expected summary, instructions and notice, got %d messages", len(out.Messages))
	}
	summary := out.Messages[0]
	if !strings.Contains(summary.Text, "*Order #ORD001 Complete!*") || !strings.Contains(summary.Text, "$70") {
		t.Fatalf("unexpected summary %q", summary.Text)
	}
	if !strings.Contains(summary.Text, "Ada Lovelace\n1 Main St\nSpringfield, IL 62701") {
		t.Fatalf("address not rendered in order: %q", summary.Text)
	}
	if summary.ImageURL != DefaultImages().Confirmation || out.Messages[1].ImageURL != DefaultImages().Instructions {
		t.Fatal("expected confirmation and instruction images")
	}

	order, ok := h.orders.Get(context.Background(), "ORD001")
	if !ok || order.Total != 70 || order.Status != enums.OrderStatusPending || order.Address.ReturnNumber != "R-77" {
		t.Fatalf("unexpected stored order %+v", order)
	}
	alerts := h.notifier.to(operatorID)
	if len(alerts) != 1 || !strings.Contains(alerts[0], "*New Order #ORD001*") || !strings.Contains(alerts[0], "Sam (sam_b)") {
		t.Fatalf("unexpected operator alert %q", alerts)
	}
	if !h.mirror.has("order:ORD001:pending") {
		t.Fatal("expected pending order to be mirrored")
	}
}

func TestAddressPromptsFollowStages(t *testing.T) {
	h := newHarness(t, 0)
	h.press(buyerID, "add:Turn:1x:35")
	h.press(buyerID, tokenDone)

	expect := []string{"last name", "town/city", "state", "ZIP code", "street address", "Return #"}
	for i, answer := range []string{"A", "B", "C", "D", "E", "F"} {
		if got := text(h.say(buyerID, answer)); !strings.Contains(got, expect[i]) {
			t.Fatalf("step %d: expected prompt for %s, got %q", i, expect[i], got)
		}
	}
	if got := text(h.say(buyerID, "   ")); got != notUnderstoodText {
		t.Fatalf("expected blank reply to be rejected, got %q", got)
	}
	if stage := h.sessions.Stage(context.Background(), buyerID); stage != session.StageReturnNumber {
		t.Fatalf("blank reply moved the stage to %s", stage)
	}
}

func TestIdleTextIsIgnored(t *testing.T) {
	h := newHarness(t, 0)
	if out := h.say(buyerID, "hello?"); len(out.Messages) != 0 {
		t.Fatalf("expected no reply, got %+v", out)
	}
}

func TestOrderCooldownStartsAtCheckout(t *testing.T) {
	h := newHarness(t, 0)
	h.placeOrder(buyerID)

	h.clk.Advance(time.Hour)
	h.press(buyerID, "add:Turn:1x:35")
	if got := text(h.press(buyerID, tokenDone)); got != "⏳ Wait 23h before another order." {
		t.Fatalf("unexpected cooldown reply %q", got)
	}
	h.clk.Advance(22*time.Hour + 30*time.Minute)
	if got := text(h.press(buyerID, tokenDone)); got != "⏳ Wait <1h before another order." {
		t.Fatalf("unexpected sub-hour cooldown reply %q", got)
	}
	if n := len(h.sessions.CartView(context.Background(), buyerID)); n != 1 {
		t.Fatalf("denied checkout must keep the cart, got %d items", n)
	}
	h.clk.Advance(time.Hour)
	if got := text(h.press(buyerID, tokenDone)); !strings.Contains(got, "first name") {
		t.Fatalf("expected checkout after window, got %q", got)
	}
}

func TestEmptyCheckoutDoesNotStartCooldown(t *testing.T) {
	h := newHarness(t, 0)
	if got := text(h.press(buyerID, tokenDone)); got != emptyCartText {
		t.Fatalf("expected empty cart notice, got %q", got)
	}
	h.press(buyerID, "add:Buzzbar:1x:35")
	if got := text(h.press(buyerID, tokenDone)); !strings.Contains(got, "first name") {
		t.Fatalf("expected checkout to start, got %q", got)
	}
}

func TestOperatorOnlySurfaces(t *testing.T) {
	h := newHarness(t, 0)
	cases := []Reply{
		h.command(buyerID, "admin"),
		h.command(buyerID, "accept", "1"),
		h.command(buyerID, "ship", "1", "TRK"),
		h.press(buyerID, tokenAdminStats),
		h.press(buyerID, tokenAdminDelete),
		h.handle(Event{Kind: enums.EventKindButton, UserID: buyerID, Operator: true, Callback: tokenAdminCurrent}),
	}
	for i, out := range cases {
		if text(out) != unauthorizedText {
			t.Fatalf("case %d: expected rejection, got %q", i, text(out))
		}
	}
	if out := h.command(operatorID, "admin"); !hasButton(out, tokenAdminCurrent) {
		t.Fatalf("expected console for operator, got %+v", out)
	}
}

func TestAcceptPayment(t *testing.T) {
	h := newHarness(t, 0)
	for _, args := range [][]string{nil, {"1", "2"}, {"abc"}} {
		if got := text(h.command(operatorID, "accept", args...)); got != "Usage: /accept <user_id>" {
			t.Fatalf("args %v: expected usage, got %q", args, got)
		}
	}
	if got := text(h.command(operatorID, "accept", "42")); got != "❌ No pending payment found for this user." {
		t.Fatalf("unexpected reply %q", got)
	}

	h.placeOrder(buyerID)
	if got := text(h.command(operatorID, "accept", "42")); got != "✅ Payment confirmed for user 42." {
		t.Fatalf("unexpected accept reply %q", got)
	}
	msgs := h.notifier.to(buyerID)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Payment accepted!") {
		t.Fatalf("expected payment notice, got %q", msgs)
	}
	order, _ := h.orders.Get(context.Background(), "ORD001")
	if order.Status != enums.OrderStatusPending || order.PaidAt == nil {
		t.Fatalf("accept must stamp paid and keep the order pending: %+v", order)
	}
	if !h.mirror.has("status:ORD001:paid") {
		t.Fatal("expected paid status to be mirrored")
	}
}

func TestShipOrder(t *testing.T) {
	h := newHarness(t, 0)
	for _, args := range [][]string{{"42"}, {"42", "TRK", "extra"}} {
		if got := text(h.command(operatorID, "ship", args...)); got != "Usage: /ship <user_id> <tracking_number>" {
			t.Fatalf("args %v: expected usage, got %q", args, got)
		}
	}

	h.placeOrder(buyerID)
	out := h.command(operatorID, "ship", "42", "1Z999")
	if len(out.Messages) != 2 || !strings.Contains(out.Messages[0].Text, "*Order Shipped*") ||
		out.Messages[1].Text != "✅ Order #ORD001 marked completed and shipping sent." {
		t.Fatalf("unexpected ship reply %+v", out)
	}
	msgs := h.notifier.to(buyerID)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "`1Z999`") {
		t.Fatalf("expected tracking notice, got %q", msgs)
	}
	if !h.mirror.has("order:ORD001:shipped") || !h.mirror.has("tracking:ORD001:1Z999") ||
		!h.mirror.has("daily:2025-06-01:70") {
		t.Fatalf("expected shipped order with tracking and daily stats, got %v", h.mirror.calls)
	}
	if got := text(h.command(operatorID, "ship", "42", "1Z999")); got != "❌ No pending order found for that user." {
		t.Fatalf("second ship must not find the order, got %q", got)
	}
}

func TestShipRejectsSignedUserID(t *testing.T) {
	h := newHarness(t, 0)
	h.placeOrder(buyerID)
	for _, id := range []string{"+42", "-42", " +42"} {
		if got := text(h.command(operatorID, "ship", id, "1Z999")); got != "Usage: /ship <user_id> <tracking_number>" {
			t.Fatalf("id %q: expected usage, got %q", id, got)
		}
	}
	if got := text(h.command(operatorID, "accept", "+42")); got != "Usage: /accept <user_id>" {
		t.Fatalf("signed id must not confirm payment, got %q", got)
	}
	out := h.command(operatorID, "ship", "42", "1Z-999/A")
	if len(out.Messages) != 2 {
		t.Fatalf("unexpected ship reply %+v", out)
	}
	if !h.mirror.has("tracking:ORD001:1Z-999/A") {
		t.Fatalf("expected tracking mirrored verbatim, got %v", h.mirror.calls)
	}
}

func TestRequestHelp(t *testing.T) {
	h := newHarness(t, 0)
	h.handle(Event{Kind: enums.EventKindCommand, UserID: buyerID, Command: "/requesthelp", Text: "/requesthelp"})
	alerts := h.notifier.to(operatorID)
	if len(alerts) != 1 || !strings.Contains(alerts[0], "Order ID: N/A") || !strings.Contains(alerts[0], noHelpMessage) ||
		!strings.Contains(alerts[0], "@no_username") {
		t.Fatalf("unexpected help alert %q", alerts)
	}

	if got := text(h.command(buyerID, "requesthelp", "still", "there?")); got != "⏳ Please wait 24h before sending another help request." {
		t.Fatalf("expected cooldown, got %q", got)
	}

	h.clk.Advance(24 * time.Hour)
	h.placeOrder(buyerID)
	h.handle(Event{Kind: enums.EventKindCommand, UserID: buyerID, Command: "/requesthelp",
		Text: "/requesthelp wrong  address", Username: "sam_b"})
	alerts = h.notifier.to(operatorID)
	last := alerts[len(alerts)-1]
	if !strings.Contains(last, "Order ID: #ORD001") || !strings.Contains(last, "Return #: R-77") ||
		!strings.Contains(last, "Message: wrong  address") || !strings.Contains(last, "@sam_b") {
		t.Fatalf("unexpected correlated alert %q", last)
	}
}

func TestModerationDeleteFlow(t *testing.T) {
	h := newHarness(t, 0)
	h.placeOrder(buyerID)

	h.press(operatorID, tokenAdminDelete)
	if got := text(h.say(operatorID, "not a number")); got != "❗ Please send a numeric user ID." {
		t.Fatalf("expected numeric prompt, got %q", got)
	}
	prompt := h.say(operatorID, "42")
	if !hasButton(prompt, "confirm_delete:42") || !hasButton(prompt, tokenCancelAdmin) {
		t.Fatalf("expected confirmation buttons, got %+v", prompt)
	}

	if got := text(h.press(operatorID, "confirm_delete:7")); !strings.Contains(got, "no longer valid") {
		t.Fatalf("mismatched target must be refused, got %q", got)
	}
	if _, ok := h.orders.Get(context.Background(), "ORD001"); !ok {
		t.Fatal("mismatched confirmation deleted the order")
	}
	if got := text(h.press(operatorID, "confirm_delete:42")); !strings.Contains(got, "no longer valid") {
		t.Fatalf("mismatch must discard the pending delete, got %q", got)
	}

	h.press(operatorID, tokenAdminDelete)
	h.say(operatorID, "42")
	if got := text(h.press(operatorID, "confirm_delete:42")); got != "🗑️ Order for user 42 deleted." {
		t.Fatalf("unexpected delete ack %q", got)
	}
	if _, ok := h.orders.Get(context.Background(), "ORD001"); ok {
		t.Fatal("order still present after delete")
	}
	if msgs := h.notifier.to(buyerID); len(msgs) != 1 || !strings.Contains(msgs[0], "reset by the admin") {
		t.Fatalf("expected target notice, got %q", msgs)
	}
	if !h.mirror.has("delete:ORD001") {
		t.Fatal("expected delete to be mirrored")
	}

	h.press(operatorID, tokenAdminDelete)
	h.say(operatorID, "42")
	if got := text(h.press(operatorID, tokenConfirmDelete)); got != "❌ No pending order found for that user." {
		t.Fatalf("expected graceful not found, got %q", got)
	}
}

func TestModerationResetClearsCooldown(t *testing.T) {
	h := newHarness(t, 0)
	h.placeOrder(buyerID)

	h.press(operatorID, tokenAdminReset)
	h.say(operatorID, "42")
	if got := text(h.press(operatorID, "confirm_reset:42")); got != "✅ User 42 reset successfully." {
		t.Fatalf("unexpected reset ack %q", got)
	}
	if msgs := h.notifier.to(buyerID); len(msgs) != 1 || !strings.Contains(msgs[0], "session has been reset") {
		t.Fatalf("expected reset notice, got %q", msgs)
	}

	h.press(buyerID, "add:Turn:1x:35")
	if got := text(h.press(buyerID, tokenDone)); !strings.Contains(got, "first name") {
		t.Fatalf("reset must clear the order cooldown, got %q", got)
	}
}

func TestModerationCancelAndConsoleBack(t *testing.T) {
	h := newHarness(t, 0)
	h.placeOrder(buyerID)

	h.press(operatorID, tokenAdminDelete)
	h.say(operatorID, "42")
	if got := text(h.press(operatorID, tokenCancelAdmin)); got != "❌ Cancelled." {
		t.Fatalf("unexpected cancel reply %q", got)
	}
	if got := text(h.press(operatorID, tokenConfirmDelete)); !strings.Contains(got, "no longer valid") {
		t.Fatalf("confirm after cancel must be refused, got %q", got)
	}
	if _, ok := h.orders.Get(context.Background(), "ORD001"); !ok {
		t.Fatal("cancelled delete removed the order")
	}

	h.press(operatorID, tokenAdminReset)
	h.press(operatorID, tokenAdminBack)
	if out := h.say(operatorID, "42"); len(out.Messages) != 0 {
		t.Fatalf("text after console back must not be a target, got %+v", out)
	}
}

func TestConsoleListsAndStats(t *testing.T) {
	h := newHarness(t, 120)
	h.placeOrder(buyerID)
	h.clk.Advance(time.Minute)
	h.placeOrder(buyerID + 1)

	out := h.press(operatorID, tokenAdminCurrent)
	if len(out.Messages) < 3 {
		t.Fatalf("expected chunked list plus back message, got %d messages", len(out.Messages))
	}
	first := out.Messages[0].Text
	if !strings.HasPrefix(first, "📦 *Current Orders*") || !strings.Contains(text(out), "#ORD002") {
		t.Fatalf("unexpected list %q", text(out))
	}
	if strings.Index(text(out), "#ORD002") > strings.Index(text(out), "#ORD001") {
		t.Fatal("expected newest order first")
	}
	if !hasButton(out, tokenAdminBack) {
		t.Fatal("expected back to console button")
	}

	if got := text(h.press(operatorID, tokenAdminCompleted)); !strings.Contains(got, "No orders found.") {
		t.Fatalf("expected empty completed list, got %q", got)
	}

	h.command(operatorID, "ship", "42", "TRK")
	report := text(h.press(operatorID, tokenAdminStats))
	for _, want := range []string{"Total Orders: 2", "Completed Orders: 1", "Pending Orders: 1", "Total Revenue (All Time): $70", "Revenue (Today): $70"} {
		if !strings.Contains(report, want) {
			t.Fatalf("stats report missing %q: %q", want, report)
		}
	}
}

func TestInfoCommands(t *testing.T) {
	h := newHarness(t, 0)
	faq := h.command(buyerID, "faq")
	if faq.Messages[0].ImageURL != DefaultImages().FAQ || !strings.Contains(faq.Messages[0].Text, "Frequently Asked Questions") {
		t.Fatalf("unexpected faq %+v", faq)
	}
	must := h.command(buyerID, "MustRead@OrderBot")
	if must.Messages[0].ImageURL != DefaultImages().MustRead || !hasButton(must, tokenBack) {
		t.Fatalf("unexpected mustread %+v", must)
	}
}
