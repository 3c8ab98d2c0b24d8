package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

const (
	cmdStart       = "start"
	cmdAdmin       = "admin"
	cmdAccept      = "accept"
	cmdShip        = "ship"
	cmdRequestHelp = "requesthelp"
	cmdFAQ         = "faq"
	cmdMustRead    = "mustread"

	noHelpMessage = "(no message provided)"
)

func (s *service) handleCommand(ctx context.Context, ev Event) (Reply, error) {
	switch ev.commandName() {
	case cmdStart:
		return s.start(ctx, ev), nil
	case cmdAdmin:
		return s.console(ctx, ev)
	case cmdAccept:
		return s.accept(ctx, ev)
	case cmdShip:
		return s.ship(ctx, ev)
	case cmdRequestHelp:
		return s.requestHelp(ctx, ev)
	case cmdFAQ:
		return reply(withImage(markdown(
			"📘 *Frequently Asked Questions*\n\nRead this before ordering — it covers everything you need to know.",
			backRow), s.images.FAQ)), nil
	case cmdMustRead:
		return reply(withImage(markdown(
			"⚠️ *MUST READ BEFORE ORDERING*\n\nPlease review this info carefully to avoid mistakes or delays.",
			backRow), s.images.MustRead)), nil
	default:
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown command").
			WithDetails(map[string]any{"command": ev.Command})
	}
}

func (s *service) start(ctx context.Context, ev Event) Reply {
	s.sessions.Restart(ctx, ev.UserID)
	name := ev.DisplayName
	if name == "" {
		name = "there"
	}
	msg := plain(fmt.Sprintf("👋 Hi %s! Browse our categories below:", name), mainMenu(s.catalog, 0)...)
	return reply(withImage(msg, s.catalog.MenuImage()))
}

// console opens the admin console and drops any half-finished moderation.
func (s *service) console(ctx context.Context, ev Event) (Reply, error) {
	if err := s.requireOperator(ev); err != nil {
		return Reply{}, err
	}
	if err := s.moderation.Cancel(ctx, ev.UserID); err != nil {
		return Reply{}, err
	}
	return reply(consoleMessage()), nil
}

func (s *service) accept(ctx context.Context, ev Event) (Reply, error) {
	if err := s.requireOperator(ev); err != nil {
		return Reply{}, err
	}
	usage := reply(plain("Usage: /accept <user_id>"))
	if len(ev.Args) != 1 {
		return usage, nil
	}
	target, ok := parseUserID(ev.Args[0])
	if !ok {
		return usage, nil
	}

	order, err := s.orders.AcceptPayment(ctx, target)
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return reply(plain("❌ No pending payment found for this user.")), nil
	}
	if err != nil {
		return Reply{}, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID)
	if order.PaidAt != nil {
		s.mirror.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPaid, *order.PaidAt)
	}
	s.notify(ctx, target, markdown("💳 *Payment accepted!* Please wait while we prepare your shipment."))
	s.logg.Info(ctx, "payment accepted")
	return reply(plain(fmt.Sprintf("✅ Payment confirmed for user %d.", target))), nil
}

func (s *service) ship(ctx context.Context, ev Event) (Reply, error) {
	if err := s.requireOperator(ev); err != nil {
		return Reply{}, err
	}
	usage := reply(plain("Usage: /ship <user_id> <tracking_number>"))
	if len(ev.Args) != 2 {
		return usage, nil
	}
	target, ok := parseUserID(ev.Args[0])
	if !ok || strings.TrimSpace(ev.Args[1]) == "" {
		return usage, nil
	}

	order, err := s.orders.Ship(ctx, target, ev.Args[1])
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return reply(plain("❌ No pending order found for that user.")), nil
	}
	if err != nil {
		return Reply{}, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.metrics.IncOrdersShipped()

	done := completedAt(order)
	s.mirror.UpsertOrder(ctx, order, enums.OrderStatusShipped)
	s.mirror.IncrementDailyStats(ctx, stats.DayStart(done, s.stats.Location()).Format("2006-01-02"), order.Total)

	s.notify(ctx, target, markdown(fmt.Sprintf(
		"🚚 *Order complete!* Your tracking number is `%s`.\nThank you for your order!", order.Tracking)))
	s.logg.Info(ctx, "order shipped")

	return reply(
		markdown(shippedNotice(order, s.stats.Location())),
		plain(fmt.Sprintf("✅ Order #%s marked completed and shipping sent.", order.ID)),
	), nil
}

// requestHelp forwards the user's message to the operator along with their
// most recent order. The cooldown starts only once the alert has been sent.
func (s *service) requestHelp(ctx context.Context, ev Event) (Reply, error) {
	throttled, err := s.checkCooldown(ctx, ev.UserID, enums.CooldownKindHelp, func(hours string) string {
		return fmt.Sprintf("⏳ Please wait %sh before sending another help request.", hours)
	})
	if err != nil || throttled != nil {
		return derefReply(throttled), err
	}

	message := helpMessage(ev)
	var latest *orders.Order
	if o, ok := s.orders.LatestForUser(ctx, ev.UserID); ok {
		latest = &o
	}
	snapshot := s.sessions.Snapshot(ctx, ev.UserID)
	s.notify(ctx, s.operatorID, markdown(helpAlert(snapshot.Username, ev.UserID, latest, message)))
	s.recordCooldown(ctx, ev.UserID, enums.CooldownKindHelp)
	s.logg.Info(ctx, "help request sent")
	return reply(plain("✅ Help request sent! The admin will contact you soon.")), nil
}

// helpMessage prefers the raw text after the command so spacing survives.
func helpMessage(ev Event) string {
	var msg string
	if raw := strings.TrimSpace(ev.Text); raw != "" {
		if _, rest, found := strings.Cut(raw, " "); found {
			msg = strings.TrimSpace(rest)
		}
	} else {
		msg = strings.TrimSpace(strings.Join(ev.Args, " "))
	}
	if msg == "" {
		return noHelpMessage
	}
	return msg
}

func parseUserID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] == '+' || raw[0] == '-' {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func derefReply(r *Reply) Reply {
	if r == nil {
		return Reply{}
	}
	return *r
}
