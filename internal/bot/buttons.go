package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/orderbot/internal/moderation"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

// Callback tokens carried by inline buttons.
const (
	tokenCategory     = "cat"
	tokenItem         = "item"
	tokenAdd          = "add"
	tokenViewCart     = "view_cart"
	tokenClearCart    = "clear_cart"
	tokenBack         = "back"
	tokenConfirmOrder = "confirm_order"
	tokenDone         = "done"

	tokenAdminCurrent   = "admin_current"
	tokenAdminCompleted = "admin_completed"
	tokenAdminStats     = "admin_stats"
	tokenAdminAccept    = "admin_accept"
	tokenAdminShip      = "admin_ship"
	tokenAdminDelete    = "admin_delete"
	tokenAdminReset     = "admin_reset"
	tokenAdminBack      = "admin_back"
	tokenConfirmDelete  = "confirm_delete"
	tokenConfirmReset   = "confirm_reset"
	tokenCancelAdmin    = "cancel_admin"
)

func (s *service) handleButton(ctx context.Context, ev Event) (Reply, error) {
	token := strings.TrimSpace(ev.Callback)
	head, rest, _ := strings.Cut(token, ":")

	switch head {
	case tokenCategory:
		return s.showCategory(ctx, ev.UserID, rest)
	case tokenItem:
		return s.showProduct(ctx, ev.UserID, rest)
	case tokenAdd:
		return s.addToCart(ctx, ev.UserID, rest)
	case tokenViewCart:
		return s.viewCart(ctx, ev.UserID), nil
	case tokenClearCart:
		s.sessions.ClearCart(ctx, ev.UserID)
		return reply(plain("🗑️ Cart cleared!", backRow)), nil
	case tokenBack:
		count := len(s.sessions.CartView(ctx, ev.UserID))
		return reply(withImage(markdown("👋 Choose a category:", mainMenu(s.catalog, count)...), s.catalog.MenuImage())), nil
	case tokenConfirmOrder:
		if len(s.sessions.CartView(ctx, ev.UserID)) == 0 {
			return reply(plain(emptyCartText)), nil
		}
		return reply(plain("⚠️ Are you sure you’re ready to finalize your order?",
			row(button("✅ Yes, finalize", tokenDone)),
			row(button("⬅️ Cancel", tokenBack)),
		)), nil
	case tokenDone:
		return s.beginCheckout(ctx, ev.UserID)
	}

	if err := s.requireOperator(ev); err != nil {
		if !isConsoleToken(head) {
			return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown button").
				WithDetails(map[string]any{"callback": token})
		}
		return Reply{}, err
	}
	return s.handleConsoleButton(ctx, ev, head, rest, token)
}

func isConsoleToken(head string) bool {
	switch head {
	case tokenAdminCurrent, tokenAdminCompleted, tokenAdminStats, tokenAdminAccept, tokenAdminShip,
		tokenAdminDelete, tokenAdminReset, tokenAdminBack, tokenConfirmDelete, tokenConfirmReset, tokenCancelAdmin:
		return true
	}
	return false
}

func (s *service) showCategory(ctx context.Context, userID int64, category string) (Reply, error) {
	products, ok := s.catalog.Products(category)
	if !ok {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown category").
			WithDetails(map[string]any{"category": category})
	}
	count := len(s.sessions.CartView(ctx, userID))
	msg := markdown(fmt.Sprintf("📦 *%s Menu:*", category), categoryMenu(products, count)...)
	return reply(withImage(msg, s.catalog.MenuImage())), nil
}

func (s *service) showProduct(ctx context.Context, userID int64, name string) (Reply, error) {
	product, ok := s.catalog.Product(name)
	if !ok {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown product").
			WithDetails(map[string]any{"product": name})
	}
	count := len(s.sessions.CartView(ctx, userID))
	image := product.ImageURL
	if image == "" {
		image = s.catalog.MenuImage()
	}
	msg := markdown(fmt.Sprintf("🛍️ *%s*\nSelect a quantity:", product.Name), priceMenu(product.Name, product.Options, count)...)
	return reply(withImage(msg, image)), nil
}

// addToCart accepts "product:label:price". The price is checked against the
// catalog; a stale or forged price is rejected.
func (s *service) addToCart(ctx context.Context, userID int64, payload string) (Reply, error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "malformed add token")
	}
	price, err := strconv.Atoi(parts[2])
	if err != nil {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "malformed price")
	}
	item, err := s.catalog.Item(parts[0], parts[1], price)
	if err != nil {
		return Reply{}, err
	}
	count := s.sessions.AddToCart(ctx, userID, item)
	options, _ := s.catalog.Prices(item.Product)
	out := reply(markdown(fmt.Sprintf("🛍️ *%s*\nSelect a quantity:", item.Product), priceMenu(item.Product, options, count)...))
	out.Toast = fmt.Sprintf("Added %s %s ✅", item.QuantityLabel, item.Product)
	return out, nil
}

func (s *service) viewCart(ctx context.Context, userID int64) Reply {
	cart := s.sessions.CartView(ctx, userID)
	if len(cart) == 0 {
		return reply(plain("🛒 Your cart is empty!", backRow))
	}
	return reply(markdown(cartText(cart), cartMenu()...))
}

// beginCheckout gates on the order cooldown, freezes the cart and starts
// address collection. The cooldown starts here, not when the order is
// created.
func (s *service) beginCheckout(ctx context.Context, userID int64) (Reply, error) {
	throttled, err := s.checkCooldown(ctx, userID, enums.CooldownKindOrder, func(hours string) string {
		return fmt.Sprintf("⏳ Wait %sh before another order.", hours)
	})
	if err != nil || throttled != nil {
		return derefReply(throttled), err
	}
	if _, err := s.sessions.StartCheckout(ctx, userID); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeEmptyCart) {
			return reply(plain(emptyCartText)), nil
		}
		return Reply{}, err
	}
	s.recordCooldown(ctx, userID, enums.CooldownKindOrder)
	return reply(markdown(stagePrompts[session.StageFirstName])), nil
}

func (s *service) handleConsoleButton(ctx context.Context, ev Event, head, rest, token string) (Reply, error) {
	loc := s.stats.Location()
	switch head {
	case tokenAdminCurrent:
		out := reply(orderList("📦 *Current Orders*", s.orders.List(ctx, orders.PartitionPending), loc, s.chunkLen)...)
		out.add(consoleBackMessage())
		return out, nil
	case tokenAdminCompleted:
		out := reply(orderList("✅ *Completed Orders*", s.orders.List(ctx, orders.PartitionCompleted), loc, s.chunkLen)...)
		out.add(consoleBackMessage())
		return out, nil
	case tokenAdminStats:
		return reply(markdown(statsReport(s.stats.Summary(ctx), loc)), consoleBackMessage()), nil
	case tokenAdminAccept:
		return reply(plain("💳 Use /accept <user_id> to confirm payment.", consoleBackRow)), nil
	case tokenAdminShip:
		return reply(plain("🚚 Use /ship <user_id> <tracking_number> to send shipping info.", consoleBackRow)), nil
	case tokenAdminDelete:
		if err := s.moderation.BeginDelete(ctx, ev.UserID); err != nil {
			return Reply{}, err
		}
		return reply(markdown("🗑️ Send the *user ID* whose most recent order you want to delete (pending only).", consoleBackRow)), nil
	case tokenAdminReset:
		if err := s.moderation.BeginReset(ctx, ev.UserID); err != nil {
			return Reply{}, err
		}
		return reply(markdown("🔄 Send the *user ID* to reset their session (cart, address, cooldown).", consoleBackRow)), nil
	case tokenAdminBack:
		return s.console(ctx, ev)
	case tokenConfirmDelete:
		return s.confirm(ctx, ev.UserID, enums.ModerationKindDelete, rest)
	case tokenConfirmReset:
		return s.confirm(ctx, ev.UserID, enums.ModerationKindReset, rest)
	case tokenCancelAdmin:
		if err := s.moderation.Cancel(ctx, ev.UserID); err != nil {
			return Reply{}, err
		}
		return reply(plain("❌ Cancelled.", consoleBackRow)), nil
	}
	return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown button").
		WithDetails(map[string]any{"callback": token})
}

// confirm runs the pending moderation action. A target embedded in the
// token is only compared against the stored one, never acted on directly.
func (s *service) confirm(ctx context.Context, actor int64, kind enums.ModerationKind, rawTarget string) (Reply, error) {
	var claimed *int64
	if rawTarget != "" {
		id, ok := parseUserID(rawTarget)
		if !ok {
			return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "malformed confirmation target")
		}
		claimed = &id
	}

	effect, err := s.moderation.Confirm(ctx, actor, kind, claimed)
	if err != nil {
		return Reply{}, err
	}
	return s.applyEffect(ctx, effect), nil
}

func (s *service) applyEffect(ctx context.Context, effect moderation.Effect) Reply {
	target := effect.Target
	switch effect.Kind {
	case enums.ModerationKindDelete:
		if !effect.Found {
			return reply(plain("❌ No pending order found for that user.", consoleBackRow))
		}
		ctx = s.logg.WithOrderID(ctx, effect.Deleted.ID)
		s.mirror.DeleteOrder(ctx, effect.Deleted.ID)
		s.notify(ctx, target, plain("⚠️ Your last order has been reset by the admin. You can start a new one anytime with /start."))
		s.logg.Info(ctx, "pending order deleted by operator")
		return reply(plain(fmt.Sprintf("🗑️ Order for user %d deleted.", target), consoleBackRow))
	default:
		s.notify(ctx, target, plain("🔄 Your session has been reset. You can start again with /start."))
		s.logg.Info(s.logg.WithField(ctx, "target_user_id", target), "user session reset by operator")
		return reply(plain(fmt.Sprintf("✅ User %d reset successfully.", target), consoleBackRow))
	}
}
