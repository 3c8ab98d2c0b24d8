package bot

import (
	"context"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
)

// handleText routes free text: an operator choosing a moderation target
// comes first, then address collection. Anything else is ignored.
func (s *service) handleText(ctx context.Context, ev Event) (Reply, error) {
	if ev.Operator && s.moderation.AwaitingTarget(ctx, ev.UserID) {
		return s.submitTarget(ctx, ev)
	}

	result, err := s.sessions.Advance(ctx, ev.UserID, ev.Text)
	if err != nil {
		switch {
		case pkgerrors.HasCode(err, pkgerrors.CodeValidation), pkgerrors.HasCode(err, pkgerrors.CodeStateConflict):
			return reply(plain(notUnderstoodText)), nil
		default:
			s.logg.Error(s.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "create order", err)
			return reply(markdown("⚠️ We could not place your order. Please send your *Return #* again.")), nil
		}
	}

	switch result.Status {
	case session.AdvanceCollecting:
		return reply(markdown(stagePrompts[result.Stage])), nil
	case session.AdvanceOrderCreated:
		return s.orderCreated(ctx, result.Order), nil
	default:
		return Reply{}, nil
	}
}

func (s *service) submitTarget(ctx context.Context, ev Event) (Reply, error) {
	prompt, err := s.moderation.SubmitTarget(ctx, ev.UserID, ev.Text)
	if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		return reply(plain("❗ Please send a numeric user ID.", consoleBackRow)), nil
	}
	if err != nil {
		return Reply{}, err
	}

	cancel := row(button("❌ Cancel", tokenCancelAdmin))
	if prompt.Kind == enums.ModerationKindDelete {
		return reply(markdown(
			formatTarget("⚠️ Are you sure you want to delete the most recent *pending* order for user %d?", prompt.Target),
			row(button("✅ Confirm Delete", formatTarget(tokenConfirmDelete+":%d", prompt.Target))),
			cancel,
		)), nil
	}
	return reply(markdown(
		formatTarget("⚠️ Are you sure you want to reset *all* session data for user %d?", prompt.Target),
		row(button("✅ Confirm Reset", formatTarget(tokenConfirmReset+":%d", prompt.Target))),
		cancel,
	)), nil
}

// orderCreated sends the confirmation to the buyer, alerts the operator and
// mirrors the new order.
func (s *service) orderCreated(ctx context.Context, order orders.Order) Reply {
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.metrics.IncOrdersCreated()
	s.mirror.UpsertOrder(ctx, order, enums.OrderStatusPending)
	s.notify(ctx, s.operatorID, markdown(newOrderAlert(order, s.stats.Location())))
	s.logg.Info(ctx, "order created")

	return reply(
		withImage(markdown(orderSummary(order)), s.images.Confirmation),
		withImage(markdown(paymentInstructions), s.images.Instructions),
		plain("✅ Once your payment is received, you'll get a confirmation message."),
	)
}
