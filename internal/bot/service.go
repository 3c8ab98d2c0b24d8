package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderbot/internal/catalog"
	"github.com/angelmondragon/orderbot/internal/cooldown"
	"github.com/angelmondragon/orderbot/internal/moderation"
	"github.com/angelmondragon/orderbot/internal/notifications"
	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/internal/persistence"
	"github.com/angelmondragon/orderbot/internal/session"
	"github.com/angelmondragon/orderbot/internal/stats"
	"github.com/angelmondragon/orderbot/pkg/clock"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"github.com/angelmondragon/orderbot/pkg/logger"
)

type orderStore interface {
	orders.Reader
	AcceptPayment(ctx context.Context, userID int64) (orders.Order, error)
	Ship(ctx context.Context, userID int64, tracking string) (orders.Order, error)
}

type cooldownGuard interface {
	Check(ctx context.Context, userID int64, kind enums.CooldownKind) (cooldown.Decision, error)
	Record(ctx context.Context, userID int64, kind enums.CooldownKind) error
}

type botMetrics interface {
	ObserveEvent(kind, outcome string)
	ObserveEventDuration(kind string, d time.Duration)
	IncCooldownDenied(kind string)
	IncOrdersCreated()
	IncOrdersShipped()
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvent(string, string)                {}
func (noopMetrics) ObserveEventDuration(string, time.Duration) {}
func (noopMetrics) IncCooldownDenied(string)                   {}
func (noopMetrics) IncOrdersCreated()                          {}
func (noopMetrics) IncOrdersShipped()                          {}

// Service handles inbound chat events.
type Service interface {
	Handle(ctx context.Context, ev Event) (Reply, error)
	OperatorID() int64
}

// ServiceParams wire a Service. Mirror and Metrics are optional.
type ServiceParams struct {
	OperatorID int64
	Catalog    *catalog.Catalog
	Sessions   *session.Store
	Orders     orderStore
	Cooldowns  cooldownGuard
	Moderation *moderation.Workflow
	Stats      *stats.Aggregator
	Notifier   notifications.Notifier
	Mirror     persistence.Mirror
	Metrics    botMetrics
	Logger     *logger.Logger
	Clock      clock.Clock
	Images     Images
	ChunkLen   int
}

type service struct {
	operatorID int64
	catalog    *catalog.Catalog
	sessions   *session.Store
	orders     orderStore
	cooldowns  cooldownGuard
	moderation *moderation.Workflow
	stats      *stats.Aggregator
	notifier   notifications.Notifier
	mirror     persistence.Mirror
	metrics    botMetrics
	logg       *logger.Logger
	clock      clock.Clock
	images     Images
	chunkLen   int
}

// NewService validates the collaborators and builds the service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.OperatorID == 0:
		return nil, fmt.Errorf("operator id required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case params.Sessions == nil:
		return nil, fmt.Errorf("session store required")
	case params.Orders == nil:
		return nil, fmt.Errorf("order store required")
	case params.Cooldowns == nil:
		return nil, fmt.Errorf("cooldown guard required")
	case params.Moderation == nil:
		return nil, fmt.Errorf("moderation workflow required")
	case params.Stats == nil:
		return nil, fmt.Errorf("stats aggregator required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		operatorID: params.OperatorID,
		catalog:    params.Catalog,
		sessions:   params.Sessions,
		orders:     params.Orders,
		cooldowns:  params.Cooldowns,
		moderation: params.Moderation,
		stats:      params.Stats,
		notifier:   params.Notifier,
		mirror:     params.Mirror,
		metrics:    params.Metrics,
		logg:       params.Logger,
		clock:      params.Clock,
		images:     params.Images,
		chunkLen:   params.ChunkLen,
	}
	if s.mirror == nil {
		s.mirror = persistence.Noop{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.images == (Images{}) {
		s.images = DefaultImages()
	}
	if s.chunkLen <= 0 {
		s.chunkLen = notifications.DefaultChunkLen
	}
	return s, nil
}

func (s *service) OperatorID() int64 { return s.operatorID }

// Handle dispatches one event. The returned error is non-nil only for a
// malformed event; every domain failure is turned into a reply.
func (s *service) Handle(ctx context.Context, ev Event) (Reply, error) {
	if !ev.Kind.IsValid() {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown event kind").
			WithDetails(map[string]any{"kind": string(ev.Kind)})
	}
	if ev.UserID <= 0 {
		return Reply{}, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be positive")
	}
	ev.Operator = ev.UserID == s.operatorID

	started := s.clock.Now()
	ctx = s.logg.WithEventKind(s.logg.WithUserID(ctx, ev.UserID), ev.Kind.String())

	if s.sessions.Touch(ctx, ev.UserID, ev.DisplayName, ev.Username) {
		s.mirror.UpsertUser(ctx, ev.UserID, ev.DisplayName, ev.Username)
	}

	var (
		out Reply
		err error
	)
	switch ev.Kind {
	case enums.EventKindCommand:
		out, err = s.handleCommand(ctx, ev)
	case enums.EventKindButton:
		out, err = s.handleButton(ctx, ev)
	case enums.EventKindText:
		out, err = s.handleText(ctx, ev)
	}
	if err != nil {
		out = s.failureReply(ctx, err)
	}

	s.metrics.ObserveEvent(ev.Kind.String(), outcome(err))
	s.metrics.ObserveEventDuration(ev.Kind.String(), s.clock.Now().Sub(started))
	return out, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(pkgerrors.CodeOf(err))
}

// failureReply renders errors that the individual handlers did not turn into
// a specific message themselves.
func (s *service) failureReply(ctx context.Context, err error) Reply {
	code := pkgerrors.CodeOf(err)
	if !pkgerrors.MetadataFor(code).Expected {
		s.logg.Error(s.logg.WithField(ctx, "error_dump", pkgerrors.Dump(err)), "event handling failed", err)
		return reply(plain("⚠️ Something went wrong. Please try again."))
	}
	switch code {
	case pkgerrors.CodeUnauthorized:
		return reply(plain(unauthorizedText))
	case pkgerrors.CodeEmptyCart:
		return reply(plain(emptyCartText))
	case pkgerrors.CodeStateConflict:
		return reply(plain("⚠️ That action is no longer valid. Open the console and start again.", consoleBackRow))
	case pkgerrors.CodeNotFound:
		return reply(plain("❌ Not found."))
	default:
		return reply(plain(notUnderstoodText))
	}
}

const (
	unauthorizedText  = "🚫 You are not authorized to use this command."
	emptyCartText     = "You didn’t pick anything 😅"
	notUnderstoodText = "Sorry, I didn’t catch that. Please try again."
)

var errUnauthorized = pkgerrors.New(pkgerrors.CodeUnauthorized, "operator only")

func (s *service) requireOperator(ev Event) error {
	if !ev.Operator {
		return errUnauthorized
	}
	return nil
}

// notify sends best effort. The notifier logs its own delivery failures; a
// synchronous notifier error is logged here and otherwise ignored.
func (s *service) notify(ctx context.Context, userID int64, msg notifications.Message) {
	if err := s.notifier.Notify(ctx, userID, msg); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "notify_user_id", userID), "notification failed: "+err.Error())
	}
}

// checkCooldown returns a non-nil reply when the action is throttled.
func (s *service) checkCooldown(ctx context.Context, userID int64, kind enums.CooldownKind, render func(hours string) string) (*Reply, error) {
	decision, err := s.cooldowns.Check(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	if decision.Allowed {
		return nil, nil
	}
	s.metrics.IncCooldownDenied(kind.String())
	out := reply(plain(render(waitHours(decision.RemainingHours()))))
	return &out, nil
}

func (s *service) recordCooldown(ctx context.Context, userID int64, kind enums.CooldownKind) {
	if err := s.cooldowns.Record(ctx, userID, kind); err != nil {
		s.logg.Error(ctx, "record cooldown", err)
	}
}
