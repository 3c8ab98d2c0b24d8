package session

import (
	"github.com/angelmondragon/orderbot/pkg/enums"
	"github.com/angelmondragon/orderbot/pkg/types"
)

// Session is the per-user conversation state. Values returned by the Store
// are snapshots; mutating them has no effect on the store.
type Session struct {
	UserID       int64
	DisplayName  string
	Username     string
	Cart         types.Cart
	Stage        Stage
	Address      types.Address
	Draft        *Draft
	AdminPending *PendingAction
}

// Draft freezes the cart when checkout starts. The order identifier is
// assigned only when the order is created.
type Draft struct {
	Items     types.Cart
	ItemsText string
	Total     int
}

// PendingAction is the operator's in-flight moderation step. A zero Target
// with HasTarget false means the target has not been submitted yet.
type PendingAction struct {
	Kind      enums.ModerationKind
	Target    int64
	HasTarget bool
}

func (s *Session) clone() Session {
	out := *s
	out.Cart = s.Cart.Clone()
	if s.Draft != nil {
		d := *s.Draft
		d.Items = s.Draft.Items.Clone()
		out.Draft = &d
	}
	if s.AdminPending != nil {
		p := *s.AdminPending
		out.AdminPending = &p
	}
	return out
}

func (s *Session) setField(stage Stage, value string) {
	switch stage {
	case StageFirstName:
		s.Address.FirstName = value
	case StageLastName:
		s.Address.LastName = value
	case StageCity:
		s.Address.City = value
	case StageState:
		s.Address.State = value
	case StageZip:
		s.Address.Zip = value
	case StageStreet:
		s.Address.Street = value
	case StageReturnNumber:
		s.Address.ReturnNumber = value
	}
}
