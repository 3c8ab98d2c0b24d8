package models

import (
	"time"

	"github.com/angelmondragon/orderbot/pkg/enums"
	"github.com/angelmondragon/orderbot/pkg/types"
)

// Order mirrors an in-memory order. The address is stored as a JSON document.
type Order struct {
	ID          string            `gorm:"column:id;primaryKey;size:16"`
	UserID      int64             `gorm:"column:user_id;not null;index:idx_orders_user_created,priority:1"`
	DisplayName string            `gorm:"column:display_name;not null;default:''"`
	Username    string            `gorm:"column:username;not null;default:''"`
	ItemsText   string            `gorm:"column:items_text;not null"`
	Total       int               `gorm:"column:total;not null"`
	Address     types.Address     `gorm:"column:address;type:text;not null"`
	Status      enums.OrderStatus `gorm:"column:status;size:16;not null;index:idx_orders_status"`
	Tracking    *string           `gorm:"column:tracking"`
	CreatedAt   time.Time         `gorm:"column:created_at;not null;index:idx_orders_user_created,priority:2"`
	PaidAt      *time.Time        `gorm:"column:paid_at"`
	CompletedAt *time.Time        `gorm:"column:completed_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
