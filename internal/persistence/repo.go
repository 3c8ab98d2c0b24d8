// Package persistence mirrors the in-memory order state into SQL. The mirror
// is write-only from the bot's point of view: nothing here is read back to
// make decisions.
package persistence

import (
	"context"
	"time"

	"github.com/angelmondragon/orderbot/internal/orders"
	"github.com/angelmondragon/orderbot/pkg/db"
	"github.com/angelmondragon/orderbot/pkg/db/models"
	"github.com/angelmondragon/orderbot/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Writer is the set of durable writes the bot issues.
type Writer interface {
	UpsertUser(ctx context.Context, userID int64, displayName, username string) error
	UpsertOrder(ctx context.Context, order orders.Order, status enums.OrderStatus) error
	UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus, at time.Time) error
	IncrementDailyStats(ctx context.Context, day string, amount int) error
	DeleteOrder(ctx context.Context, id string) error
}

// Repository implements Writer with GORM.
type Repository struct {
	db *gorm.DB
}

var _ Writer = (*Repository)(nil)

// NewRepository constructs a repository bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// UpsertUser inserts the user or refreshes their display identity.
func (r *Repository) UpsertUser(ctx context.Context, userID int64, displayName, username string) error {
	user := models.User{UserID: userID, DisplayName: displayName, Username: username}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "username", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "upsert user")
	}
	return nil
}

// UpsertOrder writes the full order row with the given status.
func (r *Repository) UpsertOrder(ctx context.Context, order orders.Order, status enums.OrderStatus) error {
	row := toModel(order, status)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "username", "items_text", "total", "address",
			"status", "tracking", "paid_at", "completed_at", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "upsert order")
	}
	return nil
}

// UpdateOrderStatus changes the status of an existing row and stamps the
// matching timestamp column.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, status enums.OrderStatus, at time.Time) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	updates := map[string]any{"status": status}
	switch status {
	case enums.OrderStatusPaid:
		updates["paid_at"] = at
	case enums.OrderStatusShipped:
		updates["completed_at"] = at
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not mirrored").
			WithDetails(map[string]any{"order_id": id})
	}
	return nil
}

// IncrementDailyStats adds one shipped order worth amount to day. A racing
// first insert for the same day falls back to the update path.
func (r *Repository) IncrementDailyStats(ctx context.Context, day string, amount int) error {
	tx := r.db.WithContext(ctx)
	bump := func() (int64, error) {
		res := tx.Model(&models.DailyStat{}).Where("day = ?", day).Updates(map[string]any{
			"revenue":    gorm.Expr("revenue + ?", amount),
			"orders":     gorm.Expr("orders + 1"),
			"updated_at": time.Now().UTC(),
		})
		return res.RowsAffected, res.Error
	}

	rows, err := bump()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "increment daily stats")
	}
	if rows > 0 {
		return nil
	}
	err = tx.Create(&models.DailyStat{Day: day, Revenue: amount, Orders: 1}).Error
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert daily stats")
	}
	if _, err := bump(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "increment daily stats")
	}
	return nil
}

// DeleteOrder removes the mirrored row. Deleting a missing row is not an error.
func (r *Repository) DeleteOrder(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{}).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete order")
	}
	return nil
}

func toModel(order orders.Order, status enums.OrderStatus) models.Order {
	row := models.Order{
		ID:          order.ID,
		UserID:      order.UserID,
		DisplayName: order.DisplayName,
		Username:    order.Username,
		ItemsText:   order.ItemsText,
		Total:       order.Total,
		Address:     order.Address,
		Status:      status,
		CreatedAt:   order.CreatedAt,
		PaidAt:      order.PaidAt,
		CompletedAt: order.CompletedAt,
	}
	if order.Tracking != "" {
		tracking := order.Tracking
		row.Tracking = &tracking
	}
	return row
}
