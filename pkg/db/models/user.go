package models

import "time"

// User is a chat user who has interacted with the bot.
type User struct {
	UserID      int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	DisplayName string    `gorm:"column:display_name;not null;default:''"`
	Username    string    `gorm:"column:username;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
