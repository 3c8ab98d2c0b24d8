package models

import "time"

// DailyStat accumulates shipped revenue per calendar day (YYYY-MM-DD in the
// bot's time zone).
type DailyStat struct {
	Day       string    `gorm:"column:day;primaryKey;size:10"`
	Revenue   int       `gorm:"column:revenue;not null;default:0"`
	Orders    int       `gorm:"column:orders;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DailyStat) TableName() string { return "daily_stats" }
