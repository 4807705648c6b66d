package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserSetting is the per-user reference document consulted by the history
// pipeline to convert percent stakes into absolute amounts.
type UserSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	UserID     string `gorm:"type:varchar(80);not null;uniqueIndex:idx_user_collection,priority:1"`
	Collection string `gorm:"type:varchar(80);not null;uniqueIndex:idx_user_collection,priority:2"`

	BankrollReference *decimal.Decimal `gorm:"type:numeric(30,10)"`
	Currency          string           `gorm:"type:varchar(10)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UserSetting) TableName() string {
	return "user_settings"
}
