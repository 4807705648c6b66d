package models

import (
	"time"

	"gorm.io/datatypes"
)

// Flag values stored in the summary_flag column. Live summaries written by the
// ingestion job carry "true"; filtered write-back documents carry "filtered" so
// they can never be picked up as a source summary.
const (
	FlagSummary  = "true"
	FlagFiltered = "filtered"
)

// FilteredCacheKey is the fixed synthetic key of the write-back document.
const FilteredCacheKey = "__summary__:filtered"

// SummaryDocument holds one columnar betting record: every bet attribute is a
// same-length JSON array inside Payload, aligned by index.
type SummaryDocument struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	DocKey     string  `gorm:"type:varchar(120);not null;uniqueIndex"`
	Collection string  `gorm:"type:varchar(80);not null;index:idx_summary_lookup,priority:1"`
	UserID     *string `gorm:"type:varchar(80);index:idx_summary_lookup,priority:2"`

	SummaryFlag string         `gorm:"type:varchar(20);not null;index:idx_summary_lookup,priority:3"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`

	GeneratedAt *time.Time `gorm:"type:timestamptz;index"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SummaryDocument) TableName() string {
	return "summary_documents"
}
