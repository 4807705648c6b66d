package repository

import (
	"context"
	"time"

	"statsnbet/internal/models"
)

type ListSummariesParams struct {
	Collection *string
	UserID     *string
	Flag       *string
	Limit      int
	Offset     int
	OrderBy    string
	Asc        *bool
}

// Repository is the document-store surface consumed by the filter pipeline
// and the HTTP handlers.
type Repository interface {
	// GetLatestSummary locates the most recent live summary for a collection,
	// optionally narrowed to one user, by descending generation timestamp
	// (creation timestamp as tiebreak). Returns nil when none matches.
	GetLatestSummary(ctx context.Context, collection string, userID *string) (*models.SummaryDocument, error)
	ListSummaries(ctx context.Context, params ListSummariesParams) ([]models.SummaryDocument, error)
	CountSummaries(ctx context.Context, params ListSummariesParams) (int64, error)

	// UpsertFilteredCache replaces the write-back document for its doc key.
	// Concurrent writers race last-write-wins; the cache is not a source of
	// truth.
	UpsertFilteredCache(ctx context.Context, item *models.SummaryDocument) error
	DeleteStaleCaches(ctx context.Context, before time.Time) (int64, error)

	GetUserSetting(ctx context.Context, userID, collection string) (*models.UserSetting, error)
	UpsertUserSetting(ctx context.Context, item *models.UserSetting) error
}
