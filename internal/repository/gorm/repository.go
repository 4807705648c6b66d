package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"statsnbet/internal/models"
	"statsnbet/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetLatestSummary(ctx context.Context, collection string, userID *string) (*models.SummaryDocument, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SummaryDocument{}).
		Where("collection = ?", strings.TrimSpace(collection)).
		Where("summary_flag = ?", models.FlagSummary)
	if userID != nil && strings.TrimSpace(*userID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*userID))
	}
	var item models.SummaryDocument
	err := query.
		Order("generated_at DESC NULLS LAST").
		Order("created_at DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func summariesQuery(db *gorm.DB, params repository.ListSummariesParams) *gorm.DB {
	query := db.Model(&models.SummaryDocument{})
	if params.Collection != nil && strings.TrimSpace(*params.Collection) != "" {
		query = query.Where("collection = ?", strings.TrimSpace(*params.Collection))
	}
	if params.UserID != nil && strings.TrimSpace(*params.UserID) != "" {
		query = query.Where("user_id = ?", strings.TrimSpace(*params.UserID))
	}
	if params.Flag != nil && strings.TrimSpace(*params.Flag) != "" {
		query = query.Where("summary_flag = ?", strings.TrimSpace(*params.Flag))
	}
	return query
}

func (s *Store) ListSummaries(ctx context.Context, params repository.ListSummariesParams) ([]models.SummaryDocument, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := summariesQuery(s.db.WithContext(ctx), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.SummaryDocument
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSummaries(ctx context.Context, params repository.ListSummariesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := summariesQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpsertFilteredCache(ctx context.Context, item *models.SummaryDocument) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"collection",
			"user_id",
			"summary_flag",
			"payload",
			"generated_at",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) DeleteStaleCaches(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("summary_flag = ?", models.FlagFiltered).
		Where("updated_at < ?", before).
		Delete(&models.SummaryDocument{})
	return res.RowsAffected, res.Error
}

func (s *Store) GetUserSetting(ctx context.Context, userID, collection string) (*models.UserSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.UserSetting
	err := s.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Where("collection = ?", strings.TrimSpace(collection)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertUserSetting(ctx context.Context, item *models.UserSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "collection"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"bankroll_reference",
			"currency",
			"updated_at",
		}),
	}).Create(item).Error
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	switch column {
	case "created_at", "generated_at", "collection", "user_id":
	default:
		column = fallback
	}
	dir := "DESC"
	if asc != nil && *asc {
		dir = "ASC"
	}
	return query.Order(column + " " + dir)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
