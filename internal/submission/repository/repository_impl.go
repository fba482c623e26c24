package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.SubmissionRecord) error {
	if record == nil {
		return nil
	}
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SubmissionRecord, error) {
	var record domain.SubmissionRecord
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) ListPending(ctx context.Context, db *gorm.DB, provider string, maxAttempts, limit int) ([]*domain.SubmissionRecord, error) {
	var records []*domain.SubmissionRecord
	err := db.WithContext(ctx).
		Where("provider = ?", provider).
		Where("status IN ?", []domain.Status{domain.StatusPending, domain.StatusFailed}).
		Where("attempts < ?", maxAttempts).
		Order("created_at asc, id asc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.SubmissionRecord, error) {
	var records []*domain.SubmissionRecord
	stmt := db.WithContext(ctx).Model(&domain.SubmissionRecord{})

	if filter.CaseID != 0 {
		stmt = stmt.Where("case_id = ?", filter.CaseID)
	}
	if filter.UserID != 0 {
		stmt = stmt.Where("user_id = ?", filter.UserID)
	}
	if provider := strings.TrimSpace(filter.Provider); provider != "" {
		stmt = stmt.Where("provider = ?", provider)
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdateSubmitted(ctx context.Context, db *gorm.DB, id snowflake.ID, externalID string, status domain.Status, attempts int) error {
	return r.update(ctx, db, id, map[string]any{
		"external_id": externalID,
		"status":      status,
		"attempts":    attempts,
		"last_error":  nil,
	})
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) error {
	return r.update(ctx, db, id, map[string]any{
		"status": status,
	})
}

func (r *repo) UpdateFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, attempts int, lastError string) error {
	return r.update(ctx, db, id, map[string]any{
		"status":     domain.StatusFailed,
		"attempts":   attempts,
		"last_error": lastError,
	})
}

func (r *repo) Reset(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.update(ctx, db, id, map[string]any{
		"status":     domain.StatusPending,
		"attempts":   0,
		"last_error": nil,
	})
}

func (r *repo) update(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) error {
	values["updated_at"] = time.Now().UTC()
	result := db.WithContext(ctx).
		Model(&domain.SubmissionRecord{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
