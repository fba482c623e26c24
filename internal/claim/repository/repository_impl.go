package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reclaimhq/reclaim/internal/claim/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, claim *domain.Claim) error {
	if claim == nil {
		return nil
	}
	return db.WithContext(ctx).Create(claim).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Claim, error) {
	var claim domain.Claim
	err := db.WithContext(ctx).First(&claim, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*domain.Claim, error) {
	var claims []*domain.Claim
	stmt := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ClaimStatus) error {
	result := db.WithContext(ctx).Model(&domain.Claim{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}

func (r *repo) UpdateCertainty(ctx context.Context, db *gorm.DB, id snowflake.ID, certainty float64, flaggedAt *time.Time) error {
	updates := map[string]any{
		"certainty":  certainty,
		"updated_at": time.Now().UTC(),
	}
	if flaggedAt != nil {
		updates["flagged_at"] = flaggedAt.UTC()
	}
	result := db.WithContext(ctx).Model(&domain.Claim{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}
