package repository

import (
	"context"
	"errors"

	"github.com/reclaimhq/reclaim/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.BillingEvent) error {
	if event == nil {
		return nil
	}
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, key string) (*domain.BillingEvent, error) {
	var event domain.BillingEvent
	err := db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}
