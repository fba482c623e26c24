package repository

import (
	"context"
	"strings"

	"github.com/reclaimhq/reclaim/internal/journal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO journal_entries (
			id, tx_type, entity_id, actor_id, payload, hash, timestamp, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TxType,
		entry.EntityID,
		entry.ActorID,
		entry.Payload,
		entry.Hash,
		entry.Timestamp,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{})

	if txType := strings.TrimSpace(string(filter.TxType)); txType != "" {
		stmt = stmt.Where("tx_type = ?", txType)
	}
	if entityID := strings.TrimSpace(filter.EntityID); entityID != "" {
		stmt = stmt.Where("entity_id = ?", entityID)
	}
	if actorID := strings.TrimSpace(filter.ActorID); actorID != "" {
		stmt = stmt.Where("actor_id = ?", actorID)
	}
	if filter.Since != nil {
		stmt = stmt.Where("timestamp >= ?", filter.Since.UTC())
	}
	if filter.Until != nil {
		stmt = stmt.Where("timestamp <= ?", filter.Until.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(timestamp < ?) OR (timestamp = ? AND id < ?)",
			filter.Cursor.Timestamp,
			filter.Cursor.Timestamp,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("timestamp desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
