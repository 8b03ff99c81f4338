package db

import (
	"Gin_postgres_redis_device_tracker/models"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Audit

func (r *Repo) LogAssignmentEvent(ctx context.Context, action, orderID, deviceID, actor string, note *string) (*models.AssignmentLog, error) {
	entry := &models.AssignmentLog{
		Action:   action,
		OrderID:  orderID,
		DeviceID: deviceID,
		Actor:    actor,
		Note:     note,
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert assignment log: %w", err)
	}
	return entry, nil
}

func (r *Repo) ListAssignmentLog(ctx context.Context, deviceID string, limit int) ([]models.AssignmentLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.DB.WithContext(ctx).Model(&models.AssignmentLog{}).Order("created_at DESC").Limit(limit)
	if deviceID != "" {
		q = q.Where("device_id = ?", deviceID)
	}
	var rows []models.AssignmentLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
