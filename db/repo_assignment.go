package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Gin_postgres_redis_device_tracker/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assignment ledger. The invariant is "at most one open assignment per
// device": both write paths below take a FOR UPDATE row lock before checking
// preconditions, and the partial unique index on (device_id) WHERE
// released_at IS NULL turns any race that slips through into a duplicated
// key error rather than a second open row.

// AssignDevice 分配：原子操作 = 锁住 device → 校验无未释放分配且状态良好 → 新建分配 → 置 OCCUPIED
func (r *Repo) AssignDevice(ctx context.Context, orderID, deviceID string) (*models.DeviceAssignment, error) {
	var assignment *models.DeviceAssignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 锁住该设备
		var d models.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("id %s: %w", deviceID, ErrDeviceNotFound)
			}
			return err
		}

		// 2) 防并发：若存在未释放分配或状态不是 GOOD_CONDITION，则拒绝
		var n int64
		if err := tx.Model(&models.DeviceAssignment{}).
			Where("device_id = ? AND released_at IS NULL", deviceID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("device %s: %w", deviceID, ErrAlreadyAssigned)
		}
		if d.Status != models.StatusGoodCondition {
			return fmt.Errorf("device %s status %s: %w", deviceID, d.Status, ErrNotAssignable)
		}

		// 3) 新建分配
		a := &models.DeviceAssignment{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			DeviceID:   deviceID,
			Status:     models.StatusOccupied,
			AssignedAt: time.Now().UTC(),
		}
		if err := tx.Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("device %s: %w", deviceID, ErrAlreadyAssigned)
			}
			return err
		}

		// 4) 置设备为 OCCUPIED（同一事务，一起提交或一起回滚）
		if err := tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Updates(map[string]any{
				"status":  models.StatusOccupied,
				"version": gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}
		assignment = a
		return nil
	})
	return assignment, err
}

// ReleaseDevice 释放：锁住未释放的分配行 → 写入 released_at 与归还评估 → 设备回到 GOOD_CONDITION
//
// resultingStatus is the caller's assessment of the device after use and is
// recorded on the ledger row only. The device itself always returns to
// GOOD_CONDITION; callers that want the device held back route the assessed
// status through the batch engine afterwards.
func (r *Repo) ReleaseDevice(ctx context.Context, deviceID string, resultingStatus models.DeviceStatus) (*models.DeviceAssignment, error) {
	var released models.DeviceAssignment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.DeviceAssignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&a, "device_id = ? AND released_at IS NULL", deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("device %s: %w", deviceID, ErrAssignmentNotFound)
			}
			return err
		}

		now := time.Now().UTC()
		a.ReleasedAt = &now
		a.Status = resultingStatus
		if err := tx.Save(&a).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Device{}).
			Where("id = ?", deviceID).
			Updates(map[string]any{
				"status":  models.StatusGoodCondition,
				"version": gorm.Expr("version + 1"),
			}).Error; err != nil {
			return err
		}
		released = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &released, nil
}

// AssignmentHistoryRow 历史记录视图，带设备名，供前端/订单服务直接展示
type AssignmentHistoryRow struct {
	DeviceID   string              `json:"deviceId"`
	DeviceName string              `json:"deviceName"`
	OrderID    string              `json:"orderId"`
	Status     models.DeviceStatus `json:"status"`
	AssignedAt time.Time           `json:"assignedAt"`
	ReleasedAt *time.Time          `json:"releasedAt"`
}

// ListAssignmentHistory returns released assignments only, newest release
// first. The open assignment, if any, is not part of history.
func (r *Repo) ListAssignmentHistory(ctx context.Context, deviceID string) ([]AssignmentHistoryRow, error) {
	var rows []AssignmentHistoryRow
	err := r.DB.WithContext(ctx).
		Table(models.AssignmentTable+" a").
		Select("a.device_id, d.name AS device_name, a.order_id, a.status, a.assigned_at, a.released_at").
		Joins("JOIN "+models.DeviceTable+" d ON d.id = a.device_id").
		Where("a.device_id = ? AND a.released_at IS NOT NULL", deviceID).
		Order("a.released_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasActiveAssignment: 是否存在未释放分配；设备不存在时同样返回 false
func (r *Repo) HasActiveAssignment(ctx context.Context, deviceID string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.DeviceAssignment{}).
		Where("device_id = ? AND released_at IS NULL", deviceID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type ActiveFlag struct {
	DeviceID string `json:"deviceId"`
	Active   bool   `json:"active"`
}

// HasActiveAssignments answers the batch variant with one flag per requested
// id, preserving request order. Unknown devices report false.
func (r *Repo) HasActiveAssignments(ctx context.Context, deviceIDs []string) ([]ActiveFlag, error) {
	var open []string
	if err := r.DB.WithContext(ctx).Model(&models.DeviceAssignment{}).
		Where("device_id IN ? AND released_at IS NULL", deviceIDs).
		Pluck("device_id", &open).Error; err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(open))
	for _, id := range open {
		active[id] = true
	}
	out := make([]ActiveFlag, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		out = append(out, ActiveFlag{DeviceID: id, Active: active[id]})
	}
	return out, nil
}
