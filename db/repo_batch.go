package db

import (
	"context"
	"fmt"

	"Gin_postgres_redis_device_tracker/models"

	"gorm.io/gorm"
)

// Batch state engine: administrative status overrides that bypass the
// assignment ledger. Membership is validated inside the transaction so a
// miss rolls the whole batch back — either every device moves or none does.

func missingIDs(requested []string, found []models.Device) []string {
	have := make(map[string]bool, len(found))
	for _, d := range found {
		have[d.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// UpdateStatusBatch 批量置状态：先校验所有 id 都存在，再一次性更新
func (r *Repo) UpdateStatusBatch(ctx context.Context, deviceIDs []string, status models.DeviceStatus) error {
	if len(deviceIDs) == 0 {
		return fmt.Errorf("deviceIds empty: %w", ErrInvalidInput)
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.Device
		if err := tx.Where("id IN ?", deviceIDs).Find(&found).Error; err != nil {
			return err
		}
		if missing := missingIDs(deviceIDs, found); len(missing) > 0 {
			return &MissingDevicesError{IDs: missing}
		}

		return tx.Model(&models.Device{}).
			Where("id IN ?", deviceIDs).
			Updates(map[string]any{
				"status":  status,
				"version": gorm.Expr("version + 1"),
			}).Error
	})
}

type RestoreItem struct {
	DeviceID string              `json:"deviceId"`
	Status   models.DeviceStatus `json:"status"`
}

// RestoreStates 批量恢复：每台设备恢复到各自指定的状态
func (r *Repo) RestoreStates(ctx context.Context, items []RestoreItem) error {
	if len(items) == 0 {
		return fmt.Errorf("items empty: %w", ErrInvalidInput)
	}

	ids := make([]string, 0, len(items))
	target := make(map[string]models.DeviceStatus, len(items))
	for _, it := range items {
		ids = append(ids, it.DeviceID)
		target[it.DeviceID] = it.Status
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.Device
		if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
			return err
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			return &MissingDevicesError{IDs: missing}
		}

		for _, d := range found {
			status, ok := target[d.ID]
			if !ok {
				// 理论上不会发生：found 由 ids 查询得来
				return fmt.Errorf("missing target state for device %s: %w", d.ID, ErrInvalidInput)
			}
			if err := tx.Model(&models.Device{}).
				Where("id = ?", d.ID).
				Updates(map[string]any{
					"status":  status,
					"version": gorm.Expr("version + 1"),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
