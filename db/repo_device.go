package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_device_tracker/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Devices

type CreateDeviceInput struct {
	Name    string
	Brand   string
	Barcode string
	Status  models.DeviceStatus
}

func (r *Repo) CreateDevice(ctx context.Context, in CreateDeviceInput) (*models.Device, error) {
	d := &models.Device{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Brand:   strings.TrimSpace(in.Brand),
		Barcode: strings.TrimSpace(in.Barcode),
		Status:  in.Status,
	}
	if d.Status == "" {
		d.Status = models.StatusGoodCondition
	}
	if err := r.DB.WithContext(ctx).Create(d).Error; err != nil {
		// 唯一索引兜底并发下的 barcode 冲突
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("barcode %s: %w", d.Barcode, ErrBarcodeTaken)
		}
		return nil, err
	}
	return d, nil
}

func (r *Repo) FindDeviceByID(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("id %s: %w", id, ErrDeviceNotFound)
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) FindDeviceByBarcode(ctx context.Context, barcode string) (*models.Device, error) {
	var d models.Device
	if err := r.DB.WithContext(ctx).First(&d, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("barcode %s: %w", barcode, ErrDeviceNotFound)
		}
		return nil, err
	}
	return &d, nil
}

func (r *Repo) ListDevices(ctx context.Context) ([]models.Device, error) {
	var ds []models.Device
	err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&ds).Error
	return ds, err
}

func (r *Repo) ListDevicesByStatuses(ctx context.Context, statuses []models.DeviceStatus) ([]models.Device, error) {
	var ds []models.Device
	err := r.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&ds).Error
	return ds, err
}

func (r *Repo) ListDevicesByIDs(ctx context.Context, ids []string) ([]models.Device, error) {
	var ds []models.Device
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&ds).Error
	return ds, err
}

// UpdateDeviceInput: nil 字段保持原值；Version 必须等于当前行的 version
type UpdateDeviceInput struct {
	Name    *string
	Brand   *string
	Barcode *string
	Status  *models.DeviceStatus
	Version int64
}

// UpdateDevice applies a partial edit guarded by the optimistic version
// column. A write carrying a stale version touches zero rows and fails with
// ErrStaleVersion; the caller re-reads and retries.
func (r *Repo) UpdateDevice(ctx context.Context, id string, in UpdateDeviceInput) (*models.Device, error) {
	var updated models.Device
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Device
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("id %s: %w", id, ErrDeviceNotFound)
			}
			return err
		}

		fields := map[string]any{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}
		if in.Name != nil {
			fields["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Brand != nil {
			fields["brand"] = strings.TrimSpace(*in.Brand)
		}
		if in.Status != nil {
			fields["status"] = *in.Status
		}
		if in.Barcode != nil {
			bc := strings.TrimSpace(*in.Barcode)
			if bc != d.Barcode {
				// 只有 barcode 变更时才重查唯一性；命中其他设备 → 冲突
				var other models.Device
				err := tx.First(&other, "barcode = ?", bc).Error
				if err == nil && other.ID != id {
					return fmt.Errorf("barcode %s: %w", bc, ErrBarcodeTaken)
				}
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
			fields["barcode"] = bc
		}

		res := tx.Model(&models.Device{}).
			Where("id = ? AND version = ?", id, in.Version).
			Updates(fields)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("barcode: %w", ErrBarcodeTaken)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("id %s version %d: %w", id, in.Version, ErrStaleVersion)
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteDevice removes a device unless the ledger still holds an open
// assignment for it. History rows are kept; they reference the id only.
func (r *Repo) DeleteDevice(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.DeviceAssignment{}).
			Where("device_id = ? AND released_at IS NULL", id).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("id %s: %w", id, ErrDeviceInUse)
		}
		res := tx.Delete(&models.Device{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("id %s: %w", id, ErrDeviceNotFound)
		}
		return nil
	})
}
