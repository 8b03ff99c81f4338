// models/device.go
package models

import "time"

const DeviceTable = "igd_devices"
const AssignmentTable = "igd_device_assignments"

// DeviceStatus 设备状态，与数据库里的字符串一一对应
type DeviceStatus string

const (
	StatusGoodCondition DeviceStatus = "GOOD_CONDITION" // 状态良好，可被分配
	StatusFair          DeviceStatus = "FAIR"           // 有轻微磨损，暂不外借
	StatusOccupied      DeviceStatus = "OCCUPIED"       // 已被某个工单占用
	StatusNeedsRepair   DeviceStatus = "NEEDS_REPAIR"   // 待维修
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case StatusGoodCondition, StatusFair, StatusOccupied, StatusNeedsRepair:
		return true
	}
	return false
}

// ParseDeviceStatus validates a raw status string from the wire.
func ParseDeviceStatus(raw string) (DeviceStatus, bool) {
	s := DeviceStatus(raw)
	return s, s.Valid()
}

type Device struct {
	ID      string       `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string       `gorm:"size:100;not null" json:"name"`
	Brand   string       `gorm:"size:100;not null" json:"brand"`
	Barcode string       `gorm:"size:120;uniqueIndex;not null" json:"barcode"` // 唯一编号
	Status  DeviceStatus `gorm:"size:20;not null;default:'GOOD_CONDITION'" json:"status"`

	// 乐观锁：每次写入 version+1，携带旧 version 的写会被拒绝
	Version int64 `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeviceAssignment is one ledger row: a device held by an order for a span
// of time. Rows are append-only; release fills released_at exactly once and
// the row then becomes history.
type DeviceAssignment struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID  string `gorm:"type:uuid;index;not null" json:"orderId"`
	DeviceID string `gorm:"type:uuid;index;not null" json:"deviceId"`

	// 记录的是调用方评估的设备状态：分配时为 OCCUPIED，释放时写入归还评估
	Status DeviceStatus `gorm:"size:20;not null" json:"status"`

	AssignedAt time.Time  `gorm:"index;not null" json:"assignedAt"`
	ReleasedAt *time.Time `gorm:"index" json:"releasedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Device) TableName() string           { return DeviceTable }
func (DeviceAssignment) TableName() string { return AssignmentTable }
