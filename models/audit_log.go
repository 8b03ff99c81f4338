package models

import "time"

// AssignmentLog 记录每次 assign/release 的审计信息
// Actor 来自 JWT 的 sub，可能为空（内部调用）。
type AssignmentLog struct {
	ID       string  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action   string  `gorm:"size:20;not null" json:"action"` // "assign" / "release"
	OrderID  string  `gorm:"type:uuid" json:"orderId"`
	DeviceID string  `gorm:"type:uuid;index" json:"deviceId"`
	Actor    string  `gorm:"size:255" json:"actor"`
	Note     *string `json:"note,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (AssignmentLog) TableName() string { return "igd_assignment_log" }
