package models

import (
	"time"
)

// ShiftStatus represents the on-shift status of a worker
type ShiftStatus string

const (
	ShiftStatusActive   ShiftStatus = "active"
	ShiftStatusInactive ShiftStatus = "inactive"
)

// WorkerShift 表示员工的班次状态记录，按员工ID做插入或更新
// 不变式: ShiftStart 为零值 当且仅当 Status 为 inactive
type WorkerShift struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	WorkerID uint        `gorm:"uniqueIndex;not null" json:"worker_id"`
	Status   ShiftStatus `gorm:"type:varchar(20);not null;default:'inactive'" json:"status"`
	// ShiftStart 本次班次的开始时间，仅在上班状态有意义
	ShiftStart *time.Time `json:"shift_start,omitempty"`
	// AccruedBalance 未结算的累计税前收入，跨班次保留直到结算
	AccruedBalance float64   `gorm:"not null;default:0" json:"accrued_balance"`
	LastLat        float64   `json:"last_lat"`
	LastLon        float64   `json:"last_lon"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Worker *Worker `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
}

// IsActive 判断员工是否处于上班状态
func (s *WorkerShift) IsActive() bool {
	return s.Status == ShiftStatusActive
}
