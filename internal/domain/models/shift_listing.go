package models

import (
	"time"
)

// ListingStatus represents the claim state of a marketplace listing
type ListingStatus string

const (
	ListingStatusOpen    ListingStatus = "OPEN"
	ListingStatusClaimed ListingStatus = "CLAIMED"
)

// EscrowStatus represents the funding-guarantee state of a listing
// 只允许单向迁移: PENDING → LOCKED → RELEASED
type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "PENDING"
	EscrowStatusLocked   EscrowStatus = "LOCKED"
	EscrowStatusReleased EscrowStatus = "RELEASED"
)

// ShiftListing 表示内部市场的悬赏班次
// 不变式: ClaimerID 非空 当且仅当 Status 为 CLAIMED
type ShiftListing struct {
	BaseModel
	PosterID  uint          `gorm:"index;not null" json:"poster_id"`
	Role      string        `gorm:"type:varchar(50);not null" json:"role"`
	ShiftDate string        `gorm:"type:varchar(10);not null" json:"shift_date"` // YYYY-MM-DD
	StartTime string        `gorm:"type:varchar(5);not null" json:"start_time"`  // HH:MM
	EndTime   string        `gorm:"type:varchar(5);not null" json:"end_time"`    // HH:MM
	Rate      float64       `gorm:"not null" json:"rate"`
	Status    ListingStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status"`
	ClaimerID *uint         `json:"claimer_id,omitempty"`
	Escrow    EscrowStatus  `gorm:"type:varchar(20);not null;default:'PENDING'" json:"escrow"`
	// BroadcastID 同一次SOS广播发布的悬赏共享一个标识
	BroadcastID string `gorm:"type:varchar(36);index" json:"broadcast_id,omitempty"`
}

// ScheduledShift 表示悬赏被认领后为认领人生成的排班条目
type ScheduledShift struct {
	BaseModel
	WorkerID  uint      `gorm:"index;not null" json:"worker_id"`
	ListingID uint      `gorm:"index;not null" json:"listing_id"`
	Role      string    `gorm:"type:varchar(50);not null" json:"role"`
	ShiftDate string    `gorm:"type:varchar(10);not null" json:"shift_date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Rate      float64   `gorm:"not null" json:"rate"`
	ClaimedAt time.Time `json:"claimed_at"`
}
