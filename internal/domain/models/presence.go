package models

import (
	"time"
)

// PresenceRecord 表示员工室内最后出现的位置，按员工ID插入或更新
// 只在有效窗口内用于危险岗位补贴核验，过期视为无效
type PresenceRecord struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	WorkerID uint   `gorm:"uniqueIndex;not null" json:"worker_id"`
	Floor    string `gorm:"type:varchar(20)" json:"floor"`
	Room     string `gorm:"type:varchar(50);not null" json:"room"`
	// LastSeen 最近一次被接受的信标上报时间
	LastSeen  time.Time `gorm:"index;not null" json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
