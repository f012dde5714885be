package models

import (
	"time"
)

// CensusRecord 表示科室在册病人统计，按科室名插入或更新，最新覆盖旧值
type CensusRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Department    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"department"`
	TotalPatients int       `gorm:"not null" json:"total_patients"`
	HighAcuity    int       `gorm:"not null" json:"high_acuity"`
	UpdatedBy     uint      `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
