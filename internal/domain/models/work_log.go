package models

import (
	"time"
)

// WorkLogAction 审计日志动作标签
type WorkLogAction string

const (
	WorkLogActionClockIn      WorkLogAction = "CLOCK_IN"
	WorkLogActionClockOut     WorkLogAction = "CLOCK_OUT"
	WorkLogActionAutoClockOut WorkLogAction = "AUTO_CLOCK_OUT"
	WorkLogActionHazardPay    WorkLogAction = "HAZARD_PAY"
	WorkLogActionSettlement   WorkLogAction = "SETTLEMENT"
	WorkLogActionBountyClaim  WorkLogAction = "BOUNTY_CLAIM"
)

// WorkLog 表示审计历史日志，所有改变状态的操作都追加一条，从不修改或删除
type WorkLog struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	WorkerID uint          `gorm:"index;not null" json:"worker_id"`
	Action   WorkLogAction `gorm:"type:varchar(50);not null" json:"action"`
	Amount   float64       `json:"amount"`
	Note     string        `gorm:"type:text" json:"note"`
	Timestamp time.Time    `gorm:"index" json:"timestamp"`
}
