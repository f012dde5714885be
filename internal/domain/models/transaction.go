package models

import (
	"time"
)

// TransactionType represents the kind of settlement entry
type TransactionType string

const (
	TransactionTypeNetPay         TransactionType = "NET_PAY"
	TransactionTypeTaxWithholding TransactionType = "TAX_WITHHOLDING"
)

// TransactionStatus represents the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusFinalized TransactionStatus = "finalized"
)

// Transaction 表示结算流水，只追加、写入后不可变
// 结算器每次结算成对写入: 一条NET_PAY + 一条TAX_WITHHOLDING
// 托管释放出账单独写一条NET_PAY并带上对应的悬赏挂单ID
type Transaction struct {
	ID       string            `gorm:"type:varchar(36);primaryKey" json:"id"` // UUID
	WorkerID uint              `gorm:"index;not null" json:"worker_id"`
	Amount   float64           `gorm:"not null" json:"amount"`
	Status   TransactionStatus `gorm:"type:varchar(20);not null" json:"status"`
	// Destination 入账目标，NET_PAY指向员工收款账户，TAX_WITHHOLDING指向财务账户；可为空
	Destination string          `gorm:"type:varchar(200)" json:"destination,omitempty"`
	Type        TransactionType `gorm:"type:varchar(30);not null;index" json:"type"`
	// ListingID 托管释放出账对应的悬赏挂单，普通结算流水为0
	ListingID uint      `gorm:"index" json:"listing_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
