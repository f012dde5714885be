package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
	"medshift-http-service/pkg/logger"
)

// ErrInvalidGross 结算金额必须非负
var ErrInvalidGross = errors.New("gross amount must be non-negative")

// SettlementResult 表示一次结算的拆分结果
type SettlementResult struct {
	NetPayout   float64 `json:"net_payout"`
	TaxWithheld float64 `json:"tax_withheld"`
	NetTxID     string  `json:"net_tx_id"`
	TaxTxID     string  `json:"tax_tx_id"`
}

// InterfacePayoutService defines the gross-to-net payout splitter interface
type InterfacePayoutService interface {
	Settle(workerID uint, grossAmount float64, destination string) (*SettlementResult, error)
	GetTransactions(workerID uint, limit int) ([]models.Transaction, error)
}

// PayoutService 把税前金额拆分为净收入和预扣税，并成对写入交易流水
// 不修改员工的累计余额，清零由调用方在结算成功后完成
type PayoutService struct {
	DB     *gorm.DB
	Config *config.Config
	Wallet InterfaceWalletService
}

// NewPayoutService 创建一个新的结算服务
func NewPayoutService(db *gorm.DB, cfg *config.Config, wallet InterfaceWalletService) InterfacePayoutService {
	return &PayoutService{
		DB:     db,
		Config: cfg,
		Wallet: wallet,
	}
}

// 1 Settle 结算税前金额
// 在同一事务中写入NET_PAY和TAX_WITHHOLDING两条流水，要么都成功要么都失败
func (s *PayoutService) Settle(workerID uint, grossAmount float64, destination string) (*SettlementResult, error) {
	if grossAmount < 0 {
		return nil, ErrInvalidGross
	}

	// 先算净额，再用差额作预扣税，保证两笔流水相加严格等于税前金额
	netPayout := grossAmount - grossAmount*s.Config.TotalTaxRate()
	taxWithheld := grossAmount - netPayout

	now := time.Now()
	netTx := models.Transaction{
		ID:          uuid.New().String(),
		WorkerID:    workerID,
		Amount:      netPayout,
		Status:      models.TransactionStatusFinalized,
		Destination: destination,
		Type:        models.TransactionTypeNetPay,
		CreatedAt:   now,
	}
	taxTx := models.Transaction{
		ID:          uuid.New().String(),
		WorkerID:    workerID,
		Amount:      taxWithheld,
		Status:      models.TransactionStatusFinalized,
		Destination: s.Config.TreasuryAccount,
		Type:        models.TransactionTypeTaxWithholding,
		CreatedAt:   now,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&netTx).Error; err != nil {
			return err
		}
		if err := tx.Create(&taxTx).Error; err != nil {
			return err
		}
		return tx.Create(&models.WorkLog{
			WorkerID:  workerID,
			Action:    models.WorkLogActionSettlement,
			Amount:    grossAmount,
			Note:      fmt.Sprintf("net %.2f to %s, tax %.2f withheld", netPayout, destination, taxWithheld),
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	// 流水已定稿，向外部支付通道转发出账请求；失败只记录日志
	if s.Wallet != nil {
		if err := s.Wallet.SubmitPayout(destination, netPayout, netTx.ID); err != nil {
			logger.Warning("出账请求转发失败 (tx=%s): %v", netTx.ID, err)
		}
	}

	return &SettlementResult{
		NetPayout:   netPayout,
		TaxWithheld: taxWithheld,
		NetTxID:     netTx.ID,
		TaxTxID:     taxTx.ID,
	}, nil
}

// 2 GetTransactions 读取员工交易流水，按时间倒序
func (s *PayoutService) GetTransactions(workerID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var txs []models.Transaction
	err := s.DB.Where("worker_id = ?", workerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}
