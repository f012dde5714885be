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

// 悬赏市场的状态冲突结果，属于并发竞争的正常落败方，不是异常路径
var (
	ErrListingNotFound = errors.New("listing does not exist")
	ErrListingNotOpen  = errors.New("listing is not open")
	ErrEscrowNotLocked = errors.New("escrow is not locked")
)

// InterfaceMarketService defines the escrow bounty market interface
type InterfaceMarketService interface {
	PostBounty(posterID uint, role string, rate float64, shiftDate, startTime, endTime string) (*models.ShiftListing, error)
	LockEscrow(listingID uint) error
	Claim(listingID, workerID uint) (*models.ShiftListing, error)
	ReleaseEscrow(listingID, workerID uint, destination string, amount float64) (bool, error)
	SOSBroadcast(posterID uint, role string, baseRate float64, shiftDate, startTime, endTime string, count int) ([]models.ShiftListing, error)
	GetListings(status string, page, pageSize int) ([]models.ShiftListing, int64, error)
	GetListingByID(listingID uint) (*models.ShiftListing, error)
}

// MarketService 管理悬赏班次的生命周期: 发布 → 锁定托管 → 认领 → 释放托管
type MarketService struct {
	DB     *gorm.DB
	Config *config.Config
	Notify InterfaceNotifyService
	Wallet InterfaceWalletService
}

// NewMarketService 创建一个新的悬赏市场服务
func NewMarketService(db *gorm.DB, cfg *config.Config, notify InterfaceNotifyService, wallet InterfaceWalletService) InterfaceMarketService {
	return &MarketService{
		DB:     db,
		Config: cfg,
		Notify: notify,
		Wallet: wallet,
	}
}

// 1 PostBounty 发布悬赏班次，初始状态 OPEN / 托管 PENDING
func (s *MarketService) PostBounty(posterID uint, role string, rate float64, shiftDate, startTime, endTime string) (*models.ShiftListing, error) {
	listing := &models.ShiftListing{
		PosterID:  posterID,
		Role:      role,
		ShiftDate: shiftDate,
		StartTime: startTime,
		EndTime:   endTime,
		Rate:      rate,
		Status:    models.ListingStatusOpen,
		Escrow:    models.EscrowStatusPending,
	}

	if err := s.DB.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// 2 LockEscrow 锁定托管资金，给认领人开工前的支付保证
// 悬赏不存在时静默失败（无事发生）
func (s *MarketService) LockEscrow(listingID uint) error {
	result := s.DB.Model(&models.ShiftListing{}).
		Where("id = ? AND escrow = ?", listingID, models.EscrowStatusPending).
		Update("escrow", models.EscrowStatusLocked)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warning("托管锁定无效: 悬赏 %d 不存在或托管不在PENDING状态", listingID)
	}
	return nil
}

// 3 Claim 认领悬赏班次
// 用条件更新做原子的OPEN→CLAIMED转换，并发认领时最多一人成功，落败方得到 ErrListingNotOpen
func (s *MarketService) Claim(listingID, workerID uint) (*models.ShiftListing, error) {
	var listing models.ShiftListing
	if err := s.DB.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ShiftListing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusOpen).
			Updates(map[string]interface{}{
				"status":     models.ListingStatusClaimed,
				"claimer_id": workerID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrListingNotOpen
		}

		// 为认领人生成排班条目
		if err := tx.Create(&models.ScheduledShift{
			WorkerID:  workerID,
			ListingID: listingID,
			Role:      listing.Role,
			ShiftDate: listing.ShiftDate,
			StartTime: listing.StartTime,
			EndTime:   listing.EndTime,
			Rate:      listing.Rate,
			ClaimedAt: now,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&models.WorkLog{
			WorkerID:  workerID,
			Action:    models.WorkLogActionBountyClaim,
			Amount:    0,
			Note:      fmt.Sprintf("claimed listing %d (%s %s %s-%s)", listingID, listing.Role, listing.ShiftDate, listing.StartTime, listing.EndTime),
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetListingByID(listingID)
}

// 4 ReleaseEscrow 释放托管资金并出账给认领人
// 只有LOCKED状态可释放；对已RELEASED的悬赏重复调用是无操作（返回false），绝不产生重复出账
// 释放成功时在同一事务中写入一条带挂单ID的NET_PAY流水，余额清零由调用方在锁内完成
func (s *MarketService) ReleaseEscrow(listingID, workerID uint, destination string, amount float64) (bool, error) {
	payoutTx := models.Transaction{
		ID:          uuid.New().String(),
		WorkerID:    workerID,
		Amount:      amount,
		Status:      models.TransactionStatusFinalized,
		Destination: destination,
		Type:        models.TransactionTypeNetPay,
		ListingID:   listingID,
		CreatedAt:   time.Now(),
	}

	released := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ShiftListing{}).
			Where("id = ? AND escrow = ?", listingID, models.EscrowStatusLocked).
			Update("escrow", models.EscrowStatusReleased)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 不存在、未锁定或已释放，均按无操作上报
			return nil
		}
		released = true
		return tx.Create(&payoutTx).Error
	})
	if err != nil || !released {
		return false, err
	}

	// 流水已定稿，向外部支付通道转发出账请求；失败只记录日志
	if s.Wallet != nil && destination != "" && amount > 0 {
		if err := s.Wallet.SubmitPayout(destination, amount, payoutTx.ID); err != nil {
			logger.Warning("托管出账请求转发失败 (listing=%d, tx=%s): %v", listingID, payoutTx.ID, err)
		}
	}

	// 通知认领人托管资金已释放，失败不回滚
	if s.Notify != nil && destination != "" {
		if err := s.Notify.Send(destination, fmt.Sprintf("悬赏班次 %d 的托管资金已释放", listingID)); err != nil {
			logger.Warning("托管释放通知发送失败 (listing=%d): %v", listingID, err)
		}
	}

	return true, nil
}

// 5 SOSBroadcast 人员短缺应急广播
// 按缺口数量发布悬赏并立即逐一锁定托管；基础时薪缺失时使用保底加成时薪
func (s *MarketService) SOSBroadcast(posterID uint, role string, baseRate float64, shiftDate, startTime, endTime string, count int) ([]models.ShiftListing, error) {
	if count <= 0 {
		return nil, nil
	}

	surgeRate := baseRate * s.Config.SurgeMultiplier
	if baseRate <= 0 {
		surgeRate = s.Config.SurgeFloorRate
	}

	broadcastID := uuid.New().String()
	listings := make([]models.ShiftListing, 0, count)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			listing := models.ShiftListing{
				PosterID:    posterID,
				Role:        role,
				ShiftDate:   shiftDate,
				StartTime:   startTime,
				EndTime:     endTime,
				Rate:        surgeRate,
				Status:      models.ListingStatusOpen,
				Escrow:      models.EscrowStatusLocked, // 广播悬赏带资金保证，直接锁定
				BroadcastID: broadcastID,
			}
			if err := tx.Create(&listing).Error; err != nil {
				return err
			}
			listings = append(listings, listing)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 系统广播通知，失败不影响已发布的悬赏
	if s.Notify != nil {
		if err := s.Notify.BroadcastSystemMessage("sos_bounty", map[string]interface{}{
			"broadcast_id": broadcastID,
			"role":         role,
			"rate":         surgeRate,
			"shift_date":   shiftDate,
			"count":        count,
		}); err != nil {
			logger.Warning("SOS广播通知发送失败 (broadcast=%s): %v", broadcastID, err)
		}
	}

	return listings, nil
}

// 6 GetListings 查询悬赏列表，支持状态过滤和分页
func (s *MarketService) GetListings(status string, page, pageSize int) ([]models.ShiftListing, int64, error) {
	var listings []models.ShiftListing
	var total int64

	query := s.DB.Model(&models.ShiftListing{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// 7 GetListingByID 根据ID获取悬赏班次
func (s *MarketService) GetListingByID(listingID uint) (*models.ShiftListing, error) {
	var listing models.ShiftListing
	if err := s.DB.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}
