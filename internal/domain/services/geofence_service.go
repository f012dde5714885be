package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
	"medshift-http-service/pkg/geo"
	"medshift-http-service/pkg/logger"
)

// PingOutcome 位置上报的处理结果
type PingOutcome string

const (
	// PingOutcomeIgnored 员工不在班次中，上报被忽略（无操作，不是错误）
	PingOutcomeIgnored PingOutcome = "ignored"
	// PingOutcomeWithinBounds 仍在围栏范围内，无操作
	PingOutcomeWithinBounds PingOutcome = "within_bounds"
	// PingOutcomeAutoClockedOut 越出围栏，已自动打卡下班
	PingOutcomeAutoClockedOut PingOutcome = "auto_clocked_out"
)

// PingResult 表示一次位置上报的完整处理结果
type PingResult struct {
	Outcome       PingOutcome `json:"outcome"`
	Distance      float64     `json:"distance_meters"`
	ShiftGross    float64     `json:"shift_gross,omitempty"`
	Settled       bool        `json:"settled"`
	// SettlementDeferred 未登记收款账户，资金保留在累计余额中等待登记后结算
	SettlementDeferred bool              `json:"settlement_deferred,omitempty"`
	EscrowReleased     bool              `json:"escrow_released,omitempty"`
	Settlement         *SettlementResult `json:"settlement,omitempty"`
}

// InterfaceGeofenceService defines the geofence monitor interface
type InterfaceGeofenceService interface {
	ProcessPing(workerID uint, lat, lon float64) (*PingResult, error)
}

// GeofenceService 消费上班员工的周期性位置上报，越界时触发自动下班和结算
// 围栏检查由移动端/位置层驱动，本服务内部没有定时器
type GeofenceService struct {
	DB       *gorm.DB
	Config   *config.Config
	Shift    InterfaceShiftService
	Market   InterfaceMarketService
	Identity InterfaceIdentityService
	Notify   InterfaceNotifyService
}

// NewGeofenceService 创建一个新的围栏监控服务
func NewGeofenceService(db *gorm.DB, cfg *config.Config, shift InterfaceShiftService, market InterfaceMarketService, identity InterfaceIdentityService, notify InterfaceNotifyService) InterfaceGeofenceService {
	return &GeofenceService{
		DB:       db,
		Config:   cfg,
		Shift:    shift,
		Market:   market,
		Identity: identity,
		Notify:   notify,
	}
}

// ProcessPing 处理一次位置上报
// 1. 员工不在班次中 → 忽略（无操作结果）
// 2. 距离 ≤ 围栏半径 → 仍在范围内
// 3. 距离 > 围栏半径 → 自动下班，然后结算走结算器或托管释放，二者只执行其一
func (s *GeofenceService) ProcessPing(workerID uint, lat, lon float64) (*PingResult, error) {
	shift, err := s.Shift.GetShift(workerID)
	if err != nil {
		return nil, err
	}
	if !shift.IsActive() {
		return &PingResult{Outcome: PingOutcomeIgnored}, nil
	}

	facilityLat, facilityLon, radius := s.facilityGeofence()
	distance := geo.Haversine(lat, lon, facilityLat, facilityLon)

	if distance <= radius {
		return &PingResult{Outcome: PingOutcomeWithinBounds, Distance: distance}, nil
	}

	// 越界: 自动打卡下班。并发上报时只有第一个会成功，其余观察到未上班状态
	shiftGross, updated, err := s.Shift.AutoClockOut(workerID, distance, lat, lon)
	if err != nil {
		if errors.Is(err, ErrNotActive) {
			return &PingResult{Outcome: PingOutcomeIgnored, Distance: distance}, nil
		}
		return nil, err
	}

	result := &PingResult{
		Outcome:    PingOutcomeAutoClockedOut,
		Distance:   distance,
		ShiftGross: shiftGross,
	}

	// 结算目的地：未登记则挂起结算，资金保留在累计余额中
	destination, err := s.Identity.Destination(workerID)
	if err != nil {
		if errors.Is(err, ErrNoDestination) {
			result.SettlementDeferred = true
			logger.Info("员工 %d 未登记收款账户，结算挂起（余额 %.2f 保留）", workerID, updated.AccruedBalance)
			return result, nil
		}
		return nil, err
	}

	// 路由结算：托管锁定中的悬赏班次走托管释放，否则走结算器，二者只执行其一
	// 读余额→出账→清零的序列都在员工锁内完成，和手动结算并发时只会有一方真正出账
	if listing := s.activeEscrowListing(workerID); listing != nil {
		released, _, err := s.Shift.ReleaseBalance(workerID, func(gross float64) (bool, error) {
			return s.Market.ReleaseEscrow(listing.ID, workerID, destination, gross)
		})
		if err != nil {
			return nil, err
		}
		result.EscrowReleased = released
		result.Settled = released
	} else {
		settlement, err := s.Shift.SettleBalance(workerID, destination)
		if err != nil {
			return nil, err
		}
		result.Settlement = settlement
		result.Settled = settlement != nil
	}

	// 结算已提交，通知只是尽力而为的旁路
	if s.Notify != nil {
		msg := fmt.Sprintf("您已离开工作区域（距离 %.0f 米），系统已自动打卡下班并结算", distance)
		if err := s.Notify.Send(destination, msg); err != nil {
			logger.Warning("自动下班通知发送失败 (worker=%d): %v", workerID, err)
		}
	}

	return result, nil
}

// facilityGeofence 读取设施围栏参数，数据库无记录时退回配置值
func (s *GeofenceService) facilityGeofence() (lat, lon, radius float64) {
	var facility models.Facility
	if err := s.DB.Where("name = ?", s.Config.FacilityName).First(&facility).Error; err == nil {
		return facility.Lat, facility.Lon, facility.GeofenceRadius
	}
	return s.Config.FacilityLat, s.Config.FacilityLon, s.Config.GeofenceRadius
}

// activeEscrowListing 查找该员工认领的、托管仍处于锁定状态的悬赏班次
func (s *GeofenceService) activeEscrowListing(workerID uint) *models.ShiftListing {
	var listing models.ShiftListing
	err := s.DB.Where("claimer_id = ? AND status = ? AND escrow = ?",
		workerID, models.ListingStatusClaimed, models.EscrowStatusLocked).
		Order("updated_at DESC").
		First(&listing).Error
	if err != nil {
		return nil
	}
	return &listing
}
