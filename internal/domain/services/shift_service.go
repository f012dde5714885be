package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
)

// 班次状态机的前置条件错误，返回给调用方重新核对状态即可，不属于致命错误
var (
	ErrAlreadyActive = errors.New("worker is already on shift")
	ErrNotActive     = errors.New("worker is not on shift")
)

// InterfaceShiftService defines the shift state machine service interface
type InterfaceShiftService interface {
	ClockIn(workerID uint, lat, lon float64) (*models.WorkerShift, error)
	ClockOut(workerID uint) (float64, *models.WorkerShift, error)
	AutoClockOut(workerID uint, exitDistance, lat, lon float64) (float64, *models.WorkerShift, error)
	GetShift(workerID uint) (*models.WorkerShift, error)
	SettleBalance(workerID uint, destination string) (*SettlementResult, error)
	ReleaseBalance(workerID uint, release func(gross float64) (bool, error)) (bool, float64, error)
	ZeroBalance(workerID uint) error
	ActiveWorkerCount() (int64, error)
	GetWorkLogs(workerID uint, limit int) ([]models.WorkLog, error)
}

// ShiftService 管理员工班次状态机：上班/下班转换、工时计费和审计日志
// 同一员工的读改写序列通过按员工ID分配的互斥锁串行化，不同员工完全并行
type ShiftService struct {
	DB       *gorm.DB
	Config   *config.Config
	Identity InterfaceIdentityService
	Payout   InterfacePayoutService

	workerLocks sync.Map // workerID -> *sync.Mutex

	// now 可在测试中替换以获得确定的时间
	now func() time.Time
}

// NewShiftService 创建一个新的班次服务
func NewShiftService(db *gorm.DB, cfg *config.Config, identity InterfaceIdentityService, payout InterfacePayoutService) InterfaceShiftService {
	return &ShiftService{
		DB:       db,
		Config:   cfg,
		Identity: identity,
		Payout:   payout,
		now:      time.Now,
	}
}

// lockWorker 获取指定员工的互斥锁
func (s *ShiftService) lockWorker(workerID uint) *sync.Mutex {
	mu, _ := s.workerLocks.LoadOrStore(workerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// 1 ClockIn 打卡上班
// 已在上班状态时返回 ErrAlreadyActive；成功时保留原有未结算余额
func (s *ShiftService) ClockIn(workerID uint, lat, lon float64) (*models.WorkerShift, error) {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	// 校验员工档案存在
	if _, err := s.Identity.GetWorkerByID(workerID); err != nil {
		return nil, err
	}

	shift, err := s.getOrInitShift(workerID)
	if err != nil {
		return nil, err
	}

	if shift.IsActive() {
		return nil, ErrAlreadyActive
	}

	start := s.now()
	shift.Status = models.ShiftStatusActive
	shift.ShiftStart = &start
	shift.LastLat = lat
	shift.LastLon = lon

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(shift).Error; err != nil {
			return err
		}
		return tx.Create(&models.WorkLog{
			WorkerID:  workerID,
			Action:    models.WorkLogActionClockIn,
			Amount:    0,
			Note:      fmt.Sprintf("clock in at (%.6f, %.6f)", lat, lon),
			Timestamp: start,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return shift, nil
}

// 2 ClockOut 打卡下班
// 不在上班状态时返回 ErrNotActive；返回本班次税前收入供调用方展示
func (s *ShiftService) ClockOut(workerID uint) (float64, *models.WorkerShift, error) {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	return s.clockOutLocked(workerID, models.WorkLogActionClockOut, "", 0, 0, false)
}

// 3 AutoClockOut 围栏触发的自动下班，在审计日志中记录离场距离并更新最后位置
func (s *ShiftService) AutoClockOut(workerID uint, exitDistance, lat, lon float64) (float64, *models.WorkerShift, error) {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	note := fmt.Sprintf("geofence exit at %.1fm", exitDistance)
	return s.clockOutLocked(workerID, models.WorkLogActionAutoClockOut, note, lat, lon, true)
}

// clockOutLocked 执行下班转换，调用方必须已持有该员工的锁
func (s *ShiftService) clockOutLocked(workerID uint, action models.WorkLogAction, note string, lat, lon float64, updateLocation bool) (float64, *models.WorkerShift, error) {
	shift, err := s.getShift(workerID)
	if err != nil {
		return 0, nil, err
	}
	if shift == nil || !shift.IsActive() || shift.ShiftStart == nil {
		return 0, nil, ErrNotActive
	}

	rate, err := s.Identity.HourlyRate(workerID)
	if err != nil {
		return 0, nil, err
	}

	end := s.now()
	elapsedHours := end.Sub(*shift.ShiftStart).Seconds() / 3600
	shiftGross := elapsedHours * rate

	shift.Status = models.ShiftStatusInactive
	shift.ShiftStart = nil
	shift.AccruedBalance += shiftGross
	if updateLocation {
		shift.LastLat = lat
		shift.LastLon = lon
	} else {
		shift.LastLat = 0
		shift.LastLon = 0
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Save 不会把 ShiftStart 写回 NULL，这里显式置空
		updates := map[string]interface{}{
			"status":          shift.Status,
			"shift_start":     nil,
			"accrued_balance": shift.AccruedBalance,
			"last_lat":        shift.LastLat,
			"last_lon":        shift.LastLon,
		}
		if err := tx.Model(&models.WorkerShift{}).Where("worker_id = ?", workerID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.WorkLog{
			WorkerID:  workerID,
			Action:    action,
			Amount:    shiftGross,
			Note:      note,
			Timestamp: end,
		}).Error
	})
	if err != nil {
		return 0, nil, err
	}

	return shiftGross, shift, nil
}

// 4 GetShift 读取员工当前班次记录，从未打过卡的员工返回未上班的空记录
func (s *ShiftService) GetShift(workerID uint) (*models.WorkerShift, error) {
	shift, err := s.getShift(workerID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return &models.WorkerShift{
			WorkerID: workerID,
			Status:   models.ShiftStatusInactive,
		}, nil
	}
	return shift, nil
}

// 5 SettleBalance 结算员工当前全部未结算余额
// 读余额→拆分结算→清零的整个序列都在员工锁内完成；并发的结算方只有一个真正出账，
// 落败方读到的余额是0，直接返回nil结果而不写任何流水
func (s *ShiftService) SettleBalance(workerID uint, destination string) (*SettlementResult, error) {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	shift, err := s.getShift(workerID)
	if err != nil {
		return nil, err
	}
	if shift == nil || shift.AccruedBalance == 0 {
		return nil, nil
	}

	settlement, err := s.Payout.Settle(workerID, shift.AccruedBalance, destination)
	if err != nil {
		return nil, err
	}
	if err := s.zeroBalanceLocked(workerID); err != nil {
		return nil, err
	}
	return settlement, nil
}

// 6 ReleaseBalance 在员工锁内读取余额并交给release回调，回调确认出账后清零
// 供托管释放等非拆分出账路径复用同一临界区；回调返回false时余额保持不变
func (s *ShiftService) ReleaseBalance(workerID uint, release func(gross float64) (bool, error)) (bool, float64, error) {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	shift, err := s.getShift(workerID)
	if err != nil {
		return false, 0, err
	}
	var gross float64
	if shift != nil {
		gross = shift.AccruedBalance
	}

	done, err := release(gross)
	if err != nil {
		return false, 0, err
	}
	if !done {
		return false, gross, nil
	}
	if err := s.zeroBalanceLocked(workerID); err != nil {
		return false, gross, err
	}
	return true, gross, nil
}

// 7 ZeroBalance 结算成功后由调用方清零累计余额
// 不变式: 余额要么"未结清"(非零)，要么"已结清"(为零且有对应流水)
func (s *ShiftService) ZeroBalance(workerID uint) error {
	mu := s.lockWorker(workerID)
	mu.Lock()
	defer mu.Unlock()

	return s.zeroBalanceLocked(workerID)
}

// zeroBalanceLocked 清零余额，调用方必须已持有该员工的锁
func (s *ShiftService) zeroBalanceLocked(workerID uint) error {
	return s.DB.Model(&models.WorkerShift{}).
		Where("worker_id = ?", workerID).
		Update("accrued_balance", 0).Error
}

// 8 ActiveWorkerCount 当前处于上班状态的员工数，供人员配备计算使用
func (s *ShiftService) ActiveWorkerCount() (int64, error) {
	var count int64
	err := s.DB.Model(&models.WorkerShift{}).
		Where("status = ?", models.ShiftStatusActive).
		Count(&count).Error
	return count, err
}

// 9 GetWorkLogs 读取员工审计日志，按时间倒序
func (s *ShiftService) GetWorkLogs(workerID uint, limit int) ([]models.WorkLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []models.WorkLog
	err := s.DB.Where("worker_id = ?", workerID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// getShift 按员工ID读取班次记录，不存在时返回nil
func (s *ShiftService) getShift(workerID uint) (*models.WorkerShift, error) {
	var shift models.WorkerShift
	if err := s.DB.Where("worker_id = ?", workerID).First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

// getOrInitShift 读取班次记录，首次打卡时创建初始记录
func (s *ShiftService) getOrInitShift(workerID uint) (*models.WorkerShift, error) {
	shift, err := s.getShift(workerID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		shift = &models.WorkerShift{
			WorkerID: workerID,
			Status:   models.ShiftStatusInactive,
		}
		if err := s.DB.Create(shift).Error; err != nil {
			return nil, err
		}
	}
	return shift, nil
}
