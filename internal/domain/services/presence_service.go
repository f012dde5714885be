package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
)

// BeaconResult 信标上报的处理结果
type BeaconResult struct {
	Accepted bool   `json:"accepted"`
	Floor    string `json:"floor,omitempty"`
	Room     string `json:"room,omitempty"`
}

// HazardEligibility 危险岗位补贴核验结果
type HazardEligibility struct {
	Eligible bool    `json:"eligible"`
	Reason   string  `json:"reason,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
}

// InterfacePresenceService defines the indoor presence verifier interface
type InterfacePresenceService interface {
	RecordBeacon(workerID uint, floor, room string, signalStrength float64) (*BeaconResult, error)
	CheckHazardEligibility(workerID uint, targetRoom string) (*HazardEligibility, error)
	GetPresence(workerID uint) (*models.PresenceRecord, error)
}

// PresenceService 消费信标上报维护员工室内最后位置，并核验危险岗位补贴资格
type PresenceService struct {
	DB     *gorm.DB
	Config *config.Config

	// now 可在测试中替换以获得确定的时间
	now func() time.Time
}

// NewPresenceService 创建一个新的驻场核验服务
func NewPresenceService(db *gorm.DB, cfg *config.Config) InterfacePresenceService {
	return &PresenceService{
		DB:     db,
		Config: cfg,
		now:    time.Now,
	}
}

// 1 RecordBeacon 接收信标上报
// 信号强度高于近场阈值才接受（越强越近，阈值对应房间级距离）；弱信号是无操作，不是错误
func (s *PresenceService) RecordBeacon(workerID uint, floor, room string, signalStrength float64) (*BeaconResult, error) {
	if signalStrength <= s.Config.BeaconSignalThreshold {
		return &BeaconResult{Accepted: false}, nil
	}

	record := models.PresenceRecord{
		WorkerID: workerID,
		Floor:    floor,
		Room:     room,
		LastSeen: s.now(),
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"floor", "room", "last_seen", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return nil, err
	}

	return &BeaconResult{Accepted: true, Floor: floor, Room: room}, nil
}

// 2 CheckHazardEligibility 核验危险岗位补贴资格
// 房间匹配且驻场记录在有效窗口内才合格；合格时追加一条固定金额的补贴日志
// 补贴按独立悬赏式记账，不进入受结算拆分的累计班次余额
// 同一驻场窗口内重复授予用最近补贴日志做去重（每个窗口每个房间只发一次）
func (s *PresenceService) CheckHazardEligibility(workerID uint, targetRoom string) (*HazardEligibility, error) {
	record, err := s.GetPresence(workerID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &HazardEligibility{Eligible: false, Reason: "无驻场记录"}, nil
	}

	if record.Room != targetRoom {
		return &HazardEligibility{Eligible: false, Reason: "驻场房间不匹配"}, nil
	}

	window := time.Duration(s.Config.PresenceWindowMinutes) * time.Minute
	now := s.now()
	if now.Sub(record.LastSeen) > window {
		return &HazardEligibility{Eligible: false, Reason: "驻场记录已过期"}, nil
	}

	// 去重: 该窗口内已对同一房间发放过补贴则不再重复发放
	// 日志备注就是去重键，必须整串相等匹配，防止 "ISO-4" 误匹配 "ISO-402" 的历史发放
	note := fmt.Sprintf("hazard pay for room %s", targetRoom)
	var recent int64
	err = s.DB.Model(&models.WorkLog{}).
		Where("worker_id = ? AND action = ? AND note = ? AND timestamp > ?",
			workerID, models.WorkLogActionHazardPay, note, record.LastSeen.Add(-window)).
		Count(&recent).Error
	if err != nil {
		return nil, err
	}
	if recent > 0 {
		return &HazardEligibility{Eligible: false, Reason: "本驻场窗口内已发放补贴"}, nil
	}

	amount := s.Config.HazardPayAmount
	err = s.DB.Create(&models.WorkLog{
		WorkerID:  workerID,
		Action:    models.WorkLogActionHazardPay,
		Amount:    amount,
		Note:      note,
		Timestamp: now,
	}).Error
	if err != nil {
		return nil, err
	}

	return &HazardEligibility{Eligible: true, Amount: amount}, nil
}

// 3 GetPresence 读取员工驻场记录，不存在时返回nil
func (s *PresenceService) GetPresence(workerID uint) (*models.PresenceRecord, error) {
	var record models.PresenceRecord
	if err := s.DB.Where("worker_id = ?", workerID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
