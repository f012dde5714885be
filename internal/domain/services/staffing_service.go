package services

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
	"medshift-http-service/pkg/logger"
)

// 配比规则: 1名员工照看3名高护理等级病人，1名员工照看6名普通病人
const (
	highAcuityRatio = 3
	standardRatio   = 6
)

// StaffingReport 人员配备核算结果
type StaffingReport struct {
	Department    string `json:"department"`
	TotalPatients int    `json:"total_patients"`
	HighAcuity    int    `json:"high_acuity"`
	Required      int    `json:"required"`
	ActualActive  int    `json:"actual_active"`
	// Variance 实际减去需求，负数表示人手短缺
	Variance       int  `json:"variance"`
	SOSTriggered   bool `json:"sos_triggered"`
	BountiesPosted int  `json:"bounties_posted"`
}

// InterfaceStaffingService defines the staffing calculator interface
type InterfaceStaffingService interface {
	RequiredStaff(totalPatients, highAcuity int) int
	Variance(actualActive, required int) int
	SubmitCensus(department string, totalPatients, highAcuity int, updatedBy uint, baseRate float64) (*StaffingReport, error)
	GetCensus(department string) (*models.CensusRecord, error)
}

// StaffingService 根据在册病人统计推算需求人数，短缺时触发SOS悬赏广播
type StaffingService struct {
	DB     *gorm.DB
	Config *config.Config
	Shift  InterfaceShiftService
	Market InterfaceMarketService
}

// NewStaffingService 创建一个新的人员配备服务
func NewStaffingService(db *gorm.DB, cfg *config.Config, shift InterfaceShiftService, market InterfaceMarketService) InterfaceStaffingService {
	return &StaffingService{
		DB:     db,
		Config: cfg,
		Shift:  shift,
		Market: market,
	}
}

// 1 RequiredStaff 计算需求人数
// ceil(高护理/3) + ceil(max(0, 总数−高护理)/6)，分项各自向上取整，不允许小数覆盖折抵
func (s *StaffingService) RequiredStaff(totalPatients, highAcuity int) int {
	if highAcuity < 0 {
		highAcuity = 0
	}
	standard := totalPatients - highAcuity
	if standard < 0 {
		standard = 0
	}

	required := int(math.Ceil(float64(highAcuity)/highAcuityRatio)) +
		int(math.Ceil(float64(standard)/standardRatio))
	return required
}

// 2 Variance 实际在班人数与需求的差值，负数为短缺
func (s *StaffingService) Variance(actualActive, required int) int {
	return actualActive - required
}

// 3 SubmitCensus 主管提交科室在册统计
// 按科室名插入或更新（最新覆盖），随后核算配备；短缺时按缺口数量发布加成悬赏并锁定托管
func (s *StaffingService) SubmitCensus(department string, totalPatients, highAcuity int, updatedBy uint, baseRate float64) (*StaffingReport, error) {
	if department == "" {
		return nil, errors.New("科室名称不能为空")
	}
	if totalPatients < 0 || highAcuity < 0 || highAcuity > totalPatients {
		return nil, errors.New("病人统计数值非法")
	}

	census := models.CensusRecord{
		Department:    department,
		TotalPatients: totalPatients,
		HighAcuity:    highAcuity,
		UpdatedBy:     updatedBy,
	}
	// 每个科室同一时间只有一条记录
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "department"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_patients", "high_acuity", "updated_by", "updated_at"}),
	}).Create(&census).Error
	if err != nil {
		return nil, err
	}

	required := s.RequiredStaff(totalPatients, highAcuity)

	activeCount, err := s.Shift.ActiveWorkerCount()
	if err != nil {
		return nil, err
	}
	variance := s.Variance(int(activeCount), required)

	report := &StaffingReport{
		Department:    department,
		TotalPatients: totalPatients,
		HighAcuity:    highAcuity,
		Required:      required,
		ActualActive:  int(activeCount),
		Variance:      variance,
	}

	// 负差值触发SOS广播，按缺口绝对值发布悬赏，窗口为自当前时刻起的8小时应急班
	if variance < 0 {
		shortfall := -variance
		now := time.Now()
		listings, err := s.Market.SOSBroadcast(updatedBy, department, baseRate,
			now.Format("2006-01-02"), now.Format("15:04"), now.Add(8*time.Hour).Format("15:04"), shortfall)
		if err != nil {
			// 广播失败不回滚已提交的统计，调用方从报告中看不到悬赏即知
			logger.Error("SOS广播失败 (department=%s, shortfall=%d): %v", department, shortfall, err)
		} else {
			report.SOSTriggered = true
			report.BountiesPosted = len(listings)
		}
	}

	return report, nil
}

// 4 GetCensus 读取科室在册统计
func (s *StaffingService) GetCensus(department string) (*models.CensusRecord, error) {
	var census models.CensusRecord
	if err := s.DB.Where("department = ?", department).First(&census).Error; err != nil {
		return nil, err
	}
	return &census, nil
}
