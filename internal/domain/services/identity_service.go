package services

import (
	"errors"

	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
	"medshift-http-service/pkg/utils"
)

// ErrNoDestination 员工未登记收款账户
var ErrNoDestination = errors.New("no payout destination on file")

// InterfaceIdentityService defines the worker identity/profile service interface
type InterfaceIdentityService interface {
	GetAllWorkers(page, pageSize int, search string) ([]models.Worker, int64, error)
	GetWorkerByID(id uint) (*models.Worker, error)
	CreateWorker(worker *models.Worker) error
	UpdateWorker(id uint, updates map[string]interface{}) (*models.Worker, error)
	DeleteWorker(id uint) error
	HourlyRate(workerID uint) (float64, error)
	Destination(workerID uint) (string, error)
	RegisterDestination(workerID uint, destination string) error
}

// IdentityService 提供员工档案与身份相关的服务
type IdentityService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewIdentityService 创建一个新的员工档案服务
func NewIdentityService(db *gorm.DB, cfg *config.Config) InterfaceIdentityService {
	return &IdentityService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllWorkers 获取所有员工，支持分页和搜索
func (s *IdentityService) GetAllWorkers(page, pageSize int, search string) ([]models.Worker, int64, error) {
	var workers []models.Worker
	var total int64

	query := s.DB.Model(&models.Worker{})

	// 如果有搜索关键词，添加搜索条件
	if search != "" {
		query = query.Where("name LIKE ? OR phone LIKE ? OR department LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := query.Limit(pageSize).Offset(offset).Find(&workers).Error; err != nil {
		return nil, 0, err
	}

	return workers, total, nil
}

// 2 GetWorkerByID 根据ID获取员工
func (s *IdentityService) GetWorkerByID(id uint) (*models.Worker, error) {
	var worker models.Worker
	if err := s.DB.First(&worker, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("员工不存在")
		}
		return nil, err
	}
	return &worker, nil
}

// 3 CreateWorker 创建新员工
func (s *IdentityService) CreateWorker(worker *models.Worker) error {
	// 验证手机号唯一性
	var count int64
	if err := s.DB.Model(&models.Worker{}).Where("phone = ?", worker.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("手机号已被使用")
	}

	// 验证用户名唯一性
	if err := s.DB.Model(&models.Worker{}).Where("username = ?", worker.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("用户名已存在")
	}

	return s.DB.Create(worker).Error
}

// 4 UpdateWorker 更新员工信息
func (s *IdentityService) UpdateWorker(id uint, updates map[string]interface{}) (*models.Worker, error) {
	worker, err := s.GetWorkerByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新手机号，需要检查唯一性
	if phone, ok := updates["phone"].(string); ok && phone != worker.Phone {
		var count int64
		if err := s.DB.Model(&models.Worker{}).Where("phone = ? AND id != ?", phone, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("手机号已被其他员工使用")
		}
	}

	// 如果更新用户名，需要检查唯一性
	if username, ok := updates["username"].(string); ok && username != worker.Username {
		var count int64
		if err := s.DB.Model(&models.Worker{}).Where("username = ? AND id != ?", username, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("用户名已被其他员工使用")
		}
	}

	// 如果更新密码，需要进行哈希处理
	if password, ok := updates["password"].(string); ok {
		hashedPassword, err := utils.HashPassword(password)
		if err != nil {
			return nil, errors.New("密码加密失败")
		}
		updates["password"] = hashedPassword
	}

	if err := s.DB.Model(worker).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 重新获取更新后的员工信息
	return s.GetWorkerByID(id)
}

// 5 DeleteWorker 删除员工
func (s *IdentityService) DeleteWorker(id uint) error {
	worker, err := s.GetWorkerByID(id)
	if err != nil {
		return err
	}
	return s.DB.Delete(worker).Error
}

// 6 HourlyRate 查询员工时薪
func (s *IdentityService) HourlyRate(workerID uint) (float64, error) {
	worker, err := s.GetWorkerByID(workerID)
	if err != nil {
		return 0, err
	}
	return worker.HourlyRate, nil
}

// 7 Destination 查询员工收款账户，未登记返回 ErrNoDestination
func (s *IdentityService) Destination(workerID uint) (string, error) {
	worker, err := s.GetWorkerByID(workerID)
	if err != nil {
		return "", err
	}
	if worker.Destination == "" {
		return "", ErrNoDestination
	}
	return worker.Destination, nil
}

// 8 RegisterDestination 登记员工收款账户
func (s *IdentityService) RegisterDestination(workerID uint, destination string) error {
	worker, err := s.GetWorkerByID(workerID)
	if err != nil {
		return err
	}
	return s.DB.Model(worker).Update("destination", destination).Error
}
