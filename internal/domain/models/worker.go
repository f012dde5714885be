package models

import (
	"gorm.io/gorm"

	"medshift-http-service/pkg/utils"
)

// Worker 表示小时工员工档案
type Worker struct {
	BaseModel
	Name       string  `gorm:"type:varchar(100);not null" json:"name"`
	Phone      string  `gorm:"type:varchar(20);unique;not null" json:"phone"`
	Role       string  `gorm:"type:varchar(50);not null" json:"role"` // 如: rn, lpn, cna, tech
	Department string  `gorm:"type:varchar(100)" json:"department"`
	HourlyRate float64 `gorm:"not null;default:0" json:"hourly_rate"`
	// Destination 收款账户标识，交给外部支付通道的透明字符串；为空表示未登记
	Destination string `gorm:"type:varchar(200)" json:"destination,omitempty"`
	Status      string `gorm:"type:varchar(20);default:'active'" json:"status"`
	Remark      string `gorm:"type:text" json:"remark"`
	Username    string `gorm:"type:varchar(50);unique;not null" json:"username"`
	Password    string `gorm:"type:varchar(100);not null" json:"-"` // Password not exposed in JSON
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
// BeforeSave 在创建时也会触发，这里同样用长度判断避免对已哈希的密码二次哈希
func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.Password != "" && len(w.Password) < 60 {
		hashedPassword, err := utils.HashPassword(w.Password)
		if err != nil {
			return err
		}
		w.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (w *Worker) BeforeSave(tx *gorm.DB) error {
	// 如果提供了密码且不是已哈希的，对其进行哈希处理
	if w.Password != "" && len(w.Password) < 60 {
		hashedPassword, err := utils.HashPassword(w.Password)
		if err != nil {
			return err
		}
		w.Password = hashedPassword
	}
	return nil
}
