package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
)

// newTestDB 打开一个进程内的sqlite数据库并迁移全部模型
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// 内存库跟随连接存在，限制为单连接，并发用例共享同一个库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.Worker{},
		&models.WorkerShift{},
		&models.Transaction{},
		&models.WorkLog{},
		&models.ShiftListing{},
		&models.ScheduledShift{},
		&models.CensusRecord{},
		&models.PresenceRecord{},
		&models.Facility{},
	))
	return db
}

// newTestConfig 返回测试用配置
// 税率用单一的0.25，净收入和税款相加严格等于税前金额，断言不受浮点误差干扰
func newTestConfig() *config.Config {
	return &config.Config{
		FacilityName:          "General Hospital",
		FacilityLat:           31.2304,
		FacilityLon:           121.4737,
		GeofenceRadius:        150,
		TaxRates:              []float64{0.25},
		TreasuryAccount:       "treasury-main",
		SurgeMultiplier:       1.5,
		SurgeFloorRate:        45,
		BeaconSignalThreshold: -65,
		PresenceWindowMinutes: 15,
		HazardPayAmount:       50,
		JWTSecretKey:          "test-secret",
	}
}

var workerSeq uint64

// createTestWorker 建立一条员工档案，手机号和用户名自动去重
func createTestWorker(t *testing.T, db *gorm.DB, rate float64, destination string) *models.Worker {
	t.Helper()

	seq := atomic.AddUint64(&workerSeq, 1)
	worker := &models.Worker{
		Name:        fmt.Sprintf("worker-%d", seq),
		Phone:       fmt.Sprintf("138%08d", seq),
		Role:        "rn",
		Department:  "ICU",
		HourlyRate:  rate,
		Destination: destination,
		Username:    fmt.Sprintf("user%d", seq),
		Password:    "secret123",
	}
	require.NoError(t, db.Create(worker).Error)
	return worker
}

// fakeNotify 记录外发通知的桩实现
type fakeNotify struct {
	sent       []string
	broadcasts []string
}

func (f *fakeNotify) Connect() error { return nil }
func (f *fakeNotify) Disconnect()    {}

func (f *fakeNotify) Send(destination, message string) error {
	f.sent = append(f.sent, destination+": "+message)
	return nil
}

func (f *fakeNotify) BroadcastSystemMessage(messageType string, payload map[string]interface{}) error {
	f.broadcasts = append(f.broadcasts, messageType)
	return nil
}

// fakeWallet 记录出账请求的桩实现
type fakeWallet struct {
	payouts []float64
}

func (f *fakeWallet) SubmitPayout(destination string, amount float64, transactionID string) error {
	f.payouts = append(f.payouts, amount)
	return nil
}

// newShiftServiceAt 构造使用固定时钟的班次服务，clock指向的值可随测试推进
func newShiftServiceAt(db *gorm.DB, cfg *config.Config, clock *time.Time) *ShiftService {
	return &ShiftService{
		DB:       db,
		Config:   cfg,
		Identity: NewIdentityService(db, cfg),
		Payout:   NewPayoutService(db, cfg, nil),
		now:      func() time.Time { return *clock },
	}
}
