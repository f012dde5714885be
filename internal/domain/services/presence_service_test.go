package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
)

func newPresenceServiceAt(db *gorm.DB, cfg *config.Config, clock *time.Time) *PresenceService {
	return &PresenceService{
		DB:     db,
		Config: cfg,
		now:    func() time.Time { return *clock },
	}
}

func TestRecordBeaconAccepted(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	result, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, "ICU-302", result.Room)

	record, err := svc.GetPresence(worker.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "3F", record.Floor)
	assert.True(t, record.LastSeen.Equal(clock))
}

func TestRecordBeaconWeakSignalIsNoOp(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	// -70dBm 弱于 -65dBm 阈值，丢弃且不报错
	result, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -70)
	require.NoError(t, err)
	assert.False(t, result.Accepted)

	record, err := svc.GetPresence(worker.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRecordBeaconUpsertsByWorker(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)

	clock = clock.Add(5 * time.Minute)
	_, err = svc.RecordBeacon(worker.ID, "2F", "ER-104", -48)
	require.NoError(t, err)

	// 每个员工只保留最近一条驻场记录
	var count int64
	require.NoError(t, db.Model(&models.PresenceRecord{}).Where("worker_id = ?", worker.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	record, err := svc.GetPresence(worker.ID)
	require.NoError(t, err)
	assert.Equal(t, "ER-104", record.Room)
}

func TestHazardEligibleWithinWindow(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)

	// 10分钟后核验，仍在15分钟窗口内
	clock = clock.Add(10 * time.Minute)
	eligibility, err := svc.CheckHazardEligibility(worker.ID, "ICU-302")
	require.NoError(t, err)

	assert.True(t, eligibility.Eligible)
	assert.InDelta(t, cfg.HazardPayAmount, eligibility.Amount, 1e-9)

	// 补贴以独立审计日志入账
	var log models.WorkLog
	require.NoError(t, db.Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionHazardPay).First(&log).Error)
	assert.InDelta(t, cfg.HazardPayAmount, log.Amount, 1e-9)
}

func TestHazardStalePresenceIsRejected(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)

	// 20分钟后核验，记录已过期
	clock = clock.Add(20 * time.Minute)
	eligibility, err := svc.CheckHazardEligibility(worker.ID, "ICU-302")
	require.NoError(t, err)
	assert.False(t, eligibility.Eligible)
}

func TestHazardWrongRoomIsRejected(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)

	eligibility, err := svc.CheckHazardEligibility(worker.ID, "ER-104")
	require.NoError(t, err)
	assert.False(t, eligibility.Eligible)
}

func TestHazardNoPresenceRecord(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newPresenceServiceAt(db, cfg, &clock)

	eligibility, err := svc.CheckHazardEligibility(77777, "ICU-302")
	require.NoError(t, err)
	assert.False(t, eligibility.Eligible)
}

func TestHazardGrantedOncePerWindow(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.RecordBeacon(worker.ID, "3F", "ICU-302", -52)
	require.NoError(t, err)

	clock = clock.Add(5 * time.Minute)
	first, err := svc.CheckHazardEligibility(worker.ID, "ICU-302")
	require.NoError(t, err)
	assert.True(t, first.Eligible)

	// 同一驻场窗口内重复核验不再发放
	clock = clock.Add(2 * time.Minute)
	second, err := svc.CheckHazardEligibility(worker.ID, "ICU-302")
	require.NoError(t, err)
	assert.False(t, second.Eligible)

	var count int64
	require.NoError(t, db.Model(&models.WorkLog{}).
		Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionHazardPay).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestHazardDedupMatchesRoomExactly(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc := newPresenceServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	// 先在 ISO-402 发放过一次危险补贴
	_, err := svc.RecordBeacon(worker.ID, "4F", "ISO-402", -52)
	require.NoError(t, err)
	first, err := svc.CheckHazardEligibility(worker.ID, "ISO-402")
	require.NoError(t, err)
	require.True(t, first.Eligible)

	// 转到 ISO-4: 房间号是前一个的前缀，不能被当成同一次发放去重
	clock = clock.Add(2 * time.Minute)
	_, err = svc.RecordBeacon(worker.ID, "4F", "ISO-4", -52)
	require.NoError(t, err)
	second, err := svc.CheckHazardEligibility(worker.ID, "ISO-4")
	require.NoError(t, err)
	assert.True(t, second.Eligible)

	var count int64
	require.NoError(t, db.Model(&models.WorkLog{}).
		Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionHazardPay).
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
