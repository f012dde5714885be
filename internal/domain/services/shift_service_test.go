package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medshift-http-service/internal/domain/models"
)

func TestClockInStartsShift(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "acct-1")

	shift, err := svc.ClockIn(worker.ID, 31.2304, 121.4737)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusActive, shift.Status)
	require.NotNil(t, shift.ShiftStart)
	assert.True(t, shift.ShiftStart.Equal(clock))

	// 打卡上班写入一条零金额的审计日志
	logs, err := svc.GetWorkLogs(worker.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.WorkLogActionClockIn, logs[0].Action)
	assert.Zero(t, logs[0].Amount)
}

func TestClockInWhileActiveIsRejected(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)

	_, err = svc.ClockIn(worker.ID, 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestClockInUnknownWorker(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newShiftServiceAt(db, cfg, &clock)

	_, err := svc.ClockIn(99999, 0, 0)
	assert.Error(t, err)
}

func TestClockOutAccruesBalance(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "acct-1")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)

	clock = clock.Add(2 * time.Hour)
	gross, shift, err := svc.ClockOut(worker.ID)
	require.NoError(t, err)

	assert.InDelta(t, 80.0, gross, 1e-9)
	assert.Equal(t, models.ShiftStatusInactive, shift.Status)
	assert.Nil(t, shift.ShiftStart)
	assert.InDelta(t, 80.0, shift.AccruedBalance, 1e-9)

	// 数据库中 shift_start 必须被清空
	stored, err := svc.GetShift(worker.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ShiftStart)
	assert.InDelta(t, 80.0, stored.AccruedBalance, 1e-9)
}

func TestClockOutZeroElapsed(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)

	// 同一时刻下班: 税前收入为0，但状态转换和日志照常发生
	gross, shift, err := svc.ClockOut(worker.ID)
	require.NoError(t, err)
	assert.Zero(t, gross)
	assert.Equal(t, models.ShiftStatusInactive, shift.Status)

	var count int64
	require.NoError(t, db.Model(&models.WorkLog{}).
		Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionClockOut).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestClockOutWhileInactiveIsRejected(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, _, err := svc.ClockOut(worker.ID)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestBalanceAccumulatesAcrossShifts(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 30, "")

	// 第一班: 1小时 → 30
	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(1 * time.Hour)
	_, _, err = svc.ClockOut(worker.ID)
	require.NoError(t, err)

	// 第二班: 2小时 → 60，余额跨班次累计
	_, err = svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Hour)
	_, shift, err := svc.ClockOut(worker.ID)
	require.NoError(t, err)

	assert.InDelta(t, 90.0, shift.AccruedBalance, 1e-9)
}

func TestZeroBalance(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, _, err = svc.ClockOut(worker.ID)
	require.NoError(t, err)

	require.NoError(t, svc.ZeroBalance(worker.ID))

	shift, err := svc.GetShift(worker.ID)
	require.NoError(t, err)
	assert.Zero(t, shift.AccruedBalance)
}

func TestSettleBalanceClearsAndSplitsOnce(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "acct-1")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Hour)
	_, _, err = svc.ClockOut(worker.ID)
	require.NoError(t, err)

	result, err := svc.SettleBalance(worker.ID, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.InDelta(t, 60.0, result.NetPayout, 1e-9)
	assert.InDelta(t, 20.0, result.TaxWithheld, 1e-9)

	shift, err := svc.GetShift(worker.ID)
	require.NoError(t, err)
	assert.Zero(t, shift.AccruedBalance)

	// 余额已清零，重复结算是无操作
	again, err := svc.SettleBalance(worker.ID, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, again)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("worker_id = ?", worker.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSettleBalanceConcurrentSettlesOnce(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "acct-1")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(2 * time.Hour)
	_, _, err = svc.ClockOut(worker.ID)
	require.NoError(t, err)

	// 两个结算请求同时到达，读余额和清零必须在同一临界区内
	results := make([]*SettlementResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.SettleBalance(worker.ID, "acct-1")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	settled := 0
	var total float64
	for _, r := range results {
		if r != nil {
			settled++
			total = r.NetPayout + r.TaxWithheld
		}
	}
	assert.Equal(t, 1, settled)
	assert.InDelta(t, 80.0, total, 1e-9)

	// 80的欠款只结算80，不会翻倍
	var txs []models.Transaction
	require.NoError(t, db.Where("worker_id = ?", worker.ID).Find(&txs).Error)
	require.Len(t, txs, 2)
	var sum float64
	for _, tx := range txs {
		sum += tx.Amount
	}
	assert.InDelta(t, 80.0, sum, 1e-9)
}

func TestReleaseBalanceRunsCallbackInCriticalSection(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	svc := newShiftServiceAt(db, cfg, &clock)

	worker := createTestWorker(t, db, 40, "")

	_, err := svc.ClockIn(worker.ID, 0, 0)
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, _, err = svc.ClockOut(worker.ID)
	require.NoError(t, err)

	// 回调拒绝释放时余额保持不变
	done, gross, err := svc.ReleaseBalance(worker.ID, func(gross float64) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.InDelta(t, 40.0, gross, 1e-9)

	shift, err := svc.GetShift(worker.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, shift.AccruedBalance, 1e-9)

	// 回调确认释放后余额清零
	done, gross, err = svc.ReleaseBalance(worker.ID, func(gross float64) (bool, error) {
		return true, nil
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.InDelta(t, 40.0, gross, 1e-9)

	shift, err = svc.GetShift(worker.ID)
	require.NoError(t, err)
	assert.Zero(t, shift.AccruedBalance)
}

func TestGetShiftForUnknownWorkerIsInactive(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newShiftServiceAt(db, cfg, &clock)

	shift, err := svc.GetShift(424242)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusInactive, shift.Status)
	assert.False(t, shift.IsActive())
}

func TestActiveWorkerCount(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	clock := time.Now()
	svc := newShiftServiceAt(db, cfg, &clock)

	w1 := createTestWorker(t, db, 40, "")
	w2 := createTestWorker(t, db, 40, "")
	w3 := createTestWorker(t, db, 40, "")

	for _, w := range []uint{w1.ID, w2.ID} {
		_, err := svc.ClockIn(w, 0, 0)
		require.NoError(t, err)
	}
	_, err := svc.ClockIn(w3.ID, 0, 0)
	require.NoError(t, err)
	_, _, err = svc.ClockOut(w3.ID)
	require.NoError(t, err)

	count, err := svc.ActiveWorkerCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
