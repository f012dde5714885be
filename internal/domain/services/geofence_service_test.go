package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/models"
)

// 设施坐标见 newTestConfig；纬度每0.01度约1111米
const (
	insideLat  = 31.2304
	insideLon  = 121.4737
	outsideLat = 31.2404
)

type geofenceFixture struct {
	svc    InterfaceGeofenceService
	shift  *ShiftService
	market InterfaceMarketService
	notify *fakeNotify
	wallet *fakeWallet
	clock  *time.Time
}

func newGeofenceFixture(t *testing.T, db *gorm.DB) *geofenceFixture {
	t.Helper()
	cfg := newTestConfig()
	clock := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)

	shift := newShiftServiceAt(db, cfg, &clock)
	identity := NewIdentityService(db, cfg)
	notify := &fakeNotify{}
	wallet := &fakeWallet{}
	market := NewMarketService(db, cfg, notify, wallet)

	return &geofenceFixture{
		svc:    NewGeofenceService(db, cfg, shift, market, identity, notify),
		shift:  shift,
		market: market,
		notify: notify,
		wallet: wallet,
		clock:  &clock,
	}
}

func TestPingIgnoredWhenOffShift(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	worker := createTestWorker(t, db, 40, "acct-1")

	result, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)
	assert.Equal(t, PingOutcomeIgnored, result.Outcome)
}

func TestPingWithinBounds(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	worker := createTestWorker(t, db, 40, "acct-1")
	_, err := f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	result, err := f.svc.ProcessPing(worker.ID, insideLat, insideLon)
	require.NoError(t, err)
	assert.Equal(t, PingOutcomeWithinBounds, result.Outcome)
	assert.LessOrEqual(t, result.Distance, 150.0)

	// 仍在上班状态
	shift, err := f.shift.GetShift(worker.ID)
	require.NoError(t, err)
	assert.True(t, shift.IsActive())
}

func TestPingOutsideTriggersAutoClockOutAndSettlement(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	worker := createTestWorker(t, db, 40, "acct-1")
	_, err := f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	*f.clock = f.clock.Add(2 * time.Hour)
	result, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)

	assert.Equal(t, PingOutcomeAutoClockedOut, result.Outcome)
	assert.Greater(t, result.Distance, 150.0)
	assert.InDelta(t, 80.0, result.ShiftGross, 1e-9)
	assert.True(t, result.Settled)
	require.NotNil(t, result.Settlement)
	assert.InDelta(t, 60.0, result.Settlement.NetPayout, 1e-9)
	assert.InDelta(t, 20.0, result.Settlement.TaxWithheld, 1e-9)

	// 自动下班写入审计日志，余额结算后清零
	var log models.WorkLog
	require.NoError(t, db.Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionAutoClockOut).First(&log).Error)

	shift, err := f.shift.GetShift(worker.ID)
	require.NoError(t, err)
	assert.False(t, shift.IsActive())
	assert.Zero(t, shift.AccruedBalance)

	// 通知认领人是旁路操作
	assert.NotEmpty(t, f.notify.sent)
}

func TestSecondOutsidePingIsNoOp(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	worker := createTestWorker(t, db, 40, "acct-1")
	_, err := f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	*f.clock = f.clock.Add(time.Hour)
	first, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)
	assert.Equal(t, PingOutcomeAutoClockedOut, first.Outcome)

	// 下班后的重复越界上报被忽略，不会产生第二次结算
	second, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)
	assert.Equal(t, PingOutcomeIgnored, second.Outcome)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("worker_id = ?", worker.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAutoClockOutWithoutDestinationDefersSettlement(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	// 未登记收款账户
	worker := createTestWorker(t, db, 40, "")
	_, err := f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	*f.clock = f.clock.Add(2 * time.Hour)
	result, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)

	assert.Equal(t, PingOutcomeAutoClockedOut, result.Outcome)
	assert.True(t, result.SettlementDeferred)
	assert.False(t, result.Settled)
	assert.Nil(t, result.Settlement)

	// 资金保留在累计余额中，未写任何流水
	shift, err := f.shift.GetShift(worker.ID)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, shift.AccruedBalance, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("worker_id = ?", worker.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAutoClockOutRoutesToEscrowRelease(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	worker := createTestWorker(t, db, 40, "acct-1")

	// 员工认领了一条托管已锁定的悬赏班次
	listing, err := f.market.PostBounty(1, "rn", 50, "2026-09-01", "07:00", "19:00")
	require.NoError(t, err)
	require.NoError(t, f.market.LockEscrow(listing.ID))
	_, err = f.market.Claim(listing.ID, worker.ID)
	require.NoError(t, err)

	_, err = f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	*f.clock = f.clock.Add(2 * time.Hour)
	result, err := f.svc.ProcessPing(worker.ID, outsideLat, insideLon)
	require.NoError(t, err)

	// 托管释放路径: 不走结算拆分，托管出账单独写一条指向挂单的NET_PAY流水
	assert.Equal(t, PingOutcomeAutoClockedOut, result.Outcome)
	assert.True(t, result.EscrowReleased)
	assert.True(t, result.Settled)
	assert.Nil(t, result.Settlement)

	var txs []models.Transaction
	require.NoError(t, db.Where("worker_id = ?", worker.ID).Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeNetPay, txs[0].Type)
	assert.Equal(t, listing.ID, txs[0].ListingID)
	assert.InDelta(t, 80.0, txs[0].Amount, 1e-9)
	assert.Equal(t, "acct-1", txs[0].Destination)

	// 出账转发给外部支付通道
	require.Len(t, f.wallet.payouts, 1)
	assert.InDelta(t, 80.0, f.wallet.payouts[0], 1e-9)

	stored, err := f.market.GetListingByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, stored.Escrow)

	shift, err := f.shift.GetShift(worker.ID)
	require.NoError(t, err)
	assert.Zero(t, shift.AccruedBalance)
}

func TestFacilityRecordOverridesConfigRadius(t *testing.T) {
	db := newTestDB(t)
	f := newGeofenceFixture(t, db)

	// 数据库中的设施记录放宽围栏半径到500米
	require.NoError(t, db.Create(&models.Facility{
		Name:           "General Hospital",
		Lat:            insideLat,
		Lon:            insideLon,
		GeofenceRadius: 500,
	}).Error)

	worker := createTestWorker(t, db, 40, "acct-1")
	_, err := f.shift.ClockIn(worker.ID, insideLat, insideLon)
	require.NoError(t, err)

	// 约222米: 超出配置默认的150米，但在设施记录的500米以内
	result, err := f.svc.ProcessPing(worker.ID, insideLat+0.002, insideLon)
	require.NoError(t, err)
	assert.Equal(t, PingOutcomeWithinBounds, result.Outcome)
}
