package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medshift-http-service/internal/domain/models"
)

func TestPostBountyStartsOpenPending(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	listing, err := svc.PostBounty(1, "rn", 52.5, "2026-09-02", "19:00", "07:00")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusOpen, listing.Status)
	assert.Equal(t, models.EscrowStatusPending, listing.Escrow)
	assert.Nil(t, listing.ClaimerID)
}

func TestLockEscrowTransition(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)

	require.NoError(t, svc.LockEscrow(listing.ID))

	stored, err := svc.GetListingByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusLocked, stored.Escrow)

	// 重复锁定和锁定不存在的悬赏都是无操作
	require.NoError(t, svc.LockEscrow(listing.ID))
	require.NoError(t, svc.LockEscrow(99999))
}

func TestClaimBounty(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	worker := createTestWorker(t, db, 40, "")
	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)

	claimed, err := svc.Claim(listing.ID, worker.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimerID)
	assert.Equal(t, worker.ID, *claimed.ClaimerID)

	// 认领后生成排班条目和审计日志
	var scheduled models.ScheduledShift
	require.NoError(t, db.Where("listing_id = ?", listing.ID).First(&scheduled).Error)
	assert.Equal(t, worker.ID, scheduled.WorkerID)
	assert.Equal(t, "rn", scheduled.Role)

	var count int64
	require.NoError(t, db.Model(&models.WorkLog{}).
		Where("worker_id = ? AND action = ?", worker.ID, models.WorkLogActionBountyClaim).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestClaimLoserGetsConflict(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	w1 := createTestWorker(t, db, 40, "")
	w2 := createTestWorker(t, db, 40, "")
	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)

	_, err = svc.Claim(listing.ID, w1.ID)
	require.NoError(t, err)

	// 第二个认领者落败，悬赏的认领人保持不变
	_, err = svc.Claim(listing.ID, w2.ID)
	assert.ErrorIs(t, err, ErrListingNotOpen)

	stored, err := svc.GetListingByID(listing.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ClaimerID)
	assert.Equal(t, w1.ID, *stored.ClaimerID)

	// 落败方不会留下排班条目
	var count int64
	require.NoError(t, db.Model(&models.ScheduledShift{}).
		Where("worker_id = ?", w2.ID).
		Count(&count).Error)
	assert.Zero(t, count)
}

func TestClaimMissingListing(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	_, err := svc.Claim(99999, 1)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestClaimConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	w1 := createTestWorker(t, db, 40, "")
	w2 := createTestWorker(t, db, 40, "")
	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []uint{w1.ID, w2.ID} {
		wg.Add(1)
		go func(i int, workerID uint) {
			defer wg.Done()
			_, errs[i] = svc.Claim(listing.ID, workerID)
		}(i, id)
	}
	wg.Wait()

	// 条件更新保证最多一人认领成功，落败方得到状态冲突
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrListingNotOpen)
		}
	}
	assert.Equal(t, 1, winners)

	stored, err := svc.GetListingByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusClaimed, stored.Status)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledShift{}).
		Where("listing_id = ?", listing.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestReleaseEscrowOnceOnly(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	notify := &fakeNotify{}
	wallet := &fakeWallet{}
	svc := NewMarketService(db, cfg, notify, wallet)

	worker := createTestWorker(t, db, 40, "acct-9")
	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)
	require.NoError(t, svc.LockEscrow(listing.ID))
	_, err = svc.Claim(listing.ID, worker.ID)
	require.NoError(t, err)

	released, err := svc.ReleaseEscrow(listing.ID, worker.ID, "acct-9", 600)
	require.NoError(t, err)
	assert.True(t, released)
	assert.Len(t, notify.sent, 1)

	// 释放出账留下一条指向该挂单的NET_PAY流水，并转发外部出账
	var txs []models.Transaction
	require.NoError(t, db.Where("listing_id = ?", listing.ID).Find(&txs).Error)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeNetPay, txs[0].Type)
	assert.Equal(t, 600.0, txs[0].Amount)
	assert.Equal(t, "acct-9", txs[0].Destination)
	assert.Equal(t, []float64{600}, wallet.payouts)

	// 重复释放是无操作，不产生第二次出账或通知
	released, err = svc.ReleaseEscrow(listing.ID, worker.ID, "acct-9", 600)
	require.NoError(t, err)
	assert.False(t, released)
	assert.Len(t, notify.sent, 1)
	assert.Equal(t, []float64{600}, wallet.payouts)

	require.NoError(t, db.Where("listing_id = ?", listing.ID).Find(&txs).Error)
	assert.Len(t, txs, 1)

	stored, err := svc.GetListingByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusReleased, stored.Escrow)
}

func TestReleaseEscrowRequiresLocked(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	listing, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)

	// PENDING状态不可释放，也不留下任何流水
	released, err := svc.ReleaseEscrow(listing.ID, 1, "", 100)
	require.NoError(t, err)
	assert.False(t, released)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("listing_id = ?", listing.ID).
		Count(&count).Error)
	assert.Zero(t, count)

	stored, err := svc.GetListingByID(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EscrowStatusPending, stored.Escrow)
}

func TestSOSBroadcastPostsLockedBounties(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	notify := &fakeNotify{}
	svc := NewMarketService(db, cfg, notify, nil)

	listings, err := svc.SOSBroadcast(1, "ICU", 40, "2026-09-01", "08:00", "16:00", 3)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	broadcastID := listings[0].BroadcastID
	require.NotEmpty(t, broadcastID)

	for _, listing := range listings {
		// 加成时薪 = 基础 × 1.5，托管直接锁定，同一广播共享标识
		assert.InDelta(t, 60.0, listing.Rate, 1e-9)
		assert.Equal(t, models.ListingStatusOpen, listing.Status)
		assert.Equal(t, models.EscrowStatusLocked, listing.Escrow)
		assert.Equal(t, broadcastID, listing.BroadcastID)
	}

	assert.Equal(t, []string{"sos_bounty"}, notify.broadcasts)
}

func TestSOSBroadcastFloorRate(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	// 基础时薪缺失时使用保底加成时薪
	listings, err := svc.SOSBroadcast(1, "ICU", 0, "2026-09-01", "08:00", "16:00", 1)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.InDelta(t, cfg.SurgeFloorRate, listings[0].Rate, 1e-9)
}

func TestSOSBroadcastZeroCount(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	listings, err := svc.SOSBroadcast(1, "ICU", 40, "2026-09-01", "08:00", "16:00", 0)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestGetListingsFilterByStatus(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	svc := NewMarketService(db, cfg, nil, nil)

	worker := createTestWorker(t, db, 40, "")

	l1, err := svc.PostBounty(1, "rn", 50, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)
	_, err = svc.PostBounty(1, "cna", 30, "2026-09-02", "07:00", "19:00")
	require.NoError(t, err)
	_, err = svc.Claim(l1.ID, worker.ID)
	require.NoError(t, err)

	open, total, err := svc.GetListings(string(models.ListingStatusOpen), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, open, 1)
	assert.Equal(t, "cna", open[0].Role)

	all, total, err := svc.GetListings("", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)
}
