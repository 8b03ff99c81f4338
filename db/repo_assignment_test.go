package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"Gin_postgres_redis_device_tracker/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAssignRelease_RoundTrip(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()
	orderID := uuid.NewString()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)

	a, err := r.AssignDevice(ctx, orderID, d.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOccupied, a.Status)
	require.Nil(t, a.ReleasedAt)

	// 分配后：active=true，设备 OCCUPIED
	active, err := r.HasActiveAssignment(ctx, d.ID)
	require.NoError(t, err)
	require.True(t, active)

	got, err := r.FindDeviceByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusOccupied, got.Status)

	// 释放：台账记录 FAIR，设备回到 GOOD_CONDITION
	released, err := r.ReleaseDevice(ctx, d.ID, models.StatusFair)
	require.NoError(t, err)
	require.Equal(t, models.StatusFair, released.Status)
	require.NotNil(t, released.ReleasedAt)
	require.False(t, released.ReleasedAt.Before(released.AssignedAt))

	active, err = r.HasActiveAssignment(ctx, d.ID)
	require.NoError(t, err)
	require.False(t, active)

	got, err = r.FindDeviceByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusGoodCondition, got.Status)

	history, err := r.ListAssignmentHistory(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, orderID, history[0].OrderID)
	require.Equal(t, models.StatusFair, history[0].Status)
	require.Equal(t, d.Name, history[0].DeviceName)
}

func TestAssignDevice_Preconditions(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	_, err := r.AssignDevice(ctx, uuid.NewString(), uuid.NewString())
	require.ErrorIs(t, err, ErrDeviceNotFound)

	// 非 GOOD_CONDITION 的设备不可分配
	fair := mustCreateDevice(t, r, models.StatusFair)
	_, err = r.AssignDevice(ctx, uuid.NewString(), fair.ID)
	require.ErrorIs(t, err, ErrNotAssignable)

	// 已分配的设备不可再次分配
	d := mustCreateDevice(t, r, models.StatusGoodCondition)
	_, err = r.AssignDevice(ctx, uuid.NewString(), d.ID)
	require.NoError(t, err)
	_, err = r.AssignDevice(ctx, uuid.NewString(), d.ID)
	require.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestReleaseDevice_NoOpenAssignment(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)
	_, err := r.ReleaseDevice(ctx, d.ID, models.StatusGoodCondition)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

// 并发 Assign 同一台可用设备：必须恰好一个成功
func TestAssignDevice_ConcurrentExactlyOneWins(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.AssignDevice(ctx, uuid.NewString(), d.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrAlreadyAssigned)
		}
	}
	require.Equal(t, 1, wins)

	// 不变式：任一时刻最多一条未释放的台账行
	var open int64
	require.NoError(t, r.DB.Model(&models.DeviceAssignment{}).
		Where("device_id = ? AND released_at IS NULL", d.ID).
		Count(&open).Error)
	require.EqualValues(t, 1, open)
}

// 并发 Release：只有一个成功，其余报无未释放分配
func TestReleaseDevice_ConcurrentSingleWinner(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)
	_, err := r.AssignDevice(ctx, uuid.NewString(), d.ID)
	require.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.ReleaseDevice(ctx, d.ID, models.StatusNeedsRepair)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrAssignmentNotFound)
		}
	}
	require.Equal(t, 1, wins)
}

func TestListAssignmentHistory_NewestFirst(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)
	orders := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, orderID := range orders {
		_, err := r.AssignDevice(ctx, orderID, d.ID)
		require.NoError(t, err)
		_, err = r.ReleaseDevice(ctx, d.ID, models.StatusGoodCondition)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // release 时间戳单调递增
	}

	// 留一条未释放的，它不应出现在历史里
	_, err := r.AssignDevice(ctx, uuid.NewString(), d.ID)
	require.NoError(t, err)

	history, err := r.ListAssignmentHistory(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, orders[2], history[0].OrderID)
	require.Equal(t, orders[0], history[2].OrderID)
	for i := 1; i < len(history); i++ {
		require.False(t, history[i-1].ReleasedAt.Before(*history[i].ReleasedAt))
	}
}

func TestHasActiveAssignments_Batch(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	assigned := mustCreateDevice(t, r, models.StatusGoodCondition)
	idle := mustCreateDevice(t, r, models.StatusGoodCondition)
	unknown := uuid.NewString()

	_, err := r.AssignDevice(ctx, uuid.NewString(), assigned.ID)
	require.NoError(t, err)

	flags, err := r.HasActiveAssignments(ctx, []string{assigned.ID, idle.ID, unknown})
	require.NoError(t, err)
	require.Equal(t, []ActiveFlag{
		{DeviceID: assigned.ID, Active: true},
		{DeviceID: idle.ID, Active: false},
		{DeviceID: unknown, Active: false}, // 不存在的设备返回 false 而不是报错
	}, flags)
}

func TestLogAssignmentEvent(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	d := mustCreateDevice(t, r, models.StatusGoodCondition)
	orderID := uuid.NewString()

	_, err := r.LogAssignmentEvent(ctx, "assign", orderID, d.ID, "orders-service", nil)
	require.NoError(t, err)
	_, err = r.LogAssignmentEvent(ctx, "release", orderID, d.ID, "orders-service", nil)
	require.NoError(t, err)

	entries, err := r.ListAssignmentLog(ctx, d.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "release", entries[0].Action)
	require.Equal(t, "orders-service", entries[0].Actor)
}
