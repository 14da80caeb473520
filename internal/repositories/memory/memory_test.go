package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/types"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) (*entities.User, *entities.Hardware) {
	t.Helper()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, &entities.User{Name: "Ivan", Email: "ivan@corp.local", Password: "x", Role: constants.RoleEmployee})
	require.NoError(t, err)
	hw, err := s.CreateHardware(ctx, &entities.Hardware{Name: "Laptop", Type: "laptop", QRCode: "QR-100"})
	require.NoError(t, err)
	return user, hw
}

func TestRunInTransaction_RollbackOnError(t *testing.T) {
	s := NewStore()
	user, hw := seed(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.CreateRequestInTx(ctx, tx, &entities.Request{
			EmployeeID: user.ID, HardwareID: hw.ID, Description: "d",
			Duration: constants.DurationLifetime, Status: constants.RequestStatusPending,
		}); err != nil {
			return err
		}
		require.NoError(t, s.SetAvailabilityInTx(ctx, tx, hw.ID, true, false))
		return boom
	})
	require.ErrorIs(t, err, boom)

	reqs, total, err := s.GetRequests(ctx, types.Filter{})
	require.NoError(t, err)
	assert.Empty(t, reqs)
	assert.Zero(t, total)

	got, err := s.FindHardware(ctx, hw.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestRunInTransaction_RollbackOnPanic(t *testing.T) {
	s := NewStore()
	_, hw := seed(t, s)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(tx pgx.Tx) error {
			_ = s.SetAvailabilityInTx(ctx, tx, hw.ID, true, false)
			panic("unexpected")
		})
	})

	got, err := s.FindHardware(ctx, hw.ID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestSetAvailabilityInTx_CompareAndSwap(t *testing.T) {
	s := NewStore()
	_, hw := seed(t, s)
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.SetAvailabilityInTx(ctx, tx, hw.ID, false, true)
	})
	assert.ErrorIs(t, err, repositories.ErrRowNotUpdated)

	err = s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.SetAvailabilityInTx(ctx, tx, hw.ID, true, false)
	})
	require.NoError(t, err)

	only, err := s.GetHardware(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, only)
}

func TestTransitionInTx_SingleAcceptedPerHardware(t *testing.T) {
	s := NewStore()
	user, hw := seed(t, s)
	ctx := context.Background()

	var ids []uint64
	require.NoError(t, s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for i := 0; i < 2; i++ {
			req, err := s.CreateRequestInTx(ctx, tx, &entities.Request{
				EmployeeID: user.ID, HardwareID: hw.ID, Description: "d",
				Duration: constants.DurationLifetime, Status: constants.RequestStatusPending,
			})
			if err != nil {
				return err
			}
			ids = append(ids, req.ID)
		}
		return nil
	}))

	require.NoError(t, s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.TransitionInTx(ctx, tx, ids[0], constants.RequestStatusPending, constants.RequestStatusAccepted, hw.ID)
	}))
	err := s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.TransitionInTx(ctx, tx, ids[1], constants.RequestStatusPending, constants.RequestStatusAccepted, hw.ID)
	})
	assert.ErrorIs(t, err, apperrors.ErrHardwareUnavailable)

	err = s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.TransitionInTx(ctx, tx, ids[0], constants.RequestStatusPending, constants.RequestStatusRejected, 0)
	})
	assert.ErrorIs(t, err, repositories.ErrRowNotUpdated)
}

func createRequests(t *testing.T, s *Store, userID uint64, hardwareIDs ...uint64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for i, hwID := range hardwareIDs {
			if _, err := s.CreateRequestInTx(ctx, tx, &entities.Request{
				EmployeeID: userID, HardwareID: hwID, Description: fmt.Sprintf("заявка %d", i),
				Duration: constants.DurationLifetime, Status: constants.RequestStatusPending,
			}); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestGetRequests_NegativeOffset(t *testing.T) {
	s := NewStore()
	user, hw := seed(t, s)
	createRequests(t, s, user.ID, hw.ID, hw.ID, hw.ID)

	var (
		list  []entities.RequestDetails
		total uint64
		err   error
	)
	assert.NotPanics(t, func() {
		list, total, err = s.GetRequests(context.Background(), types.Filter{WithPagination: true, Limit: 500, Offset: -1000})
	})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, uint64(3), total)
}

func TestGetRequests_Search(t *testing.T) {
	s := NewStore()
	user, hw := seed(t, s)
	createRequests(t, s, user.ID, hw.ID, 9999)
	ctx := context.Background()

	cases := []struct {
		search string
		want   int
	}{
		{"", 2},
		{"  LAPTOP ", 1},
		{"ivan", 2},
		{"ЗАЯВКА 1", 1},
		{"монитор", 0},
	}
	for _, tc := range cases {
		list, total, err := s.GetRequests(ctx, types.Filter{Search: tc.search})
		require.NoError(t, err)
		assert.Len(t, list, tc.want, tc.search)
		assert.Equal(t, uint64(tc.want), total, tc.search)
	}
}

func TestCache_IncrAndExpire(t *testing.T) {
	c := NewCache()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	n, err := c.Incr(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	ok, err := c.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err = c.Incr(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, repositories.ErrCacheMiss)

	ok, err = c.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
