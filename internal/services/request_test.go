package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/events"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/metrics"
	"hardware-request-system/pkg/types"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaptopScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.createPending(t, f.employee, f.laptop)
	assert.Contains(t, f.availableIDs(t), f.laptop.ID)

	accepted, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusAccepted, accepted.Status)
	assert.Equal(t, f.laptop.ID, accepted.HardwareID)
	require.NotNil(t, accepted.Hardware)
	assert.Equal(t, "QR-100", accepted.Hardware.QRCode)
	assert.False(t, f.hardware(t, f.laptop.ID).Available)
	assert.NotContains(t, f.availableIDs(t), f.laptop.ID)
	f.assertLedgerConsistent(t)

	detached, err := f.svc.DetachRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusDetached, detached.Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
	assert.Contains(t, f.availableIDs(t), f.laptop.ID)
	f.assertLedgerConsistent(t)

	want := []string{constants.HistoryEventCreated, constants.HistoryEventAccepted, constants.HistoryEventDetached}
	if diff := cmp.Diff(want, f.historyEvents(t, req.ID)); diff != "" {
		t.Errorf("история заявки (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, f.publisher.count())
}

// Запрошенное оборудование может не числиться в учёте: ссылка хранится как есть,
// а при выдаче заявка привязывается к отсканированной единице.
func TestUntrackedHardwareRefScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateRequest(ctx, f.employee, dto.CreateRequestDTO{
		HardwareID:  9999,
		Description: "любой ноутбук",
		Duration:    constants.DurationLifetime,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusPending, created.Status)
	assert.EqualValues(t, 9999, created.HardwareID)
	assert.Nil(t, created.Hardware)
	f.assertLedgerConsistent(t)

	own, _, err := f.svc.ListForEmployee(ctx, f.employee.UserID, types.Filter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Nil(t, own[0].Hardware)

	accepted, err := f.svc.AcceptRequest(ctx, f.admin, created.ID, "QR-100")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusAccepted, accepted.Status)
	assert.Equal(t, f.laptop.ID, accepted.HardwareID)
	require.NotNil(t, accepted.Hardware)
	assert.Equal(t, "QR-100", accepted.Hardware.QRCode)
	assert.False(t, f.hardware(t, f.laptop.ID).Available)
	f.assertLedgerConsistent(t)

	detached, err := f.svc.DetachRequest(ctx, f.admin, created.ID, "QR-100")
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusDetached, detached.Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
	f.assertLedgerConsistent(t)
}

func TestAcceptBindsScannedHardware(t *testing.T) {
	f := newFixture(t)

	req := f.createPending(t, f.employee, f.laptop)
	accepted, err := f.svc.AcceptRequest(context.Background(), f.admin, req.ID, "QR-200")
	require.NoError(t, err)

	assert.Equal(t, f.monitor.ID, accepted.HardwareID)
	assert.False(t, f.hardware(t, f.monitor.ID).Available)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
	f.assertLedgerConsistent(t)
}

func TestAcceptUnknownQRCode(t *testing.T) {
	f := newFixture(t)
	req := f.createPending(t, f.employee, f.laptop)
	published := f.publisher.count()

	_, err := f.svc.AcceptRequest(context.Background(), f.admin, req.ID, "QR-404")
	require.ErrorIs(t, err, apperrors.ErrHardwareNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	assert.Equal(t, constants.RequestStatusPending, f.request(t, req.ID).Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
	assert.Equal(t, []string{constants.HistoryEventCreated}, f.historyEvents(t, req.ID))
	assert.Equal(t, published, f.publisher.count())
}

func TestAcceptUnknownRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AcceptRequest(context.Background(), f.admin, 999, "QR-100")
	require.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
}

func TestAcceptAlreadyAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)

	_, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-200")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	got := f.request(t, req.ID)
	assert.Equal(t, f.laptop.ID, got.HardwareID)
	assert.True(t, f.hardware(t, f.monitor.ID).Available)
	f.assertLedgerConsistent(t)
}

func TestAcceptUnavailableHardware(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createPending(t, f.employee, f.laptop)
	second := f.createPending(t, f.other, f.laptop)

	_, err := f.svc.AcceptRequest(ctx, f.admin, first.ID, "QR-100")
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(ctx, f.admin, second.ID, "QR-100")
	require.ErrorIs(t, err, apperrors.ErrHardwareUnavailable)
	assert.Equal(t, constants.RequestStatusPending, f.request(t, second.ID).Status)
	f.assertLedgerConsistent(t)
}

func TestDetachMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)
	_, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)

	_, err = f.svc.DetachRequest(ctx, f.admin, req.ID, "QR-200")
	require.ErrorIs(t, err, apperrors.ErrHardwareMismatch)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	assert.Equal(t, constants.RequestStatusAccepted, f.request(t, req.ID).Status)
	assert.False(t, f.hardware(t, f.laptop.ID).Available)
	assert.True(t, f.hardware(t, f.monitor.ID).Available)
	f.assertLedgerConsistent(t)
}

func TestDetachFromPending(t *testing.T) {
	f := newFixture(t)
	req := f.createPending(t, f.employee, f.laptop)

	_, err := f.svc.DetachRequest(context.Background(), f.admin, req.ID, "QR-100")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, constants.RequestStatusPending, f.request(t, req.ID).Status)
}

func TestDetachRollsBackOnLedgerFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)
	_, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)

	// Рассогласуем учёт вручную: оборудование свободно, хотя заявка принята.
	require.NoError(t, f.store.RunInTransaction(ctx, func(_ pgx.Tx) error {
		return f.store.SetAvailabilityInTx(ctx, nil, f.laptop.ID, false, true)
	}))

	_, err = f.svc.DetachRequest(ctx, f.admin, req.ID, "QR-100")
	require.ErrorIs(t, err, apperrors.ErrLedgerInconsistent)
	assert.Equal(t, apperrors.KindPersistence, apperrors.KindOf(err))

	assert.Equal(t, constants.RequestStatusAccepted, f.request(t, req.ID).Status)
	assert.Equal(t, []string{constants.HistoryEventCreated, constants.HistoryEventAccepted}, f.historyEvents(t, req.ID))
}

func TestRejectPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)

	rejected, err := f.svc.SetStatus(ctx, f.admin, req.ID, constants.RequestStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, constants.RequestStatusRejected, rejected.Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)

	_, err = f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.svc.RejectRequest(ctx, f.admin, req.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	assert.Equal(t, constants.RequestStatusRejected, f.request(t, req.ID).Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
}

func TestSetStatusOnlyRejected(t *testing.T) {
	f := newFixture(t)
	req := f.createPending(t, f.employee, f.laptop)

	for _, status := range []string{constants.RequestStatusAccepted, constants.RequestStatusDetached, constants.RequestStatusPending, "bogus"} {
		_, err := f.svc.SetStatus(context.Background(), f.admin, req.ID, status)
		require.ErrorIs(t, err, apperrors.ErrStatusNotAllowed, status)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}
	assert.Equal(t, constants.RequestStatusPending, f.request(t, req.ID).Status)
}

func TestNonAdminForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)

	_, err := f.svc.AcceptRequest(ctx, f.employee, req.ID, "QR-100")
	assert.ErrorIs(t, err, apperrors.ErrAdminOnly)
	_, err = f.svc.SetStatus(ctx, f.employee, req.ID, constants.RequestStatusRejected)
	assert.ErrorIs(t, err, apperrors.ErrAdminOnly)
	_, err = f.svc.DetachRequest(ctx, f.employee, req.ID, "QR-100")
	assert.ErrorIs(t, err, apperrors.ErrAdminOnly)
	assert.ErrorIs(t, f.svc.DeleteRequest(ctx, f.employee, req.ID), apperrors.ErrAdminOnly)
	_, _, err = f.svc.ListAll(ctx, f.employee, types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrAdminOnly)

	assert.Equal(t, constants.RequestStatusPending, f.request(t, req.ID).Status)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
}

func TestDeleteAcceptedReleasesHardware(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)
	_, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRequest(ctx, f.admin, req.ID))

	_, err = f.store.FindRequest(ctx, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	assert.True(t, f.hardware(t, f.laptop.ID).Available)
	f.assertLedgerConsistent(t)

	history, err := f.svc.GetHistory(ctx, f.admin, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, constants.HistoryEventDeleted, history[2].EventType)

	last := f.publisher.events[len(f.publisher.events)-1].(events.RequestChangedEvent)
	assert.True(t, last.Deleted())
	assert.Equal(t, constants.RequestStatusAccepted, last.OldStatus)
}

func TestDeleteUnknownRequest(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeleteRequest(context.Background(), f.admin, 42)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(48 * time.Hour)

	_, err := f.svc.CreateRequest(ctx, f.employee, dto.CreateRequestDTO{HardwareID: f.laptop.ID, Description: "x", Duration: constants.DurationTemporary})
	assert.ErrorIs(t, err, apperrors.ErrEndDateRequired)

	_, err = f.svc.CreateRequest(ctx, f.employee, dto.CreateRequestDTO{HardwareID: f.laptop.ID, Description: "x", Duration: constants.DurationTemporary, EndDate: &past})
	assert.ErrorIs(t, err, apperrors.ErrEndDateInPast)

	temp, err := f.svc.CreateRequest(ctx, f.employee, dto.CreateRequestDTO{HardwareID: f.laptop.ID, Description: "x", Duration: constants.DurationTemporary, EndDate: &future})
	require.NoError(t, err)
	require.NotNil(t, temp.EndDate)
	assert.True(t, future.Equal(*temp.EndDate))
	assert.Equal(t, f.employee.UserID, temp.EmployeeID)

	life, err := f.svc.CreateRequest(ctx, f.employee, dto.CreateRequestDTO{HardwareID: f.laptop.ID, Description: "x", Duration: constants.DurationLifetime, EndDate: &future})
	require.NoError(t, err)
	assert.Nil(t, life.EndDate)
}

func TestListForEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own, total, err := f.svc.ListForEmployee(ctx, f.employee.UserID, types.Filter{})
	require.NoError(t, err)
	assert.Empty(t, own)
	assert.NotNil(t, own)
	assert.Zero(t, total)

	mine := f.createPending(t, f.employee, f.laptop)
	f.createPending(t, f.other, f.monitor)

	// Попытка подсмотреть чужие заявки через фильтр не работает.
	own, total, err = f.svc.ListForEmployee(ctx, f.employee.UserID, types.Filter{Filter: map[string]interface{}{"employee_id": f.other.UserID}})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, mine.ID, own[0].ID)
	require.NotNil(t, own[0].Hardware)
	assert.Equal(t, "Laptop", own[0].Hardware.Name)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createPending(t, f.employee, f.laptop)
	f.createPending(t, f.other, f.monitor)
	_, err := f.svc.AcceptRequest(ctx, f.admin, first.ID, "QR-100")
	require.NoError(t, err)

	all, total, err := f.svc.ListAll(ctx, f.admin, types.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, uint64(2), total)
	for _, r := range all {
		require.NotNil(t, r.Employee)
		assert.NotEmpty(t, r.Employee.Email)
	}

	accepted, _, err := f.svc.ListAll(ctx, f.admin, types.Filter{Filter: map[string]interface{}{"status": "accepted"}})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, first.ID, accepted[0].ID)
	assert.Equal(t, "Ivan", accepted[0].Employee.Name)

	_, _, err = f.svc.ListAll(ctx, f.admin, types.Filter{Filter: map[string]interface{}{"status": "lost"}})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestListAllSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	laptop := f.createPending(t, f.employee, f.laptop)
	monitor := f.createPending(t, f.other, f.monitor)

	found, total, err := f.svc.ListAll(ctx, f.admin, types.Filter{Search: "monit"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uint64(1), total)
	assert.Equal(t, monitor.ID, found[0].ID)

	found, _, err = f.svc.ListAll(ctx, f.admin, types.Filter{Search: "IVAN"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, laptop.ID, found[0].ID)

	// Поиск не расширяет выборку сотрудника за пределы его заявок.
	own, _, err := f.svc.ListForEmployee(ctx, f.employee.UserID, types.Filter{Search: "Monitor"})
	require.NoError(t, err)
	assert.Empty(t, own)

	own, _, err = f.svc.ListForEmployee(ctx, f.employee.UserID, types.Filter{WithPagination: true, Limit: 500, Offset: -1000})
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestGetHistoryAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)

	history, err := f.svc.GetHistory(ctx, f.employee, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Ivan", history[0].Actor)

	_, err = f.svc.GetHistory(ctx, f.other, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestAccessDenied)

	_, err = f.svc.GetHistory(ctx, f.admin, 12345)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestConcurrentAcceptSameHardware(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]uint64, workers)
	for i := range ids {
		ids[i] = f.createPending(t, f.employee, f.laptop).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := f.svc.AcceptRequest(ctx, f.admin, id, "QR-100")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.KindOf(err) == apperrors.KindConflict:
				conflicts++
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	f.assertLedgerConsistent(t)
}

func TestTransitionMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.createPending(t, f.employee, f.laptop)

	_, err := f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-404")
	require.Error(t, err)
	_, err = f.svc.AcceptRequest(ctx, f.admin, req.ID, "QR-100")
	require.NoError(t, err)
	_, err = f.svc.DetachRequest(ctx, f.admin, req.ID, "QR-200")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("accept", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("accept", metrics.ResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("detach", metrics.ResultConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("create", metrics.ResultOK)))
}
