package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories/memory"
	"hardware-request-system/pkg/constants"
	"hardware-request-system/pkg/eventbus"
	"hardware-request-system/pkg/metrics"
	"hardware-request-system/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event eventbus.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	store     *memory.Store
	svc       *RequestService
	publisher *recordingPublisher
	metrics   *metrics.Metrics

	admin    *dto.UserClaims
	employee *dto.UserClaims
	other    *dto.UserClaims

	laptop  *entities.Hardware
	monitor *entities.Hardware
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore().WithClock(func() time.Time { return fixedNow })
	publisher := &recordingPublisher{}
	m := metrics.New(prometheus.NewRegistry())

	svc := NewRequestService(store, store, store, store, publisher, m, zap.NewNop()).(*RequestService)
	svc.now = func() time.Time { return fixedNow }

	f := &fixture{store: store, svc: svc, publisher: publisher, metrics: m}

	f.admin = f.createUser(t, "Admin", "admin@corp.local", constants.RoleAdmin)
	f.employee = f.createUser(t, "Ivan", "ivan@corp.local", constants.RoleEmployee)
	f.other = f.createUser(t, "Olga", "olga@corp.local", constants.RoleEmployee)

	var err error
	f.laptop, err = store.CreateHardware(ctx, &entities.Hardware{Name: "Laptop", Type: "laptop", QRCode: "QR-100"})
	require.NoError(t, err)
	f.monitor, err = store.CreateHardware(ctx, &entities.Hardware{Name: "Monitor", Type: "monitor", QRCode: "QR-200"})
	require.NoError(t, err)

	return f
}

func (f *fixture) createUser(t *testing.T, name, email, role string) *dto.UserClaims {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), &entities.User{Name: name, Email: email, Password: "x", Role: role})
	require.NoError(t, err)
	return &dto.UserClaims{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) createPending(t *testing.T, owner *dto.UserClaims, hw *entities.Hardware) *dto.RequestDTO {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), owner, dto.CreateRequestDTO{
		HardwareID:  hw.ID,
		Description: "нужно для работы",
		Duration:    constants.DurationLifetime,
	})
	require.NoError(t, err)
	require.Equal(t, constants.RequestStatusPending, req.Status)
	return req
}

func (f *fixture) hardware(t *testing.T, id uint64) *entities.Hardware {
	t.Helper()
	hw, err := f.store.FindHardware(context.Background(), id)
	require.NoError(t, err)
	return hw
}

func (f *fixture) request(t *testing.T, id uint64) *entities.RequestDetails {
	t.Helper()
	req, err := f.store.FindRequest(context.Background(), id)
	require.NoError(t, err)
	return req
}

func (f *fixture) availableIDs(t *testing.T) []uint64 {
	t.Helper()
	items, err := f.store.GetHardware(context.Background(), true)
	require.NoError(t, err)
	ids := make([]uint64, 0, len(items))
	for _, hw := range items {
		ids = append(ids, hw.ID)
	}
	return ids
}

func (f *fixture) historyEvents(t *testing.T, requestID uint64) []string {
	t.Helper()
	items, err := f.store.FindByRequestID(context.Background(), requestID)
	require.NoError(t, err)
	out := make([]string, 0, len(items))
	for _, h := range items {
		out = append(out, h.EventType)
	}
	return out
}

// assertLedgerConsistent: available == false тогда и только тогда, когда ровно одна принятая заявка ссылается на оборудование.
func (f *fixture) assertLedgerConsistent(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	all, err := f.store.GetHardware(ctx, false)
	require.NoError(t, err)
	accepted, _, err := f.store.GetRequests(ctx, types.Filter{Filter: map[string]interface{}{"status": constants.RequestStatusAccepted}})
	require.NoError(t, err)

	bound := make(map[uint64]int)
	for _, r := range accepted {
		bound[r.HardwareID]++
	}
	for _, hw := range all {
		require.LessOrEqual(t, bound[hw.ID], 1, "оборудование %d выдано дважды", hw.ID)
		require.Equal(t, bound[hw.ID] == 1, !hw.Available, "оборудование %d: available=%v, принятых заявок=%d", hw.ID, hw.Available, bound[hw.ID])
	}
}
