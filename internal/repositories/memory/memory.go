package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hardware-request-system/internal/entities"
	"hardware-request-system/internal/repositories"
	"hardware-request-system/pkg/constants"
	apperrors "hardware-request-system/pkg/errors"
	"hardware-request-system/pkg/types"

	"github.com/jackc/pgx/v5"
)

// Store хранит все коллекции в памяти процесса и реализует интерфейсы репозиториев.
// Транзакции сериализуются общим мьютексом: методы *InTx вызываются только внутри
// RunInTransaction, когда мьютекс уже захвачен.
type Store struct {
	mu sync.Mutex

	users    map[uint64]entities.User
	hardware map[uint64]entities.Hardware
	requests map[uint64]entities.Request
	history  []entities.RequestHistory

	seq sequences
	now func() time.Time
}

type sequences struct {
	user, hardware, request, history uint64
}

type snapshot struct {
	users    map[uint64]entities.User
	hardware map[uint64]entities.Hardware
	requests map[uint64]entities.Request
	history  []entities.RequestHistory
	seq      sequences
}

var (
	_ repositories.TxManagerInterface                = (*Store)(nil)
	_ repositories.UserRepositoryInterface           = (*Store)(nil)
	_ repositories.HardwareRepositoryInterface       = (*Store)(nil)
	_ repositories.RequestRepositoryInterface        = (*Store)(nil)
	_ repositories.RequestHistoryRepositoryInterface = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users:    make(map[uint64]entities.User),
		hardware: make(map[uint64]entities.Hardware),
		requests: make(map[uint64]entities.Request),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock подменяет источник времени (для тестов).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	return fn(nil)
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		users:    make(map[uint64]entities.User, len(s.users)),
		hardware: make(map[uint64]entities.Hardware, len(s.hardware)),
		requests: make(map[uint64]entities.Request, len(s.requests)),
		history:  append([]entities.RequestHistory(nil), s.history...),
		seq:      s.seq,
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.hardware {
		snap.hardware[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.hardware = snap.hardware
	s.requests = snap.requests
	s.history = snap.history
	s.seq = snap.seq
}

// --- Users ---

func (s *Store) CreateUser(_ context.Context, user *entities.User) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, apperrors.ErrEmailTaken
		}
	}

	s.seq.user++
	created := *user
	created.ID = s.seq.user
	if created.Role == "" {
		created.Role = constants.RoleEmployee
	}
	created.CreatedAt = s.now()
	s.users[created.ID] = created
	return &created, nil
}

func (s *Store) FindUserByID(_ context.Context, id uint64) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// --- Hardware ---

func (s *Store) CreateHardware(_ context.Context, hw *entities.Hardware) (*entities.Hardware, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.hardware {
		if h.QRCode == hw.QRCode {
			return nil, apperrors.ErrQRCodeTaken
		}
	}

	s.seq.hardware++
	created := *hw
	created.ID = s.seq.hardware
	created.Available = true
	created.CreatedAt = s.now()
	s.hardware[created.ID] = created
	return &created, nil
}

func (s *Store) FindHardware(_ context.Context, id uint64) (*entities.Hardware, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findHardware(id)
}

func (s *Store) FindHardwareInTx(_ context.Context, _ pgx.Tx, id uint64) (*entities.Hardware, error) {
	return s.findHardware(id)
}

func (s *Store) findHardware(id uint64) (*entities.Hardware, error) {
	hw, ok := s.hardware[id]
	if !ok {
		return nil, apperrors.ErrHardwareNotFound
	}
	return &hw, nil
}

func (s *Store) FindByQRCodeInTx(_ context.Context, _ pgx.Tx, qrCode string) (*entities.Hardware, error) {
	for _, hw := range s.hardware {
		if hw.QRCode == qrCode {
			return &hw, nil
		}
	}
	return nil, apperrors.ErrHardwareNotFound
}

func (s *Store) GetHardware(_ context.Context, onlyAvailable bool) ([]entities.Hardware, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.Hardware, 0, len(s.hardware))
	for _, hw := range s.hardware {
		if onlyAvailable && !hw.Available {
			continue
		}
		items = append(items, hw)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) SetAvailabilityInTx(_ context.Context, _ pgx.Tx, id uint64, from, to bool) error {
	hw, ok := s.hardware[id]
	if !ok || hw.Available != from {
		return repositories.ErrRowNotUpdated
	}
	hw.Available = to
	s.hardware[id] = hw
	return nil
}

// --- Requests ---

func (s *Store) CreateRequestInTx(_ context.Context, _ pgx.Tx, req *entities.Request) (*entities.Request, error) {
	if _, ok := s.users[req.EmployeeID]; !ok {
		return nil, apperrors.Persistence(fmt.Errorf("requests.employee_id=%d: нарушение внешнего ключа", req.EmployeeID))
	}

	s.seq.request++
	created := *req
	created.ID = s.seq.request
	created.CreatedAt = s.now()
	created.UpdatedAt = created.CreatedAt
	s.requests[created.ID] = created
	return &created, nil
}

func (s *Store) FindRequestForUpdateInTx(_ context.Context, _ pgx.Tx, id uint64) (*entities.Request, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	return &req, nil
}

func (s *Store) TransitionInTx(_ context.Context, _ pgx.Tx, id uint64, from, to string, hardwareID uint64) error {
	req, ok := s.requests[id]
	if !ok || req.Status != from {
		return repositories.ErrRowNotUpdated
	}

	boundID := req.HardwareID
	if hardwareID != 0 {
		boundID = hardwareID
	}
	if to == constants.RequestStatusAccepted {
		for otherID, other := range s.requests {
			if otherID != id && other.Status == constants.RequestStatusAccepted && other.HardwareID == boundID {
				return apperrors.ErrHardwareUnavailable
			}
		}
	}

	req.Status = to
	req.HardwareID = boundID
	req.UpdatedAt = s.now()
	s.requests[id] = req
	return nil
}

func (s *Store) DeleteRequestInTx(_ context.Context, _ pgx.Tx, id uint64) error {
	if _, ok := s.requests[id]; !ok {
		return apperrors.ErrRequestNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *Store) FindRequest(_ context.Context, id uint64) (*entities.RequestDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, apperrors.ErrRequestNotFound
	}
	details := s.expand(req)
	return &details, nil
}

func (s *Store) GetRequests(_ context.Context, filter types.Filter) ([]entities.RequestDetails, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]entities.Request, 0, len(s.requests))
	for _, req := range s.requests {
		if matchesFilter(req, filter.Filter) && s.matchesSearch(req, search) {
			matched = append(matched, req)
		}
	}
	sortRequests(matched, filter.Sort)

	total := uint64(len(matched))
	if filter.WithPagination {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := len(matched)
		if filter.Limit > 0 && start+filter.Limit < end {
			end = start + filter.Limit
		}
		matched = matched[start:end]
	}

	list := make([]entities.RequestDetails, 0, len(matched))
	for _, req := range matched {
		list = append(list, s.expand(req))
	}
	return list, total, nil
}

func (s *Store) expand(req entities.Request) entities.RequestDetails {
	details := entities.RequestDetails{Request: req}
	if u, ok := s.users[req.EmployeeID]; ok {
		details.EmployeeName = u.Name
		details.EmployeeEmail = u.Email
	}
	if hw, ok := s.hardware[req.HardwareID]; ok {
		details.HardwareName = hw.Name
		details.HardwareType = hw.Type
		details.HardwareQRCode = hw.QRCode
	}
	return details
}

// Те же колонки, что и в Postgres: описание, имя сотрудника, название оборудования.
func (s *Store) matchesSearch(req entities.Request, search string) bool {
	if search == "" {
		return true
	}
	d := s.expand(req)
	for _, v := range []string{d.Description, d.EmployeeName, d.HardwareName} {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func matchesFilter(req entities.Request, filter map[string]interface{}) bool {
	fields := map[string]string{
		"id":          fmt.Sprint(req.ID),
		"employee_id": fmt.Sprint(req.EmployeeID),
		"hardware_id": fmt.Sprint(req.HardwareID),
		"status":      req.Status,
		"duration":    req.Duration,
	}
	for key, want := range filter {
		got, ok := fields[key]
		if !ok {
			continue
		}
		if !containsValue(strings.Split(fmt.Sprint(want), ","), got) {
			return false
		}
	}
	return true
}

func containsValue(values []string, v string) bool {
	for _, candidate := range values {
		if strings.TrimSpace(candidate) == v {
			return true
		}
	}
	return false
}

func sortRequests(list []entities.Request, sortBy map[string]string) {
	asc := false
	byID := false
	if dir, ok := sortBy["created_at"]; ok {
		asc = strings.EqualFold(dir, "asc")
	} else if dir, ok := sortBy["id"]; ok {
		asc = strings.EqualFold(dir, "asc")
		byID = true
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !byID && !a.CreatedAt.Equal(b.CreatedAt) {
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
}

// --- History ---

func (s *Store) CreateInTx(_ context.Context, _ pgx.Tx, history *entities.RequestHistory) error {
	s.seq.history++
	item := *history
	item.ID = s.seq.history
	item.CreatedAt = s.now()
	s.history = append(s.history, item)
	return nil
}

func (s *Store) FindByRequestID(_ context.Context, requestID uint64) ([]entities.RequestHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.RequestHistory, 0)
	for _, h := range s.history {
		if h.RequestID != requestID {
			continue
		}
		if u, ok := s.users[h.ActorID]; ok {
			h.ActorName = u.Name
		}
		items = append(items, h)
	}
	return items, nil
}
