package constants

// --- СТАТУСЫ ЗАЯВОК (совпадают со значениями в БД) ---
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
	RequestStatusDetached = "detached"
)

// --- СРОК ВЫДАЧИ ---
const (
	DurationLifetime  = "lifetime"
	DurationTemporary = "temporary"
)

// --- РОЛИ ---
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// --- СОБЫТИЯ ИСТОРИИ ЗАЯВКИ ---
const (
	HistoryEventCreated  = "CREATED"
	HistoryEventAccepted = "ACCEPTED"
	HistoryEventRejected = "REJECTED"
	HistoryEventDetached = "DETACHED"
	HistoryEventDeleted  = "DELETED"
)

// Переходы: из какого статуса в какие можно попасть. pending - единственный начальный.
var requestTransitions = map[string][]string{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusRejected},
	RequestStatusAccepted: {RequestStatusDetached},
}

func CanTransition(from, to string) bool {
	for _, s := range requestTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsFinalStatus(status string) bool {
	return len(requestTransitions[status]) == 0
}

func IsValidStatus(status string) bool {
	switch status {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected, RequestStatusDetached:
		return true
	}
	return false
}

// Cache keys
const (
	// Формат: login_attempts:<email> -> количество неудачных попыток
	CacheKeyLoginAttempts = "login_attempts:%s"
)
