package models

import "time"

// Status - статусный фильтр списка задач
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusAll       Status = "All"
	StatusOverdue   Status = "Overdue"
)

// ParseStatus разбирает значение query-параметра status.
// Пустое или неизвестное значение трактуется как Pending
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusCompleted, StatusAll, StatusOverdue, StatusPending:
		return Status(s)
	default:
		return StatusPending
	}
}

// Filter - состояние фильтрации списка задач.
// Создаётся с дефолтами при первом обращении пользователя, мутируется
// командами фильтра и query-параметрами URL.
type Filter struct {
	Category   string     `json:"category,omitempty"` // пустая строка = без фильтра по категории
	Status     Status     `json:"status"`
	DateRange  *time.Time `json:"date_range,omitempty"` // фильтр "тот же календарный день"
	SearchTerm string     `json:"search_term,omitempty"`
}

// DefaultFilter - фильтр по умолчанию при входе пользователя
func DefaultFilter() Filter {
	return Filter{Status: StatusPending}
}

// EffectiveStatus нормализует незаполненный статус к Pending
func (f Filter) EffectiveStatus() Status {
	if f.Status == "" {
		return StatusPending
	}
	return f.Status
}
