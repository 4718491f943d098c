package service

import (
	"context"
)

// CategoryStats - агрегаты одной категории
type CategoryStats struct {
	Category      string `json:"category"`
	Total         int    `json:"total"`
	Completed     int    `json:"completed"`
	Pending       int    `json:"pending"`
	Overdue       int    `json:"overdue"`
	TimeSpentMS   int64  `json:"time_spent_ms"`
	ExpectedMS    int64  `json:"expected_ms"`
}

// Summary - сводка для дашборда аналитики. Сама отрисовка графиков
// остаётся на клиенте, сервис отдаёт только числа.
type Summary struct {
	Total       int             `json:"total"`
	Completed   int             `json:"completed"`
	Pending     int             `json:"pending"`
	Overdue     int             `json:"overdue"`
	TimeSpentMS int64           `json:"time_spent_ms"`
	ByCategory  []CategoryStats `json:"by_category"`
}

// Stats считает сводку по авторитетной коллекции пользователя. Задачи без
// категории группируются под тем же сентинелем, что и в фильтре.
func (s *TaskService) Stats(ctx context.Context, userID string) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	now := s.now()
	summary := Summary{}
	byName := map[string]*CategoryStats{}
	var order []string

	for _, t := range s.tasks[userID] {
		name := t.CategoryName()
		cs, ok := byName[name]
		if !ok {
			cs = &CategoryStats{Category: name}
			byName[name] = cs
			order = append(order, name)
		}

		summary.Total++
		cs.Total++
		summary.TimeSpentMS += t.TimeSpent
		cs.TimeSpentMS += t.TimeSpent
		if t.ExpectedTime != nil {
			cs.ExpectedMS += *t.ExpectedTime
		}

		switch {
		case t.Completed:
			summary.Completed++
			cs.Completed++
		case t.Deadline != nil && t.Deadline.Before(now):
			summary.Overdue++
			cs.Overdue++
			summary.Pending++
			cs.Pending++
		default:
			summary.Pending++
			cs.Pending++
		}
	}

	for _, name := range order {
		summary.ByCategory = append(summary.ByCategory, *byName[name])
	}
	return summary
}
