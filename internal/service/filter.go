package service

import (
	"strings"
	"time"

	"github.com/sun1tar/task-planner/internal/models"
)

// FilterTasks - чистая функция фильтрации: принимает коллекцию и фильтр,
// возвращает видимое подмножество. Стадии применяются в фиксированном
// порядке, каждая сужает результат предыдущей; порядок задач сохраняется
// (стабильный фильтр, без пересортировки).
func FilterTasks(tasks []*models.Task, f models.Filter, now time.Time) []*models.Task {
	result := tasks

	// 1. Категория. Фильтр "Uncategorized" выбирает задачи без категории
	// (сентинель, а не литеральная строка в данных)
	if f.Category != "" {
		result = keep(result, func(t *models.Task) bool {
			return t.CategoryName() == f.Category
		})
	}

	// 2. Статус. Незаполненный статус = Pending
	switch f.EffectiveStatus() {
	case models.StatusPending:
		result = keep(result, func(t *models.Task) bool { return !t.Completed })
	case models.StatusCompleted:
		result = keep(result, func(t *models.Task) bool { return t.Completed })
	case models.StatusOverdue:
		// Задача без дедлайна не бывает просроченной
		result = keep(result, func(t *models.Task) bool {
			return !t.Completed && t.Deadline != nil && t.Deadline.Before(now)
		})
	case models.StatusAll:
		// без фильтрации
	}

	// 3. Календарный день
	if f.DateRange != nil {
		result = keep(result, func(t *models.Task) bool {
			return sameDay(t.RelevantDate(now), *f.DateRange)
		})
	}

	// 4. Поиск по подстроке в заголовке и описании
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		needle := strings.ToLower(term)
		result = keep(result, func(t *models.Task) bool {
			return strings.Contains(strings.ToLower(t.Title), needle) ||
				strings.Contains(strings.ToLower(t.Description), needle)
		})
	}

	return result
}

// keep возвращает новый слайс, не трогая вход (коллекция принадлежит
// координатору)
func keep(tasks []*models.Task, pred func(*models.Task) bool) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
