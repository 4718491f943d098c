package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun1tar/task-planner/internal/models"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func ids(tasks []*models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestFilterDefaultIsPending(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Completed: false},
		{ID: "2", Completed: true},
		{ID: "3", Completed: false},
	}

	// Незаполненный статус трактуется как Pending
	got := FilterTasks(tasks, models.Filter{}, testNow)
	assert.Equal(t, []string{"1", "3"}, ids(got))

	for _, task := range got {
		assert.False(t, task.Completed)
	}
}

func TestFilterCompleted(t *testing.T) {
	// Сценарий: из pending и completed задач фильтр Completed оставляет одну
	tasks := []*models.Task{
		{ID: "1", Completed: false},
		{ID: "2", Completed: true},
	}

	got := FilterTasks(tasks, models.Filter{Status: models.StatusCompleted}, testNow)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilterAll(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Completed: false},
		{ID: "2", Completed: true},
	}

	got := FilterTasks(tasks, models.Filter{Status: models.StatusAll}, testNow)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestFilterOverdue(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	tomorrow := testNow.Add(24 * time.Hour)

	tasks := []*models.Task{
		{ID: "past_open", Deadline: timePtr(yesterday), Completed: false},
		{ID: "past_done", Deadline: timePtr(yesterday), Completed: true},
		{ID: "future", Deadline: timePtr(tomorrow), Completed: false},
		{ID: "no_deadline", Completed: false},
	}

	got := FilterTasks(tasks, models.Filter{Status: models.StatusOverdue}, testNow)

	// Просрочена только незавершённая задача с прошедшим дедлайном;
	// задачи без дедлайна не бывают просроченными
	assert.Equal(t, []string{"past_open"}, ids(got))
}

func TestFilterCategory(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Category: &models.Category{Name: "Work", Color: "#ff0000"}},
		{ID: "2", Category: &models.Category{Name: "Home", Color: "#00ff00"}},
		{ID: "3"},
	}
	f := models.Filter{Status: models.StatusAll, Category: "Work"}

	got := FilterTasks(tasks, f, testNow)
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilterUncategorizedSentinel(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Category: &models.Category{Name: "Work"}},
		{ID: "2"},
		{ID: "3", Category: &models.Category{Name: models.CategoryNone}},
	}
	f := models.Filter{Status: models.StatusAll, Category: models.CategoryNone}

	// "Uncategorized" выбирает задачи без категории (и задачи, где имя
	// буквально совпало с сентинелем)
	got := FilterTasks(tasks, f, testNow)
	assert.Equal(t, []string{"2", "3"}, ids(got))
}

func TestFilterDateRangePrefersDeadline(t *testing.T) {
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	tasks := []*models.Task{
		{ID: "by_deadline", Deadline: timePtr(day.Add(10 * time.Hour)), CreatedAt: testNow.Add(-48 * time.Hour)},
		{ID: "by_completed", Completed: true, CompletedAt: timePtr(day.Add(2 * time.Hour))},
		{ID: "by_created", CreatedAt: day.Add(23 * time.Hour)},
		{ID: "other_day", Deadline: timePtr(day.Add(48 * time.Hour))},
	}
	f := models.Filter{Status: models.StatusAll, DateRange: timePtr(day)}

	got := FilterTasks(tasks, f, testNow)
	assert.Equal(t, []string{"by_deadline", "by_completed", "by_created"}, ids(got))
}

func TestFilterSearch(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Title: "Write report"},
		{ID: "2", Title: "Groceries", Description: "buy milk and REPORT receipts"},
		{ID: "3", Title: "Walk the dog"},
	}
	f := models.Filter{Status: models.StatusAll, SearchTerm: "  rePort "}

	// Поиск нечувствителен к регистру, пробелы по краям обрезаются,
	// описание тоже участвует
	got := FilterTasks(tasks, f, testNow)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}

func TestFilterStagesNarrowInOrder(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)
	tasks := []*models.Task{
		{ID: "1", Title: "Report draft", Category: &models.Category{Name: "Work"}, Deadline: timePtr(yesterday)},
		{ID: "2", Title: "Report final", Category: &models.Category{Name: "Work"}, Deadline: timePtr(yesterday), Completed: true},
		{ID: "3", Title: "Report notes", Category: &models.Category{Name: "Home"}, Deadline: timePtr(yesterday)},
		{ID: "4", Title: "Cleanup", Category: &models.Category{Name: "Work"}, Deadline: timePtr(yesterday)},
	}
	f := models.Filter{
		Category:   "Work",
		Status:     models.StatusOverdue,
		SearchTerm: "report",
	}

	got := FilterTasks(tasks, f, testNow)
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilterPreservesInputOrder(t *testing.T) {
	var tasks []*models.Task
	for _, id := range []string{"c", "a", "b", "e", "d"} {
		tasks = append(tasks, &models.Task{ID: id})
	}

	got := FilterTasks(tasks, models.Filter{Status: models.StatusAll}, testNow)
	require.Equal(t, []string{"c", "a", "b", "e", "d"}, ids(got))
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tasks := []*models.Task{
		{ID: "1", Completed: true},
		{ID: "2"},
	}

	_ = FilterTasks(tasks, models.Filter{Status: models.StatusPending}, testNow)
	assert.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].ID)
}
