package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sun1tar/task-planner/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestStartStopAccumulatesElapsed(t *testing.T) {
	// Сценарий: старт таймера, 1000 мс по симулированным часам, стоп
	task := &models.Task{ID: "1"}
	t0 := testNow

	require.NoError(t, StartTimer(task, t0))
	require.NotNil(t, task.TimerStarted)
	assert.Equal(t, t0, *task.TimerStarted)

	StopTimer(task, t0.Add(1000*time.Millisecond))
	assert.Nil(t, task.TimerStarted)
	assert.Equal(t, int64(1000), task.TimeSpent)
}

func TestStartTwiceRejected(t *testing.T) {
	task := &models.Task{ID: "1"}
	t0 := testNow

	require.NoError(t, StartTimer(task, t0))
	started := *task.TimerStarted

	err := StartTimer(task, t0.Add(time.Minute))
	assert.ErrorIs(t, err, ErrTimerRunning)
	// Отклонённый старт не трогает открытую сессию
	assert.Equal(t, started, *task.TimerStarted)
}

func TestStartOnCompletedRejected(t *testing.T) {
	task := &models.Task{ID: "1", Completed: true}

	err := StartTimer(task, testNow)
	assert.ErrorIs(t, err, ErrTaskCompleted)
	assert.Nil(t, task.TimerStarted)
}

func TestStopIdleIsNoop(t *testing.T) {
	task := &models.Task{ID: "1", TimeSpent: 500}

	StopTimer(task, testNow)
	assert.Equal(t, int64(500), task.TimeSpent)
	assert.Nil(t, task.TimerStarted)
}

func TestToggleCompleteStopsRunningTimer(t *testing.T) {
	task := &models.Task{ID: "1"}
	t0 := testNow

	require.NoError(t, StartTimer(task, t0))
	ToggleComplete(task, t0.Add(2*time.Second))

	assert.True(t, task.Completed)
	assert.Nil(t, task.TimerStarted)
	assert.Equal(t, int64(2000), task.TimeSpent)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, t0.Add(2*time.Second), *task.CompletedAt)
}

func TestToggleCompleteReopens(t *testing.T) {
	task := &models.Task{ID: "1"}

	ToggleComplete(task, testNow)
	require.True(t, task.Completed)

	// Завершение - переключатель: повторный вызов открывает задачу снова
	ToggleComplete(task, testNow.Add(time.Minute))
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestSplitReportScenario(t *testing.T) {
	// Задача с 1 ч накопленного времени и оценкой 2 ч разбивается пополам
	task := &models.Task{
		ID:           "1",
		Title:        "Write report",
		TimeSpent:    3600000,
		ExpectedTime: int64Ptr(7200000),
	}

	successor, err := Split(task, 1800000, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Write report (Phase 1 - Completed)", task.Title)
	assert.True(t, task.Completed)
	assert.Equal(t, int64(1800000), task.TimeSpent)
	assert.Equal(t, int64(3600000), *task.ExpectedTime)
	require.NotNil(t, task.CompletedAt)

	assert.Equal(t, "Write report (Phase 2)", successor.Title)
	assert.Equal(t, 2, successor.Phase)
	assert.False(t, successor.Completed)
	assert.Equal(t, int64(1800000), successor.TimeSpent)
	assert.Equal(t, int64(3600000), *successor.ExpectedTime)
	assert.NotEqual(t, task.ID, successor.ID)
	assert.Equal(t, testNow, successor.CreatedAt)
}

func TestSplitConservation(t *testing.T) {
	// Для любой точки разбиения суммы TimeSpent и ExpectedTime сохраняются
	const total = int64(90000)
	const expected = int64(5400000)

	for _, part := range []int64{1, 30000, 45000, 89999, total} {
		task := &models.Task{
			ID:           "1",
			Title:        "Any",
			TimeSpent:    total,
			ExpectedTime: int64Ptr(expected),
		}
		successor, err := Split(task, part, testNow)
		require.NoError(t, err)

		assert.Equal(t, part, task.TimeSpent)
		assert.Equal(t, total-part, successor.TimeSpent)
		assert.Equal(t, expected, *task.ExpectedTime+*successor.ExpectedTime)
	}
}

func TestSplitDefaultExpectedTime(t *testing.T) {
	task := &models.Task{ID: "1", Title: "X", TimeSpent: 1000}

	successor, err := Split(task, 500, testNow)
	require.NoError(t, err)

	// Без оценки делится дефолтный час
	assert.Equal(t, models.DefaultExpectedTimeMS, *task.ExpectedTime+*successor.ExpectedTime)
}

func TestSplitCopiesContext(t *testing.T) {
	deadline := testNow.Add(48 * time.Hour)
	task := &models.Task{
		ID:          "1",
		Title:       "X",
		Description: "details",
		Deadline:    &deadline,
		Category:    &models.Category{Name: "Work", Color: "#fff"},
		TimeSpent:   1000,
	}

	successor, err := Split(task, 400, testNow)
	require.NoError(t, err)

	assert.Equal(t, "details", successor.Description)
	require.NotNil(t, successor.Deadline)
	assert.Equal(t, deadline, *successor.Deadline)
	require.NotNil(t, successor.Category)
	assert.Equal(t, "Work", successor.Category.Name)

	// Копии независимы от оригинала
	assert.NotSame(t, task.Deadline, successor.Deadline)
	assert.NotSame(t, task.Category, successor.Category)
}

func TestSplitChainedPhases(t *testing.T) {
	// Повторное разбиение преемника наращивает номер фазы, аннотации в
	// заголовке не накапливаются
	task := &models.Task{ID: "1", Title: "Big thing", TimeSpent: 4000}

	second, err := Split(task, 1000, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Big thing (Phase 2)", second.Title)

	third, err := Split(second, 1500, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Big thing (Phase 2 - Completed)", second.Title)
	assert.Equal(t, "Big thing (Phase 3)", third.Title)
	assert.Equal(t, 3, third.Phase)
}

func TestSplitPhaseFromTitleFallback(t *testing.T) {
	// Номер фазы восстанавливается из заголовка, если поле не заполнено
	task := &models.Task{ID: "1", Title: "Thing (Phase 4)", TimeSpent: 1000}

	successor, err := Split(task, 500, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Thing (Phase 4 - Completed)", task.Title)
	assert.Equal(t, "Thing (Phase 5)", successor.Title)
}

func TestSplitRejectedWithoutTimeSpent(t *testing.T) {
	task := &models.Task{ID: "1", Title: "X"}

	_, err := Split(task, 100, testNow)
	assert.ErrorIs(t, err, ErrNoTimeSpent)
	assert.False(t, task.Completed)
	assert.Equal(t, "X", task.Title)
}

func TestSplitRejectedOnBadPoint(t *testing.T) {
	for _, part := range []int64{0, -5, 1001} {
		task := &models.Task{ID: "1", Title: "X", TimeSpent: 1000}

		_, err := Split(task, part, testNow)
		assert.ErrorIs(t, err, ErrBadSplitPoint)
		assert.Equal(t, int64(1000), task.TimeSpent)
	}
}

func TestSplitClearsRunningTimerWithoutAccrual(t *testing.T) {
	started := testNow.Add(-time.Minute)
	task := &models.Task{ID: "1", Title: "X", TimeSpent: 1000, TimerStarted: &started}

	successor, err := Split(task, 600, testNow)
	require.NoError(t, err)

	// Открытая сессия снимается, в сумме остаётся накопленное до разбиения
	assert.Nil(t, task.TimerStarted)
	assert.Equal(t, int64(1000), task.TimeSpent+successor.TimeSpent)
}
