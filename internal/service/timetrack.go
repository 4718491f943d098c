package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sun1tar/task-planner/internal/models"
)

// Ошибки переходов таймера и разбиения. Вызывающий код обязан проверять
// применимость операции: отклонённый переход не меняет состояние задачи.
var (
	ErrTaskCompleted = errors.New("task is completed")
	ErrTimerRunning  = errors.New("timer already running")
	ErrNoTimeSpent   = errors.New("task has no accumulated time")
	ErrBadSplitPoint = errors.New("split point is out of range")
)

// Машина состояний задачи: Idle (таймер не идёт, не завершена),
// Running (TimerStarted установлен), Completed (терминальное для записи).
// TimerStarted установлен тогда и только тогда, когда открыта таймерная
// сессия; закрытие сессии переносит прошедшее время в TimeSpent.

// StartTimer открывает таймерную сессию. Допустим только из Idle:
// повторный старт и старт на завершённой задаче отклоняются без изменений.
func StartTimer(t *models.Task, now time.Time) error {
	if t.Completed {
		return ErrTaskCompleted
	}
	if t.TimerStarted != nil {
		return ErrTimerRunning
	}
	started := now
	t.TimerStarted = &started
	return nil
}

// StopTimer закрывает таймерную сессию: прошедшее время прибавляется к
// TimeSpent, TimerStarted снимается. На задаче в Idle - no-op.
func StopTimer(t *models.Task, now time.Time) {
	if t.TimerStarted == nil {
		return
	}
	elapsed := now.Sub(*t.TimerStarted).Milliseconds()
	if elapsed > 0 {
		t.TimeSpent += elapsed
	}
	t.TimerStarted = nil
}

// ToggleComplete переключает завершённость. Завершение из Running сначала
// делает неявный StopTimer. Повторный вызов на завершённой задаче снова
// открывает её (завершение - переключатель, а не одностороннее действие).
func ToggleComplete(t *models.Task, now time.Time) {
	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		return
	}
	StopTimer(t, now)
	t.Completed = true
	completedAt := now
	t.CompletedAt = &completedAt
}

// Split разбивает задачу на завершённую фазу и фазу-преемника.
// completedPart - сколько из накопленного TimeSpent уходит в завершённую
// часть. Исходная запись мутируется на месте, преемник возвращается как
// новая задача; обе записи сохраняет вызывающий как одну логическую
// единицу.
//
// Инварианты: TimeSpent обеих частей в сумме равен TimeSpent до разбиения;
// ExpectedTime делится пропорционально completedPart/TimeSpent (в сумме
// с точностью до целочисленного округления), по умолчанию 1 час.
func Split(t *models.Task, completedPart int64, now time.Time) (*models.Task, error) {
	total := t.TimeSpent
	if total <= 0 {
		return nil, ErrNoTimeSpent
	}
	if completedPart <= 0 || completedPart > total {
		return nil, ErrBadSplitPoint
	}
	remaining := total - completedPart

	base := t.BaseTitle()
	phase := t.CurrentPhase()

	expected := models.DefaultExpectedTimeMS
	if t.ExpectedTime != nil {
		expected = *t.ExpectedTime
	}
	// total > 0 проверен выше; страховка от деления на ноль оставлена,
	// чтобы вся оценка при нулевом времени доставалась преемнику
	var expectedCompleted int64
	if total > 0 {
		expectedCompleted = expected * completedPart / total
	}
	expectedRemaining := expected - expectedCompleted

	successor := &models.Task{
		ID:           "t_" + uuid.New().String(),
		UserID:       t.UserID,
		Title:        fmt.Sprintf("%s (Phase %d)", base, phase+1),
		Description:  t.Description,
		Completed:    false,
		TimeSpent:    remaining,
		ExpectedTime: &expectedRemaining,
		Phase:        phase + 1,
		CreatedAt:    now,
	}
	if t.Deadline != nil {
		d := *t.Deadline
		successor.Deadline = &d
	}
	if t.Category != nil {
		cat := *t.Category
		successor.Category = &cat
	}

	completedAt := now
	t.Title = fmt.Sprintf("%s (Phase %d - Completed)", base, phase)
	t.Completed = true
	t.TimerStarted = nil
	t.TimeSpent = completedPart
	t.ExpectedTime = &expectedCompleted
	t.Phase = phase
	t.CompletedAt = &completedAt

	return successor, nil
}
