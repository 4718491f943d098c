package models

import "time"

// User - пользователь сессии. Создаётся при логине и задаёт неймспейс
// всех сохраняемых коллекций (taskManagerTasks_{userId} и т.д.)
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// PlanItem - один пункт дневного плана
type PlanItem struct {
	TaskID string `json:"task_id,omitempty"`
	Text   string `json:"text"`
	Done   bool   `json:"done"`
}

// DailyPlan - план на день (таблица daily_planner / ключ dailyPlanner_{дата})
type DailyPlan struct {
	UserID    string     `json:"user_id"`
	Date      string     `json:"date"` // yyyy-MM-dd
	DailyGoal string     `json:"daily_goal,omitempty"`
	PlanItems []PlanItem `json:"plan_items,omitempty"`
	Notes     string     `json:"notes,omitempty"`
}

// Settings - пользовательские настройки интерфейса
type Settings struct {
	Theme           string `json:"theme,omitempty"`
	DefaultView     string `json:"default_view,omitempty"` // list / calendar / cards
	DayStartHour    int    `json:"day_start_hour,omitempty"`
	ShowCompleted   bool   `json:"show_completed"`
	DefaultCategory string `json:"default_category,omitempty"`
}

// FeedbackReport - отчёт обратной связи (ключ feedbackReports)
type FeedbackReport struct {
	UserID    string    `json:"user_id,omitempty"`
	Message   string    `json:"message"`
	Page      string    `json:"page,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
