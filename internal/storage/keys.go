package storage

import "time"

// Ключи локального хранилища. Формат совпадает с ключами веб-версии,
// чтобы дампы были переносимы между клиентами.
const (
	KeyUser      = "taskManagerUser"
	KeyTasks     = "taskManagerTasks"
	KeySettings  = "taskManagerSettings"
	KeyErrorLogs = "taskManagerErrorLogs"
	KeyFeedback  = "feedbackReports"
)

// TasksKey - ключ задач конкретного пользователя
func TasksKey(userID string) string {
	return KeyTasks + "_" + userID
}

// SettingsKey - ключ настроек конкретного пользователя
func SettingsKey(userID string) string {
	return KeySettings + "_" + userID
}

// PlannerKey - ключ дневного плана на дату
func PlannerKey(date time.Time) string {
	return "dailyPlanner_" + date.Format("2006-01-02")
}

// PlannerKeyRaw - то же самое для уже отформатированной даты yyyy-MM-dd
func PlannerKeyRaw(date string) string {
	return "dailyPlanner_" + date
}
