package repository

import (
	"context"

	"github.com/sun1tar/task-planner/internal/models"
)

// Repository - удалённое реляционное хранилище (таблицы users, categories,
// tasks, daily_planner). Реализация не хранит состояние задач между
// вызовами - это чистый I/O-коллаборатор координатора.
type Repository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	SearchTasks(ctx context.Context, userID, titleSubstring string) ([]*models.Task, error)

	GetOrCreateUser(ctx context.Context, username string) (*models.User, error)
	ListCategories(ctx context.Context, userID string) ([]*models.Category, error)

	GetDailyPlan(ctx context.Context, userID, date string) (*models.DailyPlan, error)
	SaveDailyPlan(ctx context.Context, plan *models.DailyPlan) error

	Close() error
}
