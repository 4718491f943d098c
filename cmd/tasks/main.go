package main

import (
	"fmt"
	"net/http"

	"github.com/sun1tar/task-planner/internal/auth"
	"github.com/sun1tar/task-planner/internal/config"
	handlers "github.com/sun1tar/task-planner/internal/http"
	customMiddleware "github.com/sun1tar/task-planner/internal/middleware"
	"github.com/sun1tar/task-planner/internal/repository"
	"github.com/sun1tar/task-planner/internal/service"
	"github.com/sun1tar/task-planner/internal/storage"
	"github.com/sun1tar/task-planner/shared/logger"
	"github.com/sun1tar/task-planner/shared/middleware"
)

func main() {
	logrusLogger := logger.Init("tasks")

	cfg, err := config.Load()
	if err != nil {
		logrusLogger.WithError(err).Fatal("failed to load config")
	}

	// Локальное хранилище обязательно: это fallback для всех операций
	store, err := storage.New(cfg.StorageDir, logrusLogger)
	if err != nil {
		logrusLogger.WithError(err).Fatal("failed to init local storage")
	}
	if !store.Available() {
		logrusLogger.Fatal("local storage is not available: " + cfg.StorageDir)
	}
	// Ошибки дублируются в ключ taskManagerErrorLogs
	logrusLogger.AddHook(storage.NewErrorLogHook(store))

	// Удалённое хранилище опционально: без учётных данных БД клиент
	// сразу работает в локальном режиме, удалённых попыток не делает
	var remote repository.Repository
	if cfg.DB.Configured() {
		postgresRepo, err := repository.NewPostgresRepository(cfg.DB.DSN())
		if err != nil {
			logrusLogger.WithError(err).Warn("remote store unavailable, running local-only")
		} else {
			defer postgresRepo.Close()
			remote = postgresRepo
		}
	} else {
		logrusLogger.Info("remote store not configured, running local-only")
	}
	client := repository.NewClient(remote, store, cfg.RemoteTimeout, logrusLogger)

	// Сессии и сервисы
	sessions := auth.NewManager(cfg.SessionTTL, logrusLogger)
	taskService := service.NewTaskService(client, store, logrusLogger)

	// Хендлеры
	taskHandler := handlers.NewTaskHandler(taskService, sessions, logrusLogger)
	plannerHandler := handlers.NewPlannerHandler(taskHandler, client, store)
	authHandler := handlers.NewAuthHandler(client, sessions, int(cfg.SessionTTL.Seconds()), logrusLogger)

	// Настройка роутера
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /v1/auth/logout", authHandler.Logout)

	mux.HandleFunc("POST /v1/tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /v1/tasks", taskHandler.ListTasks)
	mux.HandleFunc("GET /v1/tasks/search", taskHandler.SearchTasks)
	mux.HandleFunc("GET /v1/tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PATCH /v1/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /v1/tasks/{id}", taskHandler.DeleteTask)
	mux.HandleFunc("POST /v1/tasks/{id}/complete", taskHandler.CompleteTask)
	mux.HandleFunc("POST /v1/tasks/{id}/timer/start", taskHandler.StartTimer)
	mux.HandleFunc("POST /v1/tasks/{id}/timer/stop", taskHandler.StopTimer)
	mux.HandleFunc("POST /v1/tasks/{id}/split", taskHandler.SplitTask)
	mux.HandleFunc("GET /v1/stats", taskHandler.Stats)

	mux.HandleFunc("GET /v1/planner/{date}", plannerHandler.GetPlan)
	mux.HandleFunc("PUT /v1/planner/{date}", plannerHandler.PutPlan)
	mux.HandleFunc("GET /v1/settings", plannerHandler.GetSettings)
	mux.HandleFunc("PUT /v1/settings", plannerHandler.PutSettings)
	mux.HandleFunc("POST /v1/feedback", plannerHandler.PostFeedback)

	mux.Handle("GET /metrics", customMiddleware.MetricsHandler())

	// Цепочка middleware (порядок важен!)
	handler := middleware.RequestIDMiddleware(mux)                // 1. request-id
	handler = customMiddleware.SecurityHeadersMiddleware(handler) // 2. заголовки безопасности
	handler = customMiddleware.CSRFMiddleware(handler)            // 3. CSRF защита
	handler = customMiddleware.MetricsMiddleware(handler)         // 4. метрики
	handler = middleware.LoggingMiddleware(handler)               // 5. логирование

	addr := fmt.Sprintf(":%s", cfg.Port)
	logrusLogger.WithField("port", cfg.Port).Info("tasks service starting")
	if err := http.ListenAndServe(addr, handler); err != nil {
		logrusLogger.WithError(err).Fatal("server failed")
	}
}
