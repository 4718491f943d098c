package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/auth"
	"github.com/sun1tar/task-planner/internal/models"
	"github.com/sun1tar/task-planner/internal/repository"
	"github.com/sun1tar/task-planner/internal/service"
	"github.com/sun1tar/task-planner/shared/middleware"
)

type TaskHandler struct {
	taskService *service.TaskService
	sessions    *auth.Manager
	logger      *logrus.Logger
}

func NewTaskHandler(ts *service.TaskService, sessions *auth.Manager, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: ts,
		sessions:    sessions,
		logger:      logger,
	}
}

func (h *TaskHandler) logEntry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// verifySession проверяет сессию через cookie
func (h *TaskHandler) verifySession(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	logEntry := h.logEntry(r, "verifySession")

	sessionCookie, err := r.Cookie("session_id")
	if err != nil {
		logEntry.Warn("session cookie missing")
		http.Error(w, `{"error":"unauthorized - session cookie missing"}`, http.StatusUnauthorized)
		return nil, false
	}

	session, ok := h.sessions.Verify(sessionCookie.Value)
	if !ok {
		logEntry.Warn("invalid session")
		http.Error(w, `{"error":"unauthorized - invalid session"}`, http.StatusUnauthorized)
		return nil, false
	}
	return session, true
}

// sanitizeInput - простая защита от XSS (замена опасных символов)
func sanitizeInput(input string) string {
	replacer := strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		"&", "&amp;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(input)
}

// Структуры запросов/ответов
type categoryPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c *categoryPayload) toModel() *models.Category {
	if c == nil || c.Name == "" {
		return nil
	}
	return &models.Category{Name: c.Name, Color: c.Color}
}

type createTaskRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
	Category     *categoryPayload `json:"category,omitempty"`
	ExpectedTime *int64           `json:"expected_time,omitempty"`
}

type updateTaskRequest struct {
	Title        *string          `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
	Category     *categoryPayload `json:"category,omitempty"`
	ExpectedTime *int64           `json:"expected_time,omitempty"`
}

type splitTaskRequest struct {
	CompletedPartMS int64 `json:"completed_part_ms"`
}

// taskResponse - результат мутирующей операции. Отказ персистентности
// не блокирует операцию, он виден в поле persisted - клиент показывает
// неблокирующее уведомление.
type taskResponse struct {
	Task      *models.Task           `json:"task"`
	Persisted repository.WriteResult `json:"persisted"`
}

type listResponse struct {
	Filter models.Filter  `json:"filter"`
	Tasks  []*models.Task `json:"tasks"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOpError переводит доменные ошибки в HTTP-статусы
func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
	case errors.Is(err, service.ErrEmptyTitle):
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
	case errors.Is(err, service.ErrTaskCompleted),
		errors.Is(err, service.ErrTimerRunning),
		errors.Is(err, service.ErrNoTimeSpent),
		errors.Is(err, service.ErrBadSplitPoint):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

// CreateTask обрабатывает POST /v1/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "CreateTask")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	task, result, err := h.taskService.Create(r.Context(), session.UserID, service.CreateInput{
		Title:        sanitizeInput(req.Title),
		Description:  sanitizeInput(req.Description),
		Deadline:     req.Deadline,
		Category:     req.Category.toModel(),
		ExpectedTime: req.ExpectedTime,
	})
	if err != nil {
		logEntry.WithError(err).Warn("task create rejected")
		writeOpError(w, err)
		return
	}

	logEntry.WithField("task_id", task.ID).Info("task created successfully")
	writeJSON(w, http.StatusCreated, taskResponse{Task: task, Persisted: result})
}

// filterFromRequest собирает фильтр списка: query-параметры URL имеют
// приоритет над сохранённым состоянием фильтра, дефолт статуса - Pending.
// Параметр status читается всегда (его отсутствие и есть Pending),
// остальные поля берутся из URL только когда заданы.
func (h *TaskHandler) filterFromRequest(r *http.Request, userID string) models.Filter {
	f := h.taskService.ActiveFilter(userID)
	q := r.URL.Query()

	f.Status = models.ParseStatus(q.Get("status"))
	if q.Has("category") {
		f.Category = q.Get("category")
	}
	if q.Has("date") {
		if d, err := time.Parse("2006-01-02", q.Get("date")); err == nil {
			f.DateRange = &d
		} else {
			f.DateRange = nil
		}
	}
	if q.Has("q") {
		f.SearchTerm = q.Get("q")
	}
	return f
}

// ListTasks обрабатывает GET /v1/tasks.
// Ответ включает активный фильтр - это серверная половина двусторонней
// синхронизации фильтра с query-параметрами URL.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "ListTasks")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	f := h.filterFromRequest(r, session.UserID)
	tasks := h.taskService.LoadForUser(r.Context(), session.UserID, f)

	logEntry.WithField("count", len(tasks)).Debug("tasks listed")
	writeJSON(w, http.StatusOK, listResponse{Filter: f, Tasks: tasks})
}

// GetTask обрабатывает GET /v1/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "GetTask")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	task, err := h.taskService.Get(r.Context(), session.UserID, id)
	if err != nil {
		logEntry.WithField("task_id", id).Warn("task not found")
		writeOpError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTask обрабатывает PATCH /v1/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "UpdateTask")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		sanitized := sanitizeInput(*req.Title)
		req.Title = &sanitized
	}
	if req.Description != nil {
		sanitized := sanitizeInput(*req.Description)
		req.Description = &sanitized
	}

	task, result, err := h.taskService.Update(r.Context(), session.UserID, id, service.UpdateInput{
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     req.Deadline,
		Category:     req.Category.toModel(),
		ExpectedTime: req.ExpectedTime,
	})
	if err != nil {
		logEntry.WithError(err).WithField("task_id", id).Warn("task update rejected")
		writeOpError(w, err)
		return
	}

	logEntry.WithField("task_id", id).Info("task updated successfully")
	writeJSON(w, http.StatusOK, taskResponse{Task: task, Persisted: result})
}

// DeleteTask обрабатывает DELETE /v1/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "DeleteTask")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	result, err := h.taskService.Delete(r.Context(), session.UserID, id)
	if err != nil {
		logEntry.WithField("task_id", id).Warn("task not found for deletion")
		writeOpError(w, err)
		return
	}

	logEntry.WithField("task_id", id).Info("task deleted successfully")
	writeJSON(w, http.StatusOK, map[string]any{"persisted": result})
}

// CompleteTask обрабатывает POST /v1/tasks/{id}/complete - двустороннее
// переключение завершённости
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.taskOp(w, r, "CompleteTask", h.taskService.ToggleComplete)
}

// StartTimer обрабатывает POST /v1/tasks/{id}/timer/start
func (h *TaskHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	h.taskOp(w, r, "StartTimer", h.taskService.StartTimer)
}

// StopTimer обрабатывает POST /v1/tasks/{id}/timer/stop
func (h *TaskHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	h.taskOp(w, r, "StopTimer", h.taskService.StopTimer)
}

// taskOp - общий каркас операций над одной задачей без тела запроса
func (h *TaskHandler) taskOp(w http.ResponseWriter, r *http.Request, name string,
	op func(ctx context.Context, userID, id string) (*models.Task, repository.WriteResult, error)) {
	logEntry := h.logEntry(r, name)

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	task, result, err := op(r.Context(), session.UserID, id)
	if err != nil {
		logEntry.WithError(err).WithField("task_id", id).Warn("operation rejected")
		writeOpError(w, err)
		return
	}

	logEntry.WithField("task_id", id).Info("operation applied")
	writeJSON(w, http.StatusOK, taskResponse{Task: task, Persisted: result})
}

// SplitTask обрабатывает POST /v1/tasks/{id}/split
func (h *TaskHandler) SplitTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "SplitTask")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	var req splitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	completed, successor, result, err := h.taskService.SplitTask(r.Context(), session.UserID, id, req.CompletedPartMS)
	if err != nil {
		logEntry.WithError(err).WithField("task_id", id).Warn("split rejected")
		writeOpError(w, err)
		return
	}

	logEntry.WithFields(logrus.Fields{
		"task_id":      id,
		"successor_id": successor.ID,
	}).Info("task split successfully")
	writeJSON(w, http.StatusOK, map[string]any{
		"completed": completed,
		"successor": successor,
		"persisted": result,
	})
}

// SearchTasks обрабатывает GET /v1/tasks/search
func (h *TaskHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logEntry(r, "SearchTasks")

	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, `{"error":"search query parameter 'q' is required"}`, http.StatusBadRequest)
		return
	}
	query = sanitizeInput(query)

	logEntry.WithField("query", query).Info("searching tasks")
	tasks := h.taskService.Search(r.Context(), session.UserID, query)
	writeJSON(w, http.StatusOK, tasks)
}

// Stats обрабатывает GET /v1/stats - сводка для дашборда
func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	session, ok := h.verifySession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.taskService.Stats(r.Context(), session.UserID))
}
