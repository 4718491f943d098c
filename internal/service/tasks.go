package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/models"
	"github.com/sun1tar/task-planner/internal/repository"
	"github.com/sun1tar/task-planner/internal/storage"
)

var (
	ErrEmptyTitle   = errors.New("title is required")
	ErrTaskNotFound = errors.New("task not found")
)

// TaskService - координатор согласования. Владеет авторитетной коллекцией
// задач и активным фильтром каждого пользователя на время сессии.
//
// Каждая мутирующая команда выполняется по одной схеме: мутация коллекции
// в памяти -> remote best-effort -> безусловная локальная запись ->
// пересчёт видимого набора активным фильтром. HTTP-сервер конкурентен,
// поэтому однопоточная модель команд сведена к сериализации мьютексом.
type TaskService struct {
	client *repository.Client
	store  *storage.Store
	logger *logrus.Logger
	now    func() time.Time

	mu      sync.Mutex
	tasks   map[string][]*models.Task
	filters map[string]models.Filter
	loaded  map[string]bool
}

func NewTaskService(client *repository.Client, store *storage.Store, logger *logrus.Logger) *TaskService {
	return &TaskService{
		client:  client,
		store:   store,
		logger:  logger,
		now:     time.Now,
		tasks:   make(map[string][]*models.Task),
		filters: make(map[string]models.Filter),
		loaded:  make(map[string]bool),
	}
}

func (s *TaskService) entry(userID string) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"component": "task_service",
		"user_id":   userID,
	})
}

// CreateInput - поля создания задачи
type CreateInput struct {
	Title        string
	Description  string
	Deadline     *time.Time
	Category     *models.Category
	ExpectedTime *int64
}

// UpdateInput - частичное обновление, nil-поля не трогаются
type UpdateInput struct {
	Title        *string
	Description  *string
	Deadline     *time.Time
	Category     *models.Category
	ExpectedTime *int64
}

// ensureLoadedLocked поднимает коллекцию пользователя: удалённое хранилище,
// затем локальные ключи (см. Client.LoadTasks). Вызывается под мьютексом.
func (s *TaskService) ensureLoadedLocked(ctx context.Context, userID string) {
	if s.loaded[userID] {
		return
	}
	tasks, source := s.client.LoadTasks(ctx, userID)
	for _, t := range tasks {
		if t.UserID == "" {
			t.UserID = userID
		}
	}
	s.tasks[userID] = tasks
	s.loaded[userID] = true
	s.entry(userID).WithFields(logrus.Fields{
		"count":  len(tasks),
		"source": source,
	}).Debug("task collection loaded")
}

// saveAllLocked сериализует коллекцию пользователя в локальное хранилище.
// Первичная запись - ключ пользователя, она определяет результат; общий
// ключ - резервная копия, её отказ на результат не влияет. Даты уходят в
// JSON каноничными строками RFC3339.
func (s *TaskService) saveAllLocked(userID string) bool {
	tasks := s.tasks[userID]
	primary := s.store.SetJSON(storage.TasksKey(userID), tasks)

	// Резервная копия под общим ключом: свои задачи заменяем, чужие оставляем
	var global []*models.Task
	s.store.GetJSON(storage.KeyTasks, &global)
	merged := make([]*models.Task, 0, len(global)+len(tasks))
	for _, t := range global {
		if t.UserID != userID {
			merged = append(merged, t)
		}
	}
	merged = append(merged, tasks...)
	s.store.SetJSON(storage.KeyTasks, merged)

	if !primary {
		s.entry(userID).Warn("local write-through failed")
	}
	return primary
}

// SaveAll - явное сохранение всей коллекции (используется round-trip
// тестами и выгрузкой). true только при успехе первичной записи.
func (s *TaskService) SaveAll(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAllLocked(userID)
}

// LoadForUser загружает коллекцию, применяет фильтр и возвращает видимый
// набор. Переданный фильтр становится активным.
func (s *TaskService) LoadForUser(ctx context.Context, userID string, f models.Filter) []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)
	s.filters[userID] = f
	return s.visibleLocked(userID)
}

// ActiveFilter возвращает активный фильтр пользователя (дефолтный, если
// пользователь ещё не задавал)
func (s *TaskService) ActiveFilter(userID string) models.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filters[userID]; ok {
		return f
	}
	return models.DefaultFilter()
}

// SetFilter мутирует активный фильтр и возвращает пересчитанный видимый
// набор
func (s *TaskService) SetFilter(ctx context.Context, userID string, f models.Filter) []*models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)
	s.filters[userID] = f
	return s.visibleLocked(userID)
}

func (s *TaskService) visibleLocked(userID string) []*models.Task {
	f, ok := s.filters[userID]
	if !ok {
		f = models.DefaultFilter()
	}
	visible := FilterTasks(s.tasks[userID], f, s.now())
	out := make([]*models.Task, len(visible))
	for i, t := range visible {
		out[i] = t.Clone()
	}
	return out
}

func (s *TaskService) findLocked(userID, id string) (*models.Task, error) {
	for _, t := range s.tasks[userID] {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrTaskNotFound
}

// Get возвращает копию задачи по id
func (s *TaskService) Get(ctx context.Context, userID, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)
	t, err := s.findLocked(userID, id)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// Create добавляет задачу. Пустой заголовок - ошибка валидации, блокирующая
// операцию; отказ персистентности операцию не блокирует и виден в
// WriteResult.
func (s *TaskService) Create(ctx context.Context, userID string, in CreateInput) (*models.Task, repository.WriteResult, error) {
	if in.Title == "" {
		return nil, repository.WriteResult{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	task := &models.Task{
		ID:           "t_" + uuid.New().String(),
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		Deadline:     in.Deadline,
		Category:     in.Category,
		ExpectedTime: in.ExpectedTime,
		Phase:        1,
		CreatedAt:    s.now(),
	}
	s.tasks[userID] = append(s.tasks[userID], task)

	result := s.persistLocked(ctx, userID, task)
	s.entry(userID).WithFields(logrus.Fields{
		"task_id": task.ID,
		"remote":  result.RemoteOK,
		"local":   result.LocalOK,
	}).Info("task created")
	return task.Clone(), result, nil
}

// Update применяет частичное обновление
func (s *TaskService) Update(ctx context.Context, userID, id string, in UpdateInput) (*models.Task, repository.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	task, err := s.findLocked(userID, id)
	if err != nil {
		return nil, repository.WriteResult{}, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, repository.WriteResult{}, ErrEmptyTitle
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Deadline != nil {
		task.Deadline = in.Deadline
	}
	if in.Category != nil {
		task.Category = in.Category
	}
	if in.ExpectedTime != nil {
		task.ExpectedTime = in.ExpectedTime
	}

	result := s.persistLocked(ctx, userID, task)
	return task.Clone(), result, nil
}

// Delete удаляет задачу из коллекции, удалённого и локального хранилищ
func (s *TaskService) Delete(ctx context.Context, userID, id string) (repository.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	tasks := s.tasks[userID]
	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return repository.WriteResult{}, ErrTaskNotFound
	}
	s.tasks[userID] = append(tasks[:idx], tasks[idx+1:]...)

	result := repository.WriteResult{
		RemoteOK: s.client.RemoveTask(ctx, id),
		LocalOK:  s.saveAllLocked(userID),
	}
	s.entry(userID).WithField("task_id", id).Info("task deleted")
	return result, nil
}

// ToggleComplete переключает завершённость (двустороннее переключение,
// с неявной остановкой таймера при завершении)
func (s *TaskService) ToggleComplete(ctx context.Context, userID, id string) (*models.Task, repository.WriteResult, error) {
	return s.mutate(ctx, userID, id, func(t *models.Task) error {
		ToggleComplete(t, s.now())
		return nil
	})
}

// StartTimer открывает таймерную сессию задачи
func (s *TaskService) StartTimer(ctx context.Context, userID, id string) (*models.Task, repository.WriteResult, error) {
	return s.mutate(ctx, userID, id, func(t *models.Task) error {
		return StartTimer(t, s.now())
	})
}

// StopTimer закрывает таймерную сессию задачи
func (s *TaskService) StopTimer(ctx context.Context, userID, id string) (*models.Task, repository.WriteResult, error) {
	return s.mutate(ctx, userID, id, func(t *models.Task) error {
		StopTimer(t, s.now())
		return nil
	})
}

// mutate - общий каркас команды над одной задачей: найти, мутировать,
// сохранить (remote best-effort + локальный write-through)
func (s *TaskService) mutate(ctx context.Context, userID, id string, op func(*models.Task) error) (*models.Task, repository.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	task, err := s.findLocked(userID, id)
	if err != nil {
		return nil, repository.WriteResult{}, err
	}
	if err := op(task); err != nil {
		return nil, repository.WriteResult{}, err
	}
	result := s.persistLocked(ctx, userID, task)
	return task.Clone(), result, nil
}

// SplitTask разбивает задачу на завершённую фазу и преемника. Обе записи
// сохраняются как одна логическая единица: локальная запись одна на обе
// половины, так что частичного разбиения в локальном хранилище не бывает
// даже при отказе удалённой записи одной из половин.
func (s *TaskService) SplitTask(ctx context.Context, userID, id string, completedPart int64) (*models.Task, *models.Task, repository.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)

	task, err := s.findLocked(userID, id)
	if err != nil {
		return nil, nil, repository.WriteResult{}, err
	}
	successor, err := Split(task, completedPart, s.now())
	if err != nil {
		return nil, nil, repository.WriteResult{}, err
	}
	s.tasks[userID] = append(s.tasks[userID], successor)

	remoteOK := s.client.PushTask(ctx, task)
	remoteOK = s.client.PushTask(ctx, successor) && remoteOK
	result := repository.WriteResult{
		RemoteOK: remoteOK,
		LocalOK:  s.saveAllLocked(userID),
	}
	s.entry(userID).WithFields(logrus.Fields{
		"task_id":      task.ID,
		"successor_id": successor.ID,
		"remote":       result.RemoteOK,
		"local":        result.LocalOK,
	}).Info("task split")
	return task.Clone(), successor.Clone(), result, nil
}

// Search ищет по подстроке: удалённо, при отказе - локальный движок
// фильтрации по авторитетной коллекции
func (s *TaskService) Search(ctx context.Context, userID, q string) []*models.Task {
	if tasks, ok := s.client.SearchTasks(ctx, userID, q); ok {
		return tasks
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked(ctx, userID)
	visible := FilterTasks(s.tasks[userID], models.Filter{Status: models.StatusAll, SearchTerm: q}, s.now())
	out := make([]*models.Task, len(visible))
	for i, t := range visible {
		out[i] = t.Clone()
	}
	return out
}

// persistLocked - remote best-effort + безусловный локальный write-through.
// Отказ хранилища не откатывает мутацию в памяти: задача остаётся в новом
// состоянии, отказ виден только в WriteResult.
func (s *TaskService) persistLocked(ctx context.Context, userID string, task *models.Task) repository.WriteResult {
	return repository.WriteResult{
		RemoteOK: s.client.PushTask(ctx, task),
		LocalOK:  s.saveAllLocked(userID),
	}
}
