package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sun1tar/task-planner/internal/models"
	"github.com/sun1tar/task-planner/internal/storage"
)

// WriteResult - итог двухфазной записи "remote best-effort, потом local".
// Оба флага возвращаются наружу, чтобы вызывающий код и тесты могли
// проверять частичные отказы, а не полагаться на логи.
type WriteResult struct {
	RemoteOK bool `json:"remote"`
	LocalOK  bool `json:"local"`
}

// Client - клиент удалённого хранилища с локальным fallback.
//
// Каждая операция сначала пытается выполниться удалённо с дедлайном;
// любая удалённая ошибка логируется и приводит к локальному результату
// через storage.Store, наружу ошибка не пробрасывается. Единственное
// исключение - конструктор: если БД не сконфигурирована, клиент сразу
// переводится в локальный режим и удалённых попыток не делает вовсе.
type Client struct {
	remote  Repository // nil = удалённое хранилище недоступно
	store   *storage.Store
	timeout time.Duration
	logger  *logrus.Logger
}

func NewClient(remote Repository, store *storage.Store, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		remote:  remote,
		store:   store,
		timeout: timeout,
		logger:  logger,
	}
}

// Configured сообщает, настроено ли удалённое хранилище
func (c *Client) Configured() bool {
	return c.remote != nil
}

func (c *Client) entry(op string) *logrus.Entry {
	return c.logger.WithFields(logrus.Fields{
		"component": "remote_client",
		"op":        op,
	})
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// LoadTasks загружает коллекцию задач: удалённое хранилище, при
// ошибке/пустом результате - локальный ключ пользователя, затем общий ключ.
// Вторым значением возвращается источник ("remote", "local", "local_global",
// "empty") - координатор пишет его в лог.
func (c *Client) LoadTasks(ctx context.Context, userID string) ([]*models.Task, string) {
	if c.remote != nil {
		rctx, cancel := c.withTimeout(ctx)
		tasks, err := c.remote.ListTasks(rctx, userID)
		cancel()
		if err != nil {
			c.entry("load_tasks").WithError(err).Error("remote load failed, falling back to local")
		} else if len(tasks) > 0 {
			return tasks, "remote"
		}
	}

	var tasks []*models.Task
	if c.store.GetJSON(storage.TasksKey(userID), &tasks) && len(tasks) > 0 {
		return tasks, "local"
	}

	// Общий ключ - резервная копия; в нём могут лежать задачи разных
	// пользователей, отбираем свои
	var all []*models.Task
	if c.store.GetJSON(storage.KeyTasks, &all) {
		tasks = tasks[:0]
		for _, t := range all {
			if t.UserID == "" || t.UserID == userID {
				tasks = append(tasks, t)
			}
		}
		if len(tasks) > 0 {
			return tasks, "local_global"
		}
	}
	return nil, "empty"
}

// PushTask записывает задачу в удалённое хранилище (update, затем create
// для новых). false = удалённая запись не прошла; локальную запись делает
// координатор независимо от результата.
func (c *Client) PushTask(ctx context.Context, task *models.Task) bool {
	if c.remote == nil {
		return false
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.remote.UpdateTask(rctx, task)
	if err == sql.ErrNoRows {
		err = c.remote.CreateTask(rctx, task)
	}
	if err != nil {
		c.entry("push_task").WithError(err).WithField("task_id", task.ID).
			Error("remote write failed")
		return false
	}
	return true
}

// RemoveTask удаляет задачу из удалённого хранилища (best-effort)
func (c *Client) RemoveTask(ctx context.Context, id string) bool {
	if c.remote == nil {
		return false
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.remote.DeleteTask(rctx, id); err != nil && err != sql.ErrNoRows {
		c.entry("remove_task").WithError(err).WithField("task_id", id).
			Error("remote delete failed")
		return false
	}
	return true
}

// SearchTasks ищет на удалённой стороне, при отказе возвращает false -
// координатор тогда ищет по локальной коллекции движком фильтрации
func (c *Client) SearchTasks(ctx context.Context, userID, q string) ([]*models.Task, bool) {
	if c.remote == nil {
		return nil, false
	}
	rctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tasks, err := c.remote.SearchTasks(rctx, userID, q)
	if err != nil {
		c.entry("search_tasks").WithError(err).Error("remote search failed, falling back to local")
		return nil, false
	}
	return tasks, true
}

// GetOrCreateUser возвращает пользователя по имени. Удалённая ошибка не
// фатальна: локальный fallback переиспользует сохранённого пользователя
// (ключ taskManagerUser) либо создаёт нового со стабильным id.
func (c *Client) GetOrCreateUser(ctx context.Context, username string) *models.User {
	if c.remote != nil {
		rctx, cancel := c.withTimeout(ctx)
		user, err := c.remote.GetOrCreateUser(rctx, username)
		cancel()
		if err == nil {
			c.store.SetJSON(storage.KeyUser, user)
			return user
		}
		c.entry("get_user").WithError(err).Error("remote user lookup failed, falling back to local")
	}

	var user models.User
	if c.store.GetJSON(storage.KeyUser, &user) && user.Username == username && user.ID != "" {
		return &user
	}
	user = models.User{ID: "u_" + uuid.New().String(), Username: username}
	c.store.SetJSON(storage.KeyUser, &user)
	return &user
}

// ListCategories возвращает категории пользователя. Локальный fallback
// восстанавливает список из снимков категорий в локальных задачах.
func (c *Client) ListCategories(ctx context.Context, userID string) []*models.Category {
	if c.remote != nil {
		rctx, cancel := c.withTimeout(ctx)
		categories, err := c.remote.ListCategories(rctx, userID)
		cancel()
		if err == nil {
			return categories
		}
		c.entry("list_categories").WithError(err).Error("remote categories failed, falling back to local")
	}

	var tasks []*models.Task
	c.store.GetJSON(storage.TasksKey(userID), &tasks)

	seen := map[string]bool{}
	var categories []*models.Category
	for _, t := range tasks {
		if t.Category == nil || t.Category.Name == "" || seen[t.Category.Name] {
			continue
		}
		seen[t.Category.Name] = true
		categories = append(categories, &models.Category{Name: t.Category.Name, Color: t.Category.Color})
	}
	return categories
}

// LoadPlan загружает дневной план: удалённо, затем ключ dailyPlanner_{дата}
func (c *Client) LoadPlan(ctx context.Context, userID, date string) *models.DailyPlan {
	if c.remote != nil {
		rctx, cancel := c.withTimeout(ctx)
		plan, err := c.remote.GetDailyPlan(rctx, userID, date)
		cancel()
		if err != nil {
			c.entry("load_plan").WithError(err).Error("remote plan load failed, falling back to local")
		} else if plan != nil {
			return plan
		}
	}

	var plan models.DailyPlan
	if c.store.GetJSON(storage.PlannerKeyRaw(date), &plan) && plan.Date != "" {
		return &plan
	}
	return nil
}

// SavePlan сохраняет план: remote best-effort, затем безусловная локальная
// запись
func (c *Client) SavePlan(ctx context.Context, plan *models.DailyPlan) WriteResult {
	var result WriteResult
	if c.remote != nil {
		rctx, cancel := c.withTimeout(ctx)
		err := c.remote.SaveDailyPlan(rctx, plan)
		cancel()
		if err != nil {
			c.entry("save_plan").WithError(err).Error("remote plan save failed")
		} else {
			result.RemoteOK = true
		}
	}
	result.LocalOK = c.store.SetJSON(storage.PlannerKeyRaw(plan.Date), plan)
	return result
}
