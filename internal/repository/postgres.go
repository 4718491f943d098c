package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/sun1tar/task-planner/internal/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// taskColumns - список колонок задачи c денормализацией категории.
// Фаза отдельной колонкой не хранится: при чтении она восстанавливается
// из аннотации заголовка (см. models.CurrentPhase).
const taskColumns = `t.id, t.user_id, t.title, t.description, t.deadline,
       t.completed, t.completed_at, t.timer_started, t.time_spent,
       t.expected_time, t.created_at, c.name, c.color`

const taskSelect = `SELECT ` + taskColumns + `
       FROM tasks t LEFT JOIN categories c ON t.category_id = c.id`

func scanTask(scan func(dest ...any) error) (*models.Task, error) {
	task := &models.Task{}
	var (
		description  sql.NullString
		deadline     sql.NullTime
		completedAt  sql.NullTime
		timerStarted sql.NullTime
		expectedTime sql.NullInt64
		catName      sql.NullString
		catColor     sql.NullString
	)
	err := scan(&task.ID, &task.UserID, &task.Title, &description, &deadline,
		&task.Completed, &completedAt, &timerStarted, &task.TimeSpent,
		&expectedTime, &task.CreatedAt, &catName, &catColor)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	if deadline.Valid {
		d := deadline.Time
		task.Deadline = &d
	}
	if completedAt.Valid {
		ca := completedAt.Time
		task.CompletedAt = &ca
	}
	if timerStarted.Valid {
		ts := timerStarted.Time
		task.TimerStarted = &ts
	}
	if expectedTime.Valid {
		e := expectedTime.Int64
		task.ExpectedTime = &e
	}
	if catName.Valid {
		task.Category = &models.Category{Name: catName.String, Color: catColor.String}
	}
	task.Phase = task.CurrentPhase()
	return task, nil
}

// resolveCategoryID находит категорию по имени в рамках пользователя или
// создаёт новую. Best-effort идемпотентность: одновременные создания одного
// имени не дедуплицируются (транзакций здесь нет намеренно).
func (r *PostgresRepository) resolveCategoryID(ctx context.Context, userID string, cat *models.Category) (sql.NullString, error) {
	if cat == nil || cat.Name == "" {
		return sql.NullString{}, nil
	}
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE user_id = $1 AND name = $2`,
		userID, cat.Name).Scan(&id)
	if err == nil {
		return sql.NullString{String: id, Valid: true}, nil
	}
	if err != sql.ErrNoRows {
		return sql.NullString{}, err
	}
	id = "c_" + uuid.New().String()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, color) VALUES ($1, $2, $3, $4)`,
		id, userID, cat.Name, cat.Color)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: id, Valid: true}, nil
}

func (r *PostgresRepository) CreateTask(ctx context.Context, task *models.Task) error {
	categoryID, err := r.resolveCategoryID(ctx, task.UserID, task.Category)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (id, user_id, title, description, deadline, category_id,
                  completed, completed_at, timer_started, time_spent, expected_time, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description, task.Deadline, categoryID,
		task.Completed, task.CompletedAt, task.TimerStarted, task.TimeSpent,
		nullInt64(task.ExpectedTime), task.CreatedAt)
	return err
}

func (r *PostgresRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id)
	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *PostgresRepository) ListTasks(ctx context.Context, userID string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		taskSelect+` WHERE t.user_id = $1 ORDER BY t.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *PostgresRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	categoryID, err := r.resolveCategoryID(ctx, task.UserID, task.Category)
	if err != nil {
		return err
	}
	query := `UPDATE tasks SET title = $1, description = $2, deadline = $3, category_id = $4,
                  completed = $5, completed_at = $6, timer_started = $7, time_spent = $8,
                  expected_time = $9
              WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Deadline, categoryID,
		task.Completed, task.CompletedAt, task.TimerStarted, task.TimeSpent,
		nullInt64(task.ExpectedTime), task.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SearchTasks ищет по подстроке в заголовке и описании.
// Только параметризованный запрос.
func (r *PostgresRepository) SearchTasks(ctx context.Context, userID, titleSubstring string) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		taskSelect+` WHERE t.user_id = $1 AND (t.title ILIKE $2 OR t.description ILIKE $2)
                     ORDER BY t.created_at`,
		userID, "%"+titleSubstring+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *PostgresRepository) GetOrCreateUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE username = $1`, username).
		Scan(&user.ID, &user.Username)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	user = &models.User{ID: "u_" + uuid.New().String(), Username: username}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, username) VALUES ($1, $2)`, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		cat := &models.Category{}
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Color); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *PostgresRepository) GetDailyPlan(ctx context.Context, userID, date string) (*models.DailyPlan, error) {
	plan := &models.DailyPlan{}
	var itemsRaw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, date, daily_goal, plan_items, notes
           FROM daily_planner WHERE user_id = $1 AND date = $2`,
		userID, date).
		Scan(&plan.UserID, &plan.Date, &plan.DailyGoal, &itemsRaw, &plan.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &plan.PlanItems); err != nil {
			return nil, fmt.Errorf("failed to decode plan items: %w", err)
		}
	}
	return plan, nil
}

func (r *PostgresRepository) SaveDailyPlan(ctx context.Context, plan *models.DailyPlan) error {
	itemsRaw, err := json.Marshal(plan.PlanItems)
	if err != nil {
		return fmt.Errorf("failed to encode plan items: %w", err)
	}
	query := `INSERT INTO daily_planner (user_id, date, daily_goal, plan_items, notes)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (user_id, date)
              DO UPDATE SET daily_goal = $3, plan_items = $4, notes = $5`
	_, err = r.db.ExecContext(ctx, query,
		plan.UserID, plan.Date, plan.DailyGoal, itemsRaw, plan.Notes)
	return err
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
