package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CategoryNone - сентинель для задач без категории.
// Используется одинаково в фильтрации и в аналитике, чтобы "Uncategorized"
// в фильтре означало отсутствие категории, а не строку в данных.
const CategoryNone = "Uncategorized"

// DefaultExpectedTimeMS - оценка времени по умолчанию (1 час в миллисекундах)
const DefaultExpectedTimeMS int64 = 3600000

// Category - снимок категории, встроенный в задачу.
// Задача хранит name+color на момент назначения, а не живую ссылку:
// переименование категории не меняет уже назначенные задачи.
type Category struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Task struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Category     *Category  `json:"category,omitempty"`
	Completed    bool       `json:"completed"`
	TimerStarted *time.Time `json:"timer_started,omitempty"`
	TimeSpent    int64      `json:"time_spent"`              // миллисекунды, накопительно
	ExpectedTime *int64     `json:"expected_time,omitempty"` // миллисекунды, nil = не задано
	Phase        int        `json:"phase,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// phaseRe - аннотация фазы в заголовке: "(Phase N)" или "(Phase N - Completed)"
var phaseRe = regexp.MustCompile(`\s*\(Phase (\d+)(?: - Completed)?\)`)

// CategoryName возвращает имя категории или сентинель CategoryNone
func (t *Task) CategoryName() string {
	if t.Category == nil || t.Category.Name == "" {
		return CategoryNone
	}
	return t.Category.Name
}

// BaseTitle возвращает заголовок без аннотаций фаз
func (t *Task) BaseTitle() string {
	return strings.TrimSpace(phaseRe.ReplaceAllString(t.Title, ""))
}

// CurrentPhase определяет номер фазы: сначала поле Phase, потом аннотация
// в заголовке, по умолчанию 1
func (t *Task) CurrentPhase() int {
	if t.Phase >= 1 {
		return t.Phase
	}
	if m := phaseRe.FindStringSubmatch(t.Title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 {
			return n
		}
	}
	return 1
}

// RelevantDate - дата задачи для фильтра по дню: дедлайн, иначе дата
// завершения, иначе дата создания, иначе "сейчас"
func (t *Task) RelevantDate(now time.Time) time.Time {
	switch {
	case t.Deadline != nil:
		return *t.Deadline
	case t.CompletedAt != nil:
		return *t.CompletedAt
	case !t.CreatedAt.IsZero():
		return t.CreatedAt
	default:
		return now
	}
}

// Clone возвращает глубокую копию задачи.
// Координатор отдаёт наружу только копии, чтобы вызывающий код не мог
// менять авторитетную коллекцию мимо команд.
func (t *Task) Clone() *Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.Category != nil {
		cat := *t.Category
		c.Category = &cat
	}
	if t.TimerStarted != nil {
		ts := *t.TimerStarted
		c.TimerStarted = &ts
	}
	if t.ExpectedTime != nil {
		e := *t.ExpectedTime
		c.ExpectedTime = &e
	}
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		c.CompletedAt = &ca
	}
	return &c
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(%s %q phase=%d completed=%v)", t.ID, t.Title, t.CurrentPhase(), t.Completed)
}
