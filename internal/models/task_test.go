package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Write report", "Write report"},
		{"Write report (Phase 2)", "Write report"},
		{"Write report (Phase 1 - Completed)", "Write report"},
		{"Write (parens) stay", "Write (parens) stay"},
		{"(Phase 3) leading", "leading"},
	}
	for _, tc := range cases {
		task := &Task{Title: tc.title}
		assert.Equal(t, tc.want, task.BaseTitle(), "title %q", tc.title)
	}
}

func TestCurrentPhase(t *testing.T) {
	assert.Equal(t, 1, (&Task{Title: "Plain"}).CurrentPhase())
	assert.Equal(t, 5, (&Task{Title: "X", Phase: 5}).CurrentPhase())
	// Поле Phase имеет приоритет над аннотацией в заголовке
	assert.Equal(t, 5, (&Task{Title: "X (Phase 2)", Phase: 5}).CurrentPhase())
	assert.Equal(t, 2, (&Task{Title: "X (Phase 2)"}).CurrentPhase())
	assert.Equal(t, 3, (&Task{Title: "X (Phase 3 - Completed)"}).CurrentPhase())
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, CategoryNone, (&Task{}).CategoryName())
	assert.Equal(t, CategoryNone, (&Task{Category: &Category{}}).CategoryName())
	assert.Equal(t, "Work", (&Task{Category: &Category{Name: "Work"}}).CategoryName())
}

func TestRelevantDatePreference(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(24 * time.Hour)
	completedAt := now.Add(-24 * time.Hour)
	createdAt := now.Add(-48 * time.Hour)

	full := &Task{Deadline: &deadline, CompletedAt: &completedAt, CreatedAt: createdAt}
	assert.Equal(t, deadline, full.RelevantDate(now))

	noDeadline := &Task{CompletedAt: &completedAt, CreatedAt: createdAt}
	assert.Equal(t, completedAt, noDeadline.RelevantDate(now))

	createdOnly := &Task{CreatedAt: createdAt}
	assert.Equal(t, createdAt, createdOnly.RelevantDate(now))

	assert.Equal(t, now, (&Task{}).RelevantDate(now))
}

func TestCloneIsDeep(t *testing.T) {
	deadline := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	expected := int64(3600000)
	task := &Task{
		ID:           "t_1",
		Title:        "X",
		Deadline:     &deadline,
		Category:     &Category{Name: "Work", Color: "#111"},
		ExpectedTime: &expected,
	}

	clone := task.Clone()
	require.Equal(t, task.ID, clone.ID)

	clone.Category.Name = "Changed"
	*clone.Deadline = deadline.Add(time.Hour)
	*clone.ExpectedTime = 1

	assert.Equal(t, "Work", task.Category.Name)
	assert.Equal(t, deadline, *task.Deadline)
	assert.Equal(t, int64(3600000), *task.ExpectedTime)
}
