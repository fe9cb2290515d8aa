package views

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskhive/internal/model"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ms := now.UnixMilli()

	tests := []struct {
		ago  int64
		want string
	}{
		{0, "Just now"},
		{30_000, "Just now"},
		{59_999, "Just now"},
		{60_000, "1 min ago"},
		{150_000, "2 min ago"},
		{3_599_000, "59 min ago"},
		{3_600_000, "1 hour ago"},
		{7_200_000, "2 hours ago"},
		{86_399_000, "23 hours ago"},
		{86_400_000, "1 day ago"},
		{172_800_000, "2 days ago"},
		{-5_000, "Just now"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimeAgo(now, ms-tt.ago), "ago=%d", tt.ago)
	}
}

func TestProjectStats(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", ProjectID: "p1", Status: model.TaskDone},
		{ID: "2", ProjectID: "p1", Status: model.TaskTodo},
		{ID: "3", ProjectID: "p2", Status: model.TaskDone},
	}
	assert.Equal(t, Stats{Total: 2, Completed: 1}, ProjectStats(tasks, "p1"))
	assert.Equal(t, Stats{}, ProjectStats(tasks, "missing"))
}

func TestSubTaskProgress(t *testing.T) {
	empty := SubTaskProgress(model.Task{})
	assert.Equal(t, Progress{}, empty)
	assert.Zero(t, empty.Percent())
	assert.False(t, math.IsNaN(empty.Percent()))

	task := model.Task{SubTasks: []model.SubTask{
		{ID: "a", Completed: true},
		{ID: "b"},
		{ID: "c", Completed: true},
	}}
	p := SubTaskProgress(task)
	assert.Equal(t, Progress{Completed: 2, Total: 3}, p)
	assert.InDelta(t, 66.666, p.Percent(), 0.01)

	for total := 0; total <= 5; total++ {
		for done := 0; done <= total; done++ {
			pct := Progress{Completed: done, Total: total}.Percent()
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
		}
	}
}

func TestDashboard(t *testing.T) {
	projects := []model.Project{
		{ID: "p1", Status: model.ProjectActive},
		{ID: "p2", Status: model.ProjectArchived},
	}
	tasks := []model.Task{
		{ID: "1", Status: model.TaskDone},
		{ID: "2", Status: model.TaskDone},
		{ID: "3", Status: model.TaskReview},
	}
	d := Dashboard(projects, tasks)
	assert.Equal(t, 2, d.TotalProjects)
	assert.Equal(t, 1, d.ProjectsByStatus[model.ProjectActive])
	assert.Equal(t, 0, d.ProjectsByStatus[model.ProjectCompleted])
	assert.Equal(t, 3, d.TotalTasks)
	assert.Equal(t, 2, d.TasksByStatus[model.TaskDone])
	assert.Equal(t, 0, d.TasksByStatus[model.TaskTodo])
	assert.Equal(t, 67, d.CompletionPercent)

	assert.Equal(t, 0, Dashboard(nil, nil).CompletionPercent)
}

func TestBoard(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", ProjectID: "p1", Status: model.TaskTodo},
		{ID: "2", ProjectID: "p1", Status: model.TaskDone},
		{ID: "3", ProjectID: "p2", Status: model.TaskTodo},
		{ID: "4", ProjectID: "p1", Status: model.TaskTodo},
	}
	cols := Board(tasks, "p1")
	assert.Len(t, cols, len(model.TaskStatuses))
	assert.Len(t, cols[model.TaskTodo], 2)
	assert.Equal(t, "1", cols[model.TaskTodo][0].ID)
	assert.Equal(t, "4", cols[model.TaskTodo][1].ID)
	assert.Empty(t, cols[model.TaskReview])
	assert.Len(t, cols[model.TaskDone], 1)
}
