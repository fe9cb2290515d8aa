package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskhive/internal/model"
	"taskhive/internal/views"
)

func TestRenderDashboard(t *testing.T) {
	projects := []model.Project{{ID: "p1", Name: "Website Redesign", Status: model.ProjectActive}}
	tasks := []model.Task{
		{ID: "t1", ProjectID: "p1", Title: "Homepage", Status: model.TaskDone},
		{ID: "t2", ProjectID: "p1", Title: "Auth", Status: model.TaskTodo},
	}
	out := renderDashboard(projects, tasks)
	assert.Contains(t, out, "Website Redesign")
	assert.Contains(t, out, "1/2 done")
	assert.Contains(t, out, "50% complete")
}

func TestRenderBoardListsEveryColumn(t *testing.T) {
	p := model.Project{ID: "p1", Name: "Mobile App"}
	tasks := []model.Task{{
		ID: "t1", ProjectID: "p1", Title: "Layout", Status: model.TaskReview, Priority: model.PriorityHigh,
		SubTasks: []model.SubTask{{Completed: true}, {}},
	}}
	out := renderBoard(p, views.Board(tasks, "p1"))
	for _, col := range []string{"todo (0)", "progress (0)", "review (1)", "done (0)"} {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "Layout")
	assert.Contains(t, out, "1/2")
}

func TestRenderActivityEmpty(t *testing.T) {
	assert.Contains(t, renderActivity(nil), "No activity yet")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
