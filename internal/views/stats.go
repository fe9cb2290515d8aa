// Package views computes the read-side aggregates shown by the dashboard,
// project list, board and task detail. Every function is pure and works on
// the slices returned by a store snapshot.
package views

import (
	"math"

	"taskhive/internal/model"
)

// Stats counts the tasks of one project.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// ProjectStats counts the tasks belonging to projectID and how many are done.
func ProjectStats(tasks []model.Task, projectID string) Stats {
	var s Stats
	for _, t := range tasks {
		if t.ProjectID != projectID {
			continue
		}
		s.Total++
		if t.Status == model.TaskDone {
			s.Completed++
		}
	}
	return s
}

// Progress is the checklist completion of a task.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns Completed/Total as a value in [0,100]; 0 when Total is 0.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// SubTaskProgress counts the completed subtasks of t.
func SubTaskProgress(t model.Task) Progress {
	p := Progress{Total: len(t.SubTasks)}
	for _, st := range t.SubTasks {
		if st.Completed {
			p.Completed++
		}
	}
	return p
}

// DashboardStats is the global summary.
type DashboardStats struct {
	TotalProjects     int                         `json:"totalProjects"`
	ProjectsByStatus  map[model.ProjectStatus]int `json:"projectsByStatus"`
	TotalTasks        int                         `json:"totalTasks"`
	TasksByStatus     map[model.TaskStatus]int    `json:"tasksByStatus"`
	CompletionPercent int                         `json:"completionPercent"`
}

// Dashboard counts projects and tasks by status. CompletionPercent is the
// share of done tasks, rounded to the nearest integer.
func Dashboard(projects []model.Project, tasks []model.Task) DashboardStats {
	d := DashboardStats{
		TotalProjects:    len(projects),
		ProjectsByStatus: make(map[model.ProjectStatus]int, len(model.ProjectStatuses)),
		TotalTasks:       len(tasks),
		TasksByStatus:    make(map[model.TaskStatus]int, len(model.TaskStatuses)),
	}
	for _, s := range model.ProjectStatuses {
		d.ProjectsByStatus[s] = 0
	}
	for _, s := range model.TaskStatuses {
		d.TasksByStatus[s] = 0
	}
	for _, p := range projects {
		d.ProjectsByStatus[p.Status]++
	}
	for _, t := range tasks {
		d.TasksByStatus[t.Status]++
	}
	done := float64(d.TasksByStatus[model.TaskDone])
	d.CompletionPercent = int(math.Round(done / float64(max(len(tasks), 1)) * 100))
	return d
}

// Board groups the tasks of projectID into Kanban columns. Every status in
// model.TaskStatuses has an entry, possibly empty. Task order within a column
// follows the input.
func Board(tasks []model.Task, projectID string) map[model.TaskStatus][]model.Task {
	cols := make(map[model.TaskStatus][]model.Task, len(model.TaskStatuses))
	for _, s := range model.TaskStatuses {
		cols[s] = []model.Task{}
	}
	for _, t := range tasks {
		if t.ProjectID == projectID {
			cols[t.Status] = append(cols[t.Status], t)
		}
	}
	return cols
}
