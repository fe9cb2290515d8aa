// Package model holds the local domain shapes the store keeps in memory and
// hands to readers. Remote record shapes live in the pkg/ record packages.
package model

import (
	"strings"
	"time"
	"unicode"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// ProjectStatuses lists every project status in display order.
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectArchived}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// TaskStatus is the Kanban column a task sits in.
type TaskStatus string

const (
	TaskTodo     TaskStatus = "todo"
	TaskProgress TaskStatus = "progress"
	TaskReview   TaskStatus = "review"
	TaskDone     TaskStatus = "done"
)

// TaskStatuses lists the board columns left to right.
var TaskStatuses = []TaskStatus{TaskTodo, TaskProgress, TaskReview, TaskDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Defaults applied when a remote record leaves a field empty.
const (
	DefaultProjectColor = "bg-primary"
	DefaultAvatarColor  = "bg-primary"
	DefaultAssignee     = "AZ"
	DefaultRole         = "Member"
)

// Project is a container of tasks.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	Members     []string      `json:"members"`
	Status      ProjectStatus `json:"status"`
}

// Task is a card on a project board. SubTasks mirrors the store's flat
// subtask collection for this task.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Assignee    string     `json:"assignee"`
	DueDate     string     `json:"dueDate"`
	SubTasks    []SubTask  `json:"subTasks"`
}

// SubTask is a checklist item owned by exactly one task.
type SubTask struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Activity is one entry of the recent-activity feed. Time is derived from
// Timestamp (epoch milliseconds) and refreshed periodically.
type Activity struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Project   string `json:"project"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

// UserProfile is the signed-in user's profile card.
type UserProfile struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	FocusHours     int    `json:"focusHours"`
	AvatarInitials string `json:"avatarInitials"`
	AvatarColor    string `json:"avatarColor"`
	AvatarImage    string `json:"avatarImage,omitempty"`
}

// Initials returns the uppercased first letters of the first two words of name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		if n == 2 {
			break
		}
		r := []rune(word)[0]
		b.WriteRune(unicode.ToUpper(r))
		n++
	}
	return b.String()
}

// Clone returns a deep copy of the task including its subtasks.
func (t Task) Clone() Task {
	c := t
	c.SubTasks = append([]SubTask(nil), t.SubTasks...)
	if c.SubTasks == nil {
		c.SubTasks = []SubTask{}
	}
	return c
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	c := p
	c.Members = append([]string(nil), p.Members...)
	if c.Members == nil {
		c.Members = []string{}
	}
	return c
}
