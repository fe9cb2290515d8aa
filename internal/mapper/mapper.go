// Package mapper converts between remote record shapes (snake_case rows from
// the pkg/ record stores) and the local domain shapes in internal/model.
//
// Mapping never fails: absent or empty remote values are replaced with the
// local defaults.
package mapper

import (
	"strings"
	"time"

	"taskhive/internal/model"
	"taskhive/internal/views"
	"taskhive/pkg/activity"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

// ToLocalProject maps a projects row.
func ToLocalProject(r project.Project) model.Project {
	p := model.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Color:       model.DefaultProjectColor,
		Members:     append([]string{}, r.Members...),
		Status:      model.ProjectActive,
	}
	if r.Color != nil && *r.Color != "" {
		p.Color = *r.Color
	}
	if r.Status != nil && model.ProjectStatus(*r.Status).Valid() {
		p.Status = model.ProjectStatus(*r.Status)
	}
	return p
}

// ToLocalTask maps a tasks row. SubTasks starts empty; the store attaches
// subtasks after loading them.
func ToLocalTask(r task.Task) model.Task {
	t := model.Task{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      model.TaskTodo,
		Priority:    model.PriorityMedium,
		Assignee:    model.DefaultAssignee,
		SubTasks:    []model.SubTask{},
	}
	if r.Status != nil && model.TaskStatus(*r.Status).Valid() {
		t.Status = model.TaskStatus(*r.Status)
	}
	if r.Priority != nil && model.Priority(*r.Priority).Valid() {
		t.Priority = model.Priority(*r.Priority)
	}
	if r.Assignee != nil && *r.Assignee != "" {
		t.Assignee = *r.Assignee
	}
	if r.DueDate != nil {
		t.DueDate = *r.DueDate
	}
	return t
}

// ToLocalSubTask maps a sub_tasks row.
func ToLocalSubTask(r subtask.SubTask) model.SubTask {
	st := model.SubTask{
		ID:     r.ID,
		TaskID: r.TaskID,
		Title:  r.Title,
	}
	if r.Completed != nil {
		st.Completed = *r.Completed
	}
	if r.CreatedAt != nil {
		st.CreatedAt = *r.CreatedAt
	}
	return st
}

// ToLocalActivity maps an activities row, rendering Time relative to now.
func ToLocalActivity(r activity.Activity, now time.Time) model.Activity {
	ms := r.CreatedAt.UnixMilli()
	return model.Activity{
		ID:        r.ID,
		Action:    r.Action,
		Project:   r.Project,
		Timestamp: ms,
		Time:      views.FormatTimeAgo(now, ms),
	}
}

// ToLocalProfile maps a user_profiles row. Initials fall back to the full
// name and then to the first two letters of the email.
func ToLocalProfile(r profile.Profile) model.UserProfile {
	p := model.UserProfile{
		Name:        r.FullName,
		Email:       r.Email,
		Role:        model.DefaultRole,
		AvatarColor: model.DefaultAvatarColor,
	}
	if r.Role != nil && *r.Role != "" {
		p.Role = *r.Role
	}
	if r.FocusHours != nil {
		p.FocusHours = *r.FocusHours
	}
	if r.AvatarColor != nil && *r.AvatarColor != "" {
		p.AvatarColor = *r.AvatarColor
	}
	if r.AvatarURL != nil {
		p.AvatarImage = *r.AvatarURL
	}
	switch {
	case r.AvatarInitials != nil && *r.AvatarInitials != "":
		p.AvatarInitials = *r.AvatarInitials
	case strings.TrimSpace(r.FullName) != "":
		p.AvatarInitials = model.Initials(r.FullName)
	default:
		p.AvatarInitials = EmailInitials(r.Email)
	}
	return p
}

// EmailInitials returns the first two characters of email, uppercased.
func EmailInitials(email string) string {
	r := []rune(email)
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// NewProjectRecord builds the insert payload for a local project. The ID is
// left for the store to assign.
func NewProjectRecord(p model.Project) *project.Project {
	color := p.Color
	status := string(p.Status)
	return &project.Project{
		Name:        p.Name,
		Description: p.Description,
		Color:       &color,
		Members:     append([]string{}, p.Members...),
		Status:      &status,
	}
}

// NewTaskRecord builds the insert payload for a local task. SubTasks are
// persisted separately.
func NewTaskRecord(t model.Task) *task.Task {
	status := string(t.Status)
	priority := string(t.Priority)
	r := &task.Task{
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      &status,
		Priority:    &priority,
	}
	if t.Assignee != "" {
		assignee := t.Assignee
		r.Assignee = &assignee
	}
	if t.DueDate != "" {
		due := t.DueDate
		r.DueDate = &due
	}
	return r
}

// NewSubTaskRecord builds the insert payload for a local subtask.
func NewSubTaskRecord(st model.SubTask) *subtask.SubTask {
	completed := st.Completed
	r := &subtask.SubTask{
		TaskID:    st.TaskID,
		Title:     st.Title,
		Completed: &completed,
	}
	if !st.CreatedAt.IsZero() {
		created := st.CreatedAt
		r.CreatedAt = &created
	}
	return r
}

// NewActivityRecord builds the insert payload for a feed entry, keeping its
// client timestamp.
func NewActivityRecord(a model.Activity) *activity.Activity {
	return &activity.Activity{
		Action:    a.Action,
		Project:   a.Project,
		CreatedAt: time.UnixMilli(a.Timestamp),
	}
}

// NewProfileRecord builds the row created the first time a user's profile is
// read.
func NewProfileRecord(userID, email, fullName string) *profile.Profile {
	role := model.DefaultRole
	color := model.DefaultAvatarColor
	initials := EmailInitials(email)
	focus := 0
	return &profile.Profile{
		ID:             userID,
		Email:          email,
		FullName:       fullName,
		Role:           &role,
		FocusHours:     &focus,
		AvatarInitials: &initials,
		AvatarColor:    &color,
	}
}
