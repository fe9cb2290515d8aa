package model

// ProjectInput carries the fields of a project being created.
type ProjectInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Color       string        `json:"color"`
	Members     []string      `json:"members"`
	Status      ProjectStatus `json:"status"`
}

// TaskInput carries the fields of a task being created.
type TaskInput struct {
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Assignee    string     `json:"assignee"`
	DueDate     string     `json:"dueDate"`
}

// Patch types: a nil field means "leave unchanged". A partial update never
// clears a field the caller did not set.

type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Color       *string        `json:"color,omitempty"`
	Members     *[]string      `json:"members,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Assignee    *string     `json:"assignee,omitempty"`
	DueDate     *string     `json:"dueDate,omitempty"`
	SubTasks    *[]SubTask  `json:"subTasks,omitempty"`
}

type SubTaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type ProfilePatch struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Role        *string `json:"role,omitempty"`
	FocusHours  *int    `json:"focusHours,omitempty"`
	AvatarColor *string `json:"avatarColor,omitempty"`
	AvatarImage *string `json:"avatarImage,omitempty"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }

// Apply merges the set fields of p into project.
func (p ProjectPatch) Apply(project *Project) {
	if p.Name != nil {
		project.Name = *p.Name
	}
	if p.Description != nil {
		project.Description = *p.Description
	}
	if p.Color != nil {
		project.Color = *p.Color
	}
	if p.Members != nil {
		project.Members = append([]string{}, (*p.Members)...)
	}
	if p.Status != nil {
		project.Status = *p.Status
	}
}

// Apply merges the set fields of p into task. SubTasks is replaced only when
// the patch carries it.
func (p TaskPatch) Apply(task *Task) {
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description != nil {
		task.Description = *p.Description
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.Assignee != nil {
		task.Assignee = *p.Assignee
	}
	if p.DueDate != nil {
		task.DueDate = *p.DueDate
	}
	if p.SubTasks != nil {
		task.SubTasks = append([]SubTask{}, (*p.SubTasks)...)
	}
}

func (p SubTaskPatch) Apply(st *SubTask) {
	if p.Title != nil {
		st.Title = *p.Title
	}
	if p.Completed != nil {
		st.Completed = *p.Completed
	}
}

// Apply merges p into profile and re-derives the avatar initials when the
// name changes.
func (p ProfilePatch) Apply(profile *UserProfile) {
	if p.Name != nil {
		profile.Name = *p.Name
		profile.AvatarInitials = Initials(*p.Name)
	}
	if p.Email != nil {
		profile.Email = *p.Email
	}
	if p.Role != nil {
		profile.Role = *p.Role
	}
	if p.FocusHours != nil {
		profile.FocusHours = *p.FocusHours
	}
	if p.AvatarColor != nil {
		profile.AvatarColor = *p.AvatarColor
	}
	if p.AvatarImage != nil {
		profile.AvatarImage = *p.AvatarImage
	}
}
