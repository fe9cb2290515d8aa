package mapper

import "taskhive/internal/model"

// patchBuilder collects the remote columns of a partial update. Keys are only
// added for fields the local patch sets, so an unset field is never sent.
type patchBuilder map[string]any

func setValue[T any](b patchBuilder, column string, v *T) {
	if v != nil {
		b[column] = *v
	}
}

func setString[S ~string](b patchBuilder, column string, v *S) {
	if v != nil {
		b[column] = string(*v)
	}
}

// ProjectPatchToRemote returns the column updates for p.
func ProjectPatchToRemote(p model.ProjectPatch) map[string]any {
	b := patchBuilder{}
	setString(b, "name", p.Name)
	setString(b, "description", p.Description)
	setString(b, "color", p.Color)
	if p.Members != nil {
		b["members"] = append([]string{}, (*p.Members)...)
	}
	setString(b, "status", p.Status)
	return b
}

// TaskPatchToRemote returns the column updates for p. SubTasks is local only
// and never forwarded.
func TaskPatchToRemote(p model.TaskPatch) map[string]any {
	b := patchBuilder{}
	setString(b, "title", p.Title)
	setString(b, "description", p.Description)
	setString(b, "status", p.Status)
	setString(b, "priority", p.Priority)
	setString(b, "assignee", p.Assignee)
	setString(b, "due_date", p.DueDate)
	return b
}

// SubTaskPatchToRemote returns the column updates for p.
func SubTaskPatchToRemote(p model.SubTaskPatch) map[string]any {
	b := patchBuilder{}
	setString(b, "title", p.Title)
	setValue(b, "completed", p.Completed)
	return b
}

// ProfilePatchToRemote returns the column updates for p. A name change also
// writes the re-derived initials.
func ProfilePatchToRemote(p model.ProfilePatch) map[string]any {
	b := patchBuilder{}
	if p.Name != nil {
		b["full_name"] = *p.Name
		b["avatar_initials"] = model.Initials(*p.Name)
	}
	setString(b, "email", p.Email)
	setString(b, "role", p.Role)
	setValue(b, "focus_hours", p.FocusHours)
	setString(b, "avatar_color", p.AvatarColor)
	setString(b, "avatar_url", p.AvatarImage)
	return b
}
