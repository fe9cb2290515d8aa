package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Ali Zewiany", "AZ"},
		{"ada", "A"},
		{"  grace  brewster hopper ", "GB"},
		{"", ""},
		{"élodie durand", "ÉD"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Initials(tt.in), "Initials(%q)", tt.in)
	}
}

func TestEnumsValid(t *testing.T) {
	for _, s := range TaskStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TaskStatus("blocked").Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("urgent").Valid())
	assert.True(t, ProjectArchived.Valid())
	assert.False(t, ProjectStatus("").Valid())
}

func TestTaskPatchLeavesUnsetFields(t *testing.T) {
	task := Task{
		Title:    "Homepage",
		Status:   TaskTodo,
		Priority: PriorityLow,
		SubTasks: []SubTask{{ID: "s1", Title: "Hero"}},
	}
	TaskPatch{Status: Ptr(TaskDone)}.Apply(&task)

	assert.Equal(t, "Homepage", task.Title)
	assert.Equal(t, TaskDone, task.Status)
	assert.Equal(t, PriorityLow, task.Priority)
	assert.Len(t, task.SubTasks, 1)

	TaskPatch{SubTasks: &[]SubTask{}}.Apply(&task)
	assert.Empty(t, task.SubTasks)
}

func TestProjectPatchCopiesMembers(t *testing.T) {
	members := []string{"AZ"}
	var p Project
	ProjectPatch{Members: &members}.Apply(&p)
	members[0] = "JD"
	assert.Equal(t, []string{"AZ"}, p.Members)
}

func TestProfilePatchRederivesInitials(t *testing.T) {
	prof := UserProfile{Name: "Ali Zewiany", AvatarInitials: "AZ", Role: "Member"}
	ProfilePatch{Name: Ptr("Grace Hopper")}.Apply(&prof)
	assert.Equal(t, "GH", prof.AvatarInitials)
	assert.Equal(t, "Member", prof.Role)
}

func TestCloneIsDeep(t *testing.T) {
	orig := Task{SubTasks: []SubTask{{Title: "a"}}}
	c := orig.Clone()
	c.SubTasks[0].Title = "b"
	assert.Equal(t, "a", orig.SubTasks[0].Title)

	assert.NotNil(t, Project{}.Clone().Members)
}
