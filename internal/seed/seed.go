// Package seed loads YAML fixtures of projects, tasks and subtasks and writes
// them through the remote record stores.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
	"taskhive/internal/store"
)

//go:embed demo.yaml
var demo []byte

type Fixture struct {
	Projects []Project `yaml:"projects"`
}

type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Color       string   `yaml:"color"`
	Members     []string `yaml:"members"`
	Status      string   `yaml:"status"`
	Tasks       []Task   `yaml:"tasks"`
}

type Task struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Status      string    `yaml:"status"`
	Priority    string    `yaml:"priority"`
	Assignee    string    `yaml:"assignee"`
	DueDate     string    `yaml:"due_date"`
	SubTasks    []SubTask `yaml:"subtasks"`
}

type SubTask struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed"`
}

// Counts reports how many rows Apply inserted.
type Counts struct {
	Projects int `json:"projects"`
	Tasks    int `json:"tasks"`
	SubTasks int `json:"subTasks"`
}

// Demo returns the built-in demo fixture.
func Demo() (*Fixture, error) {
	return Parse(bytes.NewReader(demo))
}

// Parse decodes and validates a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names, titles and enum values, naming the offending entry.
func (f *Fixture) Validate() error {
	for i, p := range f.Projects {
		if p.Name == "" {
			return fmt.Errorf("project %d: %w", i, store.ErrEmptyName)
		}
		if p.Status != "" && !model.ProjectStatus(p.Status).Valid() {
			return fmt.Errorf("project %q: %w %q", p.Name, store.ErrInvalidStatus, p.Status)
		}
		for j, t := range p.Tasks {
			if t.Title == "" {
				return fmt.Errorf("project %q task %d: %w", p.Name, j, store.ErrEmptyTitle)
			}
			if t.Status != "" && !model.TaskStatus(t.Status).Valid() {
				return fmt.Errorf("task %q: %w %q", t.Title, store.ErrInvalidStatus, t.Status)
			}
			if t.Priority != "" && !model.Priority(t.Priority).Valid() {
				return fmt.Errorf("task %q: %w %q", t.Title, store.ErrInvalidPriority, t.Priority)
			}
			for k, st := range t.SubTasks {
				if st.Title == "" {
					return fmt.Errorf("task %q subtask %d: %w", t.Title, k, store.ErrEmptyTitle)
				}
			}
		}
	}
	return nil
}

// Apply inserts the fixture parents first. It stops at the first failed
// write and returns what was inserted so far.
func (f *Fixture) Apply(ctx context.Context, remote store.Remote) (Counts, error) {
	var n Counts
	for _, p := range f.Projects {
		rec, err := remote.Projects.Create(ctx, mapper.NewProjectRecord(p.local()))
		if err != nil {
			return n, fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		n.Projects++

		for _, t := range p.Tasks {
			local := t.local(rec.ID)
			trec, err := remote.Tasks.Create(ctx, mapper.NewTaskRecord(local))
			if err != nil {
				return n, fmt.Errorf("seed task %q: %w", t.Title, err)
			}
			n.Tasks++

			for _, st := range t.SubTasks {
				sub := model.SubTask{TaskID: trec.ID, Title: st.Title, Completed: st.Completed}
				if _, err := remote.SubTasks.Create(ctx, mapper.NewSubTaskRecord(sub)); err != nil {
					return n, fmt.Errorf("seed subtask %q: %w", st.Title, err)
				}
				n.SubTasks++
			}
		}
	}
	return n, nil
}

func (p Project) local() model.Project {
	out := model.Project{
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Members:     p.Members,
		Status:      model.ProjectStatus(p.Status),
	}
	if out.Color == "" {
		out.Color = model.DefaultProjectColor
	}
	if out.Status == "" {
		out.Status = model.ProjectActive
	}
	return out
}

func (t Task) local(projectID string) model.Task {
	out := model.Task{
		ProjectID:   projectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      model.TaskStatus(t.Status),
		Priority:    model.Priority(t.Priority),
		Assignee:    t.Assignee,
		DueDate:     t.DueDate,
	}
	if out.Status == "" {
		out.Status = model.TaskTodo
	}
	if out.Priority == "" {
		out.Priority = model.PriorityMedium
	}
	if out.Assignee == "" {
		out.Assignee = model.DefaultAssignee
	}
	return out
}
