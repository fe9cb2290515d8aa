package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskhive/internal/model"
	"taskhive/internal/views"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b4261")).
			Padding(0, 1)
	columnStyle = boxStyle.Width(28)

	priorityColors = map[model.Priority]lipgloss.Color{
		model.PriorityHigh:   "#f7768e",
		model.PriorityMedium: "#e0af68",
		model.PriorityLow:    "#9ece6a",
	}
)

func renderDashboard(projects []model.Project, tasks []model.Task) string {
	d := views.Dashboard(projects, tasks)

	summary := boxStyle.Render(fmt.Sprintf(
		"%s\n%d projects  %d tasks  %d%% complete",
		titleStyle.Render("TaskHive"), d.TotalProjects, d.TotalTasks, d.CompletionPercent))

	var counts []string
	for _, s := range model.TaskStatuses {
		counts = append(counts, fmt.Sprintf("%-9s %d", s, d.TasksByStatus[s]))
	}
	byStatus := boxStyle.Render(titleStyle.Render("Tasks") + "\n" + strings.Join(counts, "\n"))

	var rows []string
	for _, p := range projects {
		st := views.ProjectStats(tasks, p.ID)
		rows = append(rows, fmt.Sprintf("%-24s %-10s %d/%d done  %s",
			truncate(p.Name, 24), p.Status, st.Completed, st.Total, mutedStyle.Render(p.ID)))
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("No projects yet"))
	}
	list := boxStyle.Render(titleStyle.Render("Projects") + "\n" + strings.Join(rows, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, summary, byStatus),
		list,
	)
}

func renderBoard(p model.Project, board map[model.TaskStatus][]model.Task) string {
	cols := make([]string, 0, len(model.TaskStatuses))
	for _, status := range model.TaskStatuses {
		tasks := board[status]
		lines := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", status, len(tasks)))}
		for _, t := range tasks {
			prio := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render("●")
			line := fmt.Sprintf("%s %s", prio, truncate(t.Title, 22))
			if prog := views.SubTaskProgress(t); prog.Total > 0 {
				line += mutedStyle.Render(fmt.Sprintf(" %d/%d", prog.Completed, prog.Total))
			}
			lines = append(lines, line)
		}
		cols = append(cols, columnStyle.Render(strings.Join(lines, "\n")))
	}
	header := titleStyle.Render(p.Name) + " " + mutedStyle.Render(p.Description)
	return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

func renderActivity(acts []model.Activity) string {
	if len(acts) == 0 {
		return mutedStyle.Render("No activity yet")
	}
	lines := make([]string, len(acts))
	for i, a := range acts {
		lines[i] = fmt.Sprintf("%-28s %-24s %s", a.Action, truncate(a.Project, 24), mutedStyle.Render(a.Time))
	}
	return boxStyle.Render(titleStyle.Render("Recent activity") + "\n" + strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
