package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/toolbox/internal/app"
	"github.com/dshills/toolbox/internal/menu"
	"github.com/dshills/toolbox/internal/plugin"
	"github.com/dshills/toolbox/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	groupStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	stateStyles = map[task.State]lipgloss.Style{
		task.StateQueued:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		task.StateRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		task.StateSucceeded: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		task.StateFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		task.StateCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

func renderViews(views []app.OpenView) string {
	var b strings.Builder
	for _, v := range views {
		b.WriteString(titleStyle.Render(v.Title))
		if v.Tooltip != "" {
			b.WriteString(" " + mutedStyle.Render(v.Tooltip))
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %+v\n", v.Content)
	}
	return b.String()
}

func renderActions(actions []plugin.MenuAction) string {
	if len(actions) == 0 {
		return mutedStyle.Render("no popup items") + "\n"
	}
	var b strings.Builder
	for _, a := range actions {
		title := a.Title
		if title == "" {
			title = a.ID
		}
		fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(title), mutedStyle.Render(a.PluginID+"/"+a.ID))
	}
	return b.String()
}

func renderMenu(items []menu.Item) string {
	var b strings.Builder
	writeMenu(&b, items, 0)
	return b.String()
}

func writeMenu(b *strings.Builder, items []menu.Item, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, it := range items {
		if it.IsLeaf() {
			fmt.Fprintf(b, "%s%s  %s\n", indent, it.Label, mutedStyle.Render(it.Path))
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, groupStyle.Render(it.Label))
		writeMenu(b, it.Children, depth+1)
	}
}

func renderPreferences(contribs []plugin.PreferenceContribution, root string) string {
	if len(contribs) == 0 {
		return mutedStyle.Render("no preferences") + "\n"
	}
	var b strings.Builder
	for _, c := range contribs {
		fmt.Fprintf(&b, "%s  %s  %s\n",
			titleStyle.Render(c.Path), c.Title, mutedStyle.Render(fmt.Sprintf("%s/plugin/%s", root, c.PluginID)))
	}
	return b.String()
}

func renderTasks(rows []task.Row) string {
	var b strings.Builder
	for _, r := range rows {
		style, ok := stateStyles[r.State]
		if !ok {
			style = mutedStyle
		}
		line := fmt.Sprintf("%-10s %5.1f%%  %s", style.Render(r.State.String()), r.Percent, r.Name)
		if r.Message != "" {
			line += "  " + mutedStyle.Render(r.Message)
		}
		if !r.Finished.IsZero() && !r.Started.IsZero() {
			line += "  " + mutedStyle.Render(r.Finished.Sub(r.Started).Round(time.Millisecond).String())
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
