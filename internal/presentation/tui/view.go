package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	breadcrumbStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#818cf8"))
	variableStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	promptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	buttonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#34d399"))
	mutedStyle      = lipgloss.NewStyle().Faint(true)
)

// View lays out a step for the terminal: breadcrumb, variables, the rendered
// step text, pending prompts and the navigation choices.
func View(step domain.Step, unsaved bool, render RenderFunc) string {
	if render == nil {
		render = Plain
	}

	var sections []string
	if len(step.Context) > 0 {
		sections = append(sections, breadcrumbStyle.Render(Breadcrumb(step.Context)))
	}
	if vars := Variables(step.Variables); len(vars) > 0 {
		sections = append(sections, variableStyle.Render(strings.Join(vars, "\n")))
	}

	body, err := render(strings.Join(step.Text, "\n"))
	if err != nil {
		body, _ = Plain(strings.Join(step.Text, "\n"))
	}
	sections = append(sections, strings.TrimRight(body, "\n"))

	for _, p := range step.Prompts {
		sections = append(sections, promptStyle.Render(fmt.Sprintf("? %s (line %d)", p.Name, p.Position)))
	}

	var buttons []string
	for _, b := range domain.Buttons(step, unsaved) {
		buttons = append(buttons, "["+string(b)+"]")
	}
	sections = append(sections, buttonStyle.Render(strings.Join(buttons, " ")))
	if unsaved {
		sections = append(sections, mutedStyle.Render("answers not saved"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// Breadcrumb joins heading labels outermost first.
func Breadcrumb(context []string) string {
	return strings.Join(context, " > ")
}

// Variables formats bindings as sorted "name: value" lines.
func Variables(vars map[string]string) []string {
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+": "+v)
	}
	sort.Strings(out)
	return out
}
