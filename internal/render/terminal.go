package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	groupStyle   = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	editingStyle = cardStyle.BorderForeground(lipgloss.Color("#FFC107"))
	statusStyles = map[string]lipgloss.Style{
		"success":   lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		"secondary": lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E")),
	}
	noticeStyles = map[string]lipgloss.Style{
		"success": lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")),
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("#E53935")),
	}
)

// Terminal writes the visible groups of v as bordered cards.
func Terminal(w io.Writer, v View) error {
	var sb strings.Builder

	if v.Notice != nil {
		style, ok := noticeStyles[v.Notice.Level]
		if !ok {
			style = lipgloss.NewStyle()
		}
		sb.WriteString(style.Render(v.Notice.Title))
		sb.WriteString("\n")
	}

	var active []string
	for _, f := range v.Filters {
		label := f.Label
		if f.Active {
			label = "[" + label + "]"
		}
		active = append(active, label)
	}
	sb.WriteString(mutedStyle.Render("filter: " + strings.Join(active, " ")))
	if v.Search != "" {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  search: %q", v.Search)))
	}
	sb.WriteString("\n")

	for _, g := range []Group{v.Unread, v.Read} {
		if !g.Visible {
			continue
		}
		sb.WriteString(groupStyle.Render(fmt.Sprintf("%s (%d)", g.Label, len(g.Cards))))
		sb.WriteString("\n")
		if len(g.Cards) == 0 {
			sb.WriteString(mutedStyle.Render("  no books"))
			sb.WriteString("\n")
			continue
		}
		for _, c := range g.Cards {
			sb.WriteString(terminalCard(c))
			sb.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func terminalCard(c Card) string {
	status := statusStyles[c.Status.Style].Render(c.Status.Label)
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(html.UnescapeString(c.Title)),
		"Author: "+html.UnescapeString(c.Author),
		"Year:   "+html.UnescapeString(c.Year),
		mutedStyle.Render("id: "+c.ID.String())+"  "+status,
	)
	if c.Editing {
		return editingStyle.Render(body)
	}
	return cardStyle.Render(body)
}
