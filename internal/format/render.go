package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// KVPair represents a key-value pair for rendering
type KVPair struct {
	Key   string
	Value string
}

// RenderTable renders a table with headers and rows
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if row%2 == 0 {
				return TableEvenRowStyle
			}
			return TableOddRowStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return t.Render()
}

// RenderKeyValue renders a list of key-value pairs
func RenderKeyValue(pairs []KVPair) string {
	if len(pairs) == 0 {
		return ""
	}

	var lines []string
	for _, pair := range pairs {
		if pair.Value == "" {
			continue
		}
		key := LabelStyle.Render(pair.Key + ":")
		lines = append(lines, fmt.Sprintf("%s %s", key, ValueStyle.Render(pair.Value)))
	}

	return strings.Join(lines, "\n")
}

// RenderID renders an ID in a dimmed style
func RenderID(id string) string {
	if id == "" || id == "0" {
		return ""
	}
	return DimStyle.Render("(" + id + ")")
}
