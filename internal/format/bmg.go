package format

import (
	"fmt"
	"strings"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/escape"
)

// RenderItemsList renders store's items as a lipgloss table: MID, predefined
// slot (if any), and a one-line text preview.
func RenderItemsList(store *bmg.Bmg) string {
	headers := []string{"MID", "Slot", "Text"}
	var rows [][]string
	for _, it := range store.Items() {
		slot := ""
		if it.HasSlot {
			slot = RenderID(fmt.Sprintf("%d", it.Slot))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%04X", it.Mid),
			slot,
			previewText(it, store),
		})
	}
	return RenderTable(headers, rows)
}

func previewText(it *bmg.Item, store *bmg.Bmg) string {
	text := escape.Emit(it.Units, escape.Options{ColorTier: store.Config.ColorTier})
	text = strings.ReplaceAll(text, "\n", "\\n")
	const maxLen = 60
	if len(text) > maxLen {
		return text[:maxLen] + "..."
	}
	return text
}
