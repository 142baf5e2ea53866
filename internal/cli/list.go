package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/wiidev/bmgtool/internal/format"
	"github.com/wiidev/bmgtool/lib/bmg"

	"github.com/spf13/cobra"
)

var listShowEmpty bool

var listCmd = &cobra.Command{
	Use:   "list <file.bmg>",
	Short: "List a BMG container's items as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, hooks, err := buildConfig()
		if err != nil {
			return err
		}

		store, err := bmg.DecodeBinary(data, cfg, hooks)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(listRows(store))
		}

		fmt.Println(format.RenderItemsList(store))
		return nil
	},
}

type itemRow struct {
	Mid     string `json:"mid"`
	Slot    string `json:"slot,omitempty"`
	Preview string `json:"preview"`
}

func listRows(store *bmg.Bmg) []itemRow {
	var rows []itemRow
	for _, it := range store.Items() {
		if it.IsEmpty() && !listShowEmpty {
			continue
		}
		slot := ""
		if it.HasSlot {
			slot = fmt.Sprintf("%d", it.Slot)
		}
		rows = append(rows, itemRow{
			Mid:     fmt.Sprintf("%04X", it.Mid),
			Slot:    slot,
			Preview: preview(renderItemText(store, it)),
		})
	}
	return rows
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	const maxLen = 60
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

func init() {
	listCmd.Flags().BoolVar(&listShowEmpty, "show-empty", false, "include empty/deleted items in --json output (the table always lists every item)")
	rootCmd.AddCommand(listCmd)
}
