package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/text"

	"github.com/spf13/cobra"
)

var decodeOutPath string

var decodeCmd = &cobra.Command{
	Use:   "decode <file.bmg>",
	Short: "Decode a binary BMG container to #BMG text form",
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
		hooks.ContainerName = func() string { return args[0] }

		store, err := bmg.DecodeBinary(data, cfg, hooks)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		if jsonOutput {
			return writeDecodeJSON(store)
		}

		out := text.Emit(store)
		if decodeOutPath == "" {
			fmt.Print(out)
			return nil
		}
		return os.WriteFile(decodeOutPath, []byte(out), 0o644)
	},
}

func writeDecodeJSON(store *bmg.Bmg) error {
	type jsonItem struct {
		Mid     string `json:"mid"`
		Text    string `json:"text"`
		Deleted bool   `json:"deleted,omitempty"`
	}
	out := struct {
		Items       []jsonItem `json:"items"`
		Diagnostics []string   `json:"diagnostics,omitempty"`
	}{}
	for _, it := range store.Items() {
		out.Items = append(out.Items, jsonItem{
			Mid:     fmt.Sprintf("%04X", it.Mid),
			Text:    renderItemText(store, it),
			Deleted: it.Deleted,
		})
	}
	for _, d := range store.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.String())
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOutPath, "output", "o", "", "write text to this path instead of stdout")
	rootCmd.AddCommand(decodeCmd)
}
