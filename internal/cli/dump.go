package cli

import (
	"fmt"
	"os"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/tables"
	"github.com/wiidev/bmgtool/internal/format"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.bmg>",
	Short: "Print a BMG container's header summary and raw section hex",
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

		fmt.Println(format.RenderKeyValue([]format.KVPair{
			{Key: "encoding", Value: store.Encoding.String()},
			{Key: "endian", Value: store.Endian.Name()},
			{Key: "inf-size", Value: fmt.Sprintf("%d", store.InfSize)},
			{Key: "items", Value: fmt.Sprintf("%d", store.Len())},
			{Key: "have-mid", Value: fmt.Sprintf("%v", store.HaveMID)},
		}))

		if len(store.Diagnostics) > 0 {
			fmt.Println()
			fmt.Println(format.DimStyle.Render(fmt.Sprintf("%d diagnostic(s):", len(store.Diagnostics))))
			for _, d := range store.Diagnostics {
				fmt.Println(" ", d.String())
			}
		}

		for _, raw := range store.RawSections() {
			fmt.Println()
			fmt.Println(format.HeaderStyle.Render(fmt.Sprintf("@SECTION %s (%d bytes)", raw.Magic, len(raw.Data))))
			for _, line := range tables.HexDump(raw.Data) {
				fmt.Println(" ", line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
