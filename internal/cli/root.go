// Package cli implements the bmgtool command line: decode/encode between
// binary `.bmg` containers and the `#BMG` text form, a hex/summary dump,
// an item listing, and the patch-script merge engine.
package cli

import (
	"fmt"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/encoding"
	"github.com/wiidev/bmgtool/lib/bmg/endian"
	"github.com/wiidev/bmgtool/lib/bmg/tables"

	"github.com/spf13/cobra"
)

var (
	jsonOutput   bool
	mkwMessages  bool
	legacy       bool
	colorTier    string
	endianName   string
	encodingName string
)

var rootCmd = &cobra.Command{
	Use:   "bmgtool",
	Short: "Inspect, convert, and patch Wii/GameCube BMG message containers",
	Long: `bmgtool reads and writes the BMG binary message-container format used
by Wii and GameCube titles, its human-readable "#BMG" text form, and the
table-driven patch scripts used to merge translations and mods.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output machine-readable JSON instead of formatted text")
	rootCmd.PersistentFlags().BoolVar(&mkwMessages, "mkw", true, "enable Mario Kart Wii section captions and Tnn/Unn/Mnn MID aliases")
	rootCmd.PersistentFlags().BoolVar(&legacy, "legacy", false, "use GameCube-style legacy encoding and header layout")
	rootCmd.PersistentFlags().StringVar(&colorTier, "color-tier", "full", "symbolic \\c{} color names recognized: none, basic, full")
	rootCmd.PersistentFlags().StringVar(&endianName, "endian", "big", "byte order for newly-created stores: big, little")
	rootCmd.PersistentFlags().StringVar(&encodingName, "encoding", "cp1252", "default text encoding: cp1252, utf16, sjis, utf8")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// RootCommand returns the cobra root command, for tooling (doc generation,
// shell-completion scripts) that needs to walk the command tree without
// running it.
func RootCommand() *cobra.Command {
	return rootCmd
}

// buildConfig turns the persistent flags into the bmg.Config/bmg.Hooks pair
// every subcommand needs to construct a store.
func buildConfig() (bmg.Config, bmg.Hooks, error) {
	cfg := bmg.DefaultConfig()
	cfg.UseMKWMessages = mkwMessages
	cfg.Legacy = legacy

	order, ok := endian.ByName(endianName)
	if !ok {
		return cfg, bmg.Hooks{}, fmt.Errorf("unknown --endian %q", endianName)
	}
	cfg.DefaultEndian = order

	enc, ok := encodingByName(encodingName)
	if !ok {
		return cfg, bmg.Hooks{}, fmt.Errorf("unknown --encoding %q", encodingName)
	}
	cfg.DefaultEncoding = enc

	tier, ok := colorTierByName(colorTier)
	if !ok {
		return cfg, bmg.Hooks{}, fmt.Errorf("unknown --color-tier %q", colorTier)
	}
	cfg.ColorTier = tier

	return cfg, bmg.DefaultHooks(), nil
}

func encodingByName(name string) (encoding.Encoding, bool) {
	switch name {
	case "cp1252":
		return encoding.CP1252, true
	case "utf16":
		return encoding.UTF16BE, true
	case "sjis":
		return encoding.ShiftJIS, true
	case "utf8":
		return encoding.UTF8, true
	}
	return 0, false
}

func colorTierByName(name string) (tables.ColorTier, bool) {
	switch name {
	case "none":
		return tables.ColorTierNone, true
	case "basic":
		return tables.ColorTierBasic, true
	case "full":
		return tables.ColorTierFull, true
	}
	return 0, false
}
