package cli

import (
	"fmt"
	"os"

	"github.com/wiidev/bmgtool/internal/cli/patchscript"
	"github.com/wiidev/bmgtool/lib/bmg"

	"github.com/spf13/cobra"
)

var (
	patchOutPath string
	patchFilter  string
)

var patchCmd = &cobra.Command{
	Use:   "patch <dst.bmg> <script>",
	Short: "Run a patch script against a destination BMG container",
	Long: `Runs a line-oriented script of patch commands (REPLACE, INSERT,
OVERWRITE, DELETE, MASK, EQUAL, NOT-EQUAL, PRINT, FORMAT, REGEX, RM-REGEX,
GENERIC, ID, ID-ALL, UNICODE, RM-ESCAPES, CT-COPY and its LE-/X- siblings,
and RM-FILLED) against dst, writing the result back to dst unless -o names
a different path.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dstPath, scriptPath := args[0], args[1]

		dstData, err := os.ReadFile(dstPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", dstPath, err)
		}
		scriptData, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", scriptPath, err)
		}

		cfg, hooks, err := buildConfig()
		if err != nil {
			return err
		}
		hooks.ContainerName = func() string { return dstPath }

		dst, err := bmg.DecodeBinary(dstData, cfg, hooks)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", dstPath, err)
		}

		lines, err := patchscript.Parse(string(scriptData))
		if err != nil {
			return err
		}

		filter, err := patchscript.NewFilter(patchFilter)
		if err != nil {
			return err
		}

		loader := patchscript.NewStoreLoader(cfg, hooks)
		if err := patchscript.Run(dst, lines, loader, filter); err != nil {
			return err
		}

		out := patchOutPath
		if out == "" {
			out = dstPath
		}
		if jsonOutput {
			return writeDecodeJSON(dst)
		}
		data, err := dst.EncodeBinary()
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return os.WriteFile(out, data, 0o644)
	},
}

func init() {
	patchCmd.Flags().StringVarP(&patchOutPath, "output", "o", "", "write the patched binary to this path (default: overwrite dst)")
	patchCmd.Flags().StringVar(&patchFilter, "filter", "", "expr-lang expression (vars: mid, text) gating which changed items are kept")
	rootCmd.AddCommand(patchCmd)
}
