package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wiidev/bmgtool/lib/bmg"
	"github.com/wiidev/bmgtool/lib/bmg/text"

	"github.com/spf13/cobra"
)

var encodeOutPath string

var encodeCmd = &cobra.Command{
	Use:   "encode <file.txt>",
	Short: "Encode #BMG text form to a binary BMG container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		cfg, hooks, err := buildConfig()
		if err != nil {
			return err
		}
		hooks.ContainerName = func() string { return args[0] }

		store := bmg.NewWithConfig(cfg, hooks)
		scanOpts := text.ScanOptions{Include: fileInclude(filepath.Dir(args[0]))}
		if err := text.Scan(string(src), store, scanOpts); err != nil {
			return fmt.Errorf("scanning %s: %w", args[0], err)
		}

		data, err := store.EncodeBinary()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", args[0], err)
		}

		out := encodeOutPath
		if out == "" {
			out = swapExt(args[0], ".bmg")
		}
		return os.WriteFile(out, data, 0o644)
	},
}

// fileInclude resolves `@<`/`@>` include targets relative to dir, the text
// scanner's IncludeFunc collaborator.
func fileInclude(dir string) text.IncludeFunc {
	return func(path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(dir, path))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func swapExt(path, ext string) string {
	trimmed := path[:len(path)-len(filepath.Ext(path))]
	return trimmed + ext
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOutPath, "output", "o", "", "write binary to this path (default: input path with .bmg extension)")
	rootCmd.AddCommand(encodeCmd)
}
