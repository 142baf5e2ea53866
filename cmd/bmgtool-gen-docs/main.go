// Command bmgtool-gen-docs renders bmgtool's cobra command tree to
// markdown under ./docs/cli.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wiidev/bmgtool/internal/cli"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// disableAutoGenTag recursively disables the auto-generated tag on all commands
func disableAutoGenTag(cmd *cobra.Command) {
	cmd.DisableAutoGenTag = true
	for _, c := range cmd.Commands() {
		disableAutoGenTag(c)
	}
}

func main() {
	docsDir := "./docs/cli"
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		log.Fatalf("Failed to create docs directory: %v", err)
	}

	fmt.Printf("Generating markdown docs to %s...\n", docsDir)

	cmd := cli.RootCommand()
	disableAutoGenTag(cmd)

	if err := doc.GenMarkdownTree(cmd, docsDir); err != nil {
		log.Fatalf("Failed to generate documentation: %v", err)
	}

	fmt.Println("Documentation generated successfully!")
}
