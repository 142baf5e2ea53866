// Command bmgtool decodes, encodes, inspects, and patches Wii/GameCube BMG
// message containers.
package main

import (
	"fmt"
	"os"

	"github.com/wiidev/bmgtool/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bmgtool:", err)
		os.Exit(1)
	}
}
