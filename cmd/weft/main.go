// Command weft resolves and instantiates component definitions from
// declarative files.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/weft/cmd/weft/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
