// Command logkeep inspects and edits the persisted log store from a shell.
package main

import (
	"os"

	"github.com/GoPolymarket/logkeep/cmd/logkeep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
