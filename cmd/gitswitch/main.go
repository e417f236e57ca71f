// Command gitswitch switches git's global identity between registered people.
package main

import (
	"os"

	"github.com/ksteinfeldt/gitswitch/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
