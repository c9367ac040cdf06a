// The main package for the site executable.
package main

import (
	"github.com/JakeFAU/marketing-site/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
