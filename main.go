// Command chatmark converts rendered chat transcript pages into Markdown.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/gaurav-prasanna/chatmark/cmd"
)

func main() {
	cmd.Execute()
}
