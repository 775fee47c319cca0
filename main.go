// main.go
//
// Entry point; the command tree lives in cmd/.

package main

import (
	"github.com/inlining-analysis/inlining-analysis/cmd"
)

func main() {
	cmd.Execute()
}
