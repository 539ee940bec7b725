// main is the entry point of the perftimeline CLI.
package main

import (
	"github.com/huangsam/perftimeline/cmd"
	"github.com/huangsam/perftimeline/internal/archive"
	"github.com/huangsam/perftimeline/internal/contract"
)

func main() {
	err := cmd.Execute()
	archive.CloseArchive()
	if err != nil {
		contract.LogFatal("Error", err)
	}
}
