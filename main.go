package main

import "github.com/linesmerrill/ai-court-api/cmd"

func main() {
	cmd.Execute()
}
