package main

import "github.com/naka-gawa/github-report/cmd"

func main() {
	cmd.Execute()
}
