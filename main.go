package main

import "github.com/nikogura/academic-cv/cmd"

func main() {
	cmd.Execute()
}
