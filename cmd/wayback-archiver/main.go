package main

import cmd "github.com/rohmanhakim/wayback-archiver/internal/cli"

func main() {
	cmd.Execute()
}
