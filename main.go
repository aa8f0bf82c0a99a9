package main

import cmd "github.com/rohmanhakim/robots-policy/internal/cli"

func main() {
	cmd.Execute()
}
