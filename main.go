package main

import "github.com/alanpinnt/wpmigrate/cmd"

func main() {
	cmd.Execute()
}
