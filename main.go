package main

import "github.com/moodhome/moodhome/cmd"

func main() {
	cmd.Execute()
}
