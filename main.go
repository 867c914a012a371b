package main

import "vi-tools/cmd"

func main() {
	cmd.Execute()
}
