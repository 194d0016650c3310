package main

import "gober/cmd"

func main() {
	cmd.Execute()
}
