package main

import "inflow/internal/cmd"

func main() {
	cmd.Execute()
}
