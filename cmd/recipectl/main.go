package main

import "recipe-customizer/internal/cmd"

func main() {
	cmd.Execute()
}
