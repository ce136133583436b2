package main

import "github.com/MilkClouds/SimpleRPyC/cmd"

func main() {
	cmd.Execute()
}
