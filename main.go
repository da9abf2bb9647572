package main

import "github.com/sfedor2020/Portfolio-Scripts/cmd"

func main() {
	cmd.Execute()
}
