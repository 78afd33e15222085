package main

import "github.com/nextlevelbuilder/factrelay/cmd"

func main() {
	cmd.Execute()
}
