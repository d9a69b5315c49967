package main

import "github.com/bitxelroads/btrd/cmd"

func main() {
	cmd.Execute()
}
