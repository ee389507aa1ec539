package main

import "github.com/castkeep/castkeep-api/cmd"

func main() {
	cmd.Execute()
}
