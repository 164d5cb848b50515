package main

import "github.com/teamnsrg/covtab/cmd"

func main() {
	cmd.Execute()
}
