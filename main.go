package main

import (
	_ "time/tzdata"

	"sensei-backoffice/cmd"
)

func main() {
	cmd.Execute()
}
