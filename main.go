package main

import (
	"soundscape/cmd"
)

func main() {
	cmd.Execute()
}
