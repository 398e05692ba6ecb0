package main

import "github.com/Alijeyrad/simorq_sessions/cmd"

func main() {
	cmd.Execute()
}
