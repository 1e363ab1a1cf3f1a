package main

import "github.com/KaramelBytes/scolaire-cli/cmd"

func main() {
	cmd.Execute()
}
