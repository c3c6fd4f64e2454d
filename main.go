package main

import "github.com/Devious-Alcedo/EliteInfoPanel-sub000/cmd"

func main() {
	cmd.Execute()
}
