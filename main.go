package main

import "github.com/kanyini-os/kanyini/cmd"

func main() {
	cmd.Execute()
}
