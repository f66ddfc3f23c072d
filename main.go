package main

import "github.com/vibast-solutions/ms-go-identity/cmd"

func main() {
	cmd.Execute()
}
