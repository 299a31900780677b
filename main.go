package main

import "github.com/gigapi/gigapi-accidents/cmd"

func main() {
	cmd.Execute()
}
