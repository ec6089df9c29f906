package main

import "github.com/mohamedmalandi/nova/cmd"

func main() {
	cmd.Execute()
}
