package main

import "github.com/chatwing/chatwing/cmd"

func main() {
	cmd.Execute()
}
