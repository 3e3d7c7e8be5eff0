package main

import "github.com/xcaliber/xcaliber-bot/cmd"

func main() {
	cmd.Execute()
}
